package form

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/cusspwk/cuss/internal/model"
)

// Source loads the raw field registry and service configuration map.
type Source interface {
	ListFields(ctx context.Context) ([]model.FieldDescriptor, error)
	ListServiceConfigs(ctx context.Context) ([]model.ServiceConfig, error)
}

// Refresher keeps an up-to-date Snapshot by polling a Source at a fixed
// interval. Readers get the last good snapshot without blocking on I/O.
type Refresher struct {
	src      Source
	interval time.Duration
	log      *zap.Logger
	now      func() time.Time

	current atomic.Pointer[Snapshot]
}

// NewRefresher creates a refresher. Call Refresh once before serving, then
// Run in its own goroutine.
func NewRefresher(src Source, interval time.Duration, log *zap.Logger) *Refresher {
	return &Refresher{
		src:      src,
		interval: interval,
		log:      log,
		now:      time.Now,
	}
}

// Refresh loads the source and swaps the snapshot. On error the previous
// snapshot stays in place.
func (r *Refresher) Refresh(ctx context.Context) (*Snapshot, error) {
	fields, err := r.src.ListFields(ctx)
	if err != nil {
		return nil, fmt.Errorf("refresh form fields: %w", err)
	}
	configs, err := r.src.ListServiceConfigs(ctx)
	if err != nil {
		return nil, fmt.Errorf("refresh service configs: %w", err)
	}

	snap := NewSnapshot(fields, configs, r.now())
	if err := ValidateRegistry(snap.Fields); err != nil {
		r.log.Warn("form registry is inconsistent", zap.Error(err))
	}
	for name, cfg := range snap.Configs {
		if l := snap.Layout(name); len(l.Missing) > 0 {
			r.log.Warn("service config references unknown fields",
				zap.String("service", cfg.ServiceName),
				zap.Strings("fields", l.Missing))
		}
	}

	r.current.Store(snap)
	return snap, nil
}

// Snapshot returns the current snapshot, loading it synchronously if the
// refresher has never succeeded.
func (r *Refresher) Snapshot(ctx context.Context) (*Snapshot, error) {
	if s := r.current.Load(); s != nil {
		return s, nil
	}
	return r.Refresh(ctx)
}

// Run polls until ctx is cancelled.
func (r *Refresher) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.Refresh(ctx); err != nil && ctx.Err() == nil {
				r.log.Warn("form registry refresh failed; keeping previous snapshot", zap.Error(err))
			}
		}
	}
}
