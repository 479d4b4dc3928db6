package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cusspwk/cuss/internal/form"
	"github.com/cusspwk/cuss/internal/model"
	"github.com/cusspwk/cuss/internal/repository"
	"github.com/cusspwk/cuss/pkg/events"
	"github.com/cusspwk/cuss/pkg/geolocate"
	"github.com/cusspwk/cuss/pkg/idgen"
)

// ─── Booking Errors ─────────────────────────────────────────

// requiredKeys must be present in every submission body, even when empty.
var requiredKeys = []string{
	model.FieldName,
	model.FieldService,
	model.FieldPickup,
	model.FieldDestination,
	model.FieldDistance,
}

// MissingKeysError is returned when a submission body lacks required keys.
type MissingKeysError struct {
	Keys []string
}

func (e *MissingKeysError) Error() string {
	return fmt.Sprintf("submission is missing keys: %v", e.Keys)
}

// ErrReferenceExhausted is returned when no free booking reference could
// be generated. It means the store is unhealthy rather than full.
var ErrReferenceExhausted = errors.New("could not allocate a booking reference")

const maxReferenceAttempts = 5

// TransactionStore persists submitted bookings.
type TransactionStore interface {
	Insert(ctx context.Context, t *model.Transaction) error
	Get(ctx context.Context, id string) (*model.Transaction, error)
	List(ctx context.Context, f repository.TransactionFilter) ([]model.Transaction, int64, error)
	Delete(ctx context.Context, id string) error
}

// Snapshotter provides the current form registry.
type Snapshotter interface {
	Snapshot(ctx context.Context) (*form.Snapshot, error)
}

// ─── BookingService ─────────────────────────────────────────

// BookingService validates, assembles and stores booking submissions.
//
// The server never trusts the client's wizard: values are re-coerced, every
// step is re-validated against the current layout, and distance is
// recomputed before the transaction is written.
type BookingService struct {
	forms         Snapshotter
	store         TransactionStore
	locator       geolocate.Locator
	locateTimeout time.Duration
	pub           events.Publisher
	log           *zap.Logger

	now    func() time.Time
	newRef func() (string, error)
}

// NewBookingService creates a booking service. locator may be nil to
// disable the IP geolocation fallback.
func NewBookingService(
	forms Snapshotter,
	store TransactionStore,
	locator geolocate.Locator,
	locateTimeout time.Duration,
	pub events.Publisher,
	log *zap.Logger,
) *BookingService {
	return &BookingService{
		forms:         forms,
		store:         store,
		locator:       locator,
		locateTimeout: locateTimeout,
		pub:           pub,
		log:           log,
		now:           time.Now,
		newRef:        idgen.BookingRef,
	}
}

// Submit stores one booking.
//
// Flow:
//  1. Check that the required keys are present.
//  2. Coerce and validate all steps against the selected service's layout.
//  3. Assemble the submission; when it carries no device coordinates, use
//     an IP-based position looked up in parallel.
//  4. Insert under a fresh booking reference and publish an event.
func (s *BookingService) Submit(ctx context.Context, raw map[string]any, clientIP string) (*model.Transaction, error) {
	var missing []string
	for _, k := range requiredKeys {
		if _, ok := raw[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingKeysError{Keys: missing}
	}

	var pending *geolocate.Pending
	if s.locator != nil && clientIP != "" && !hasCoordinates(raw) {
		lookupCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		pending = geolocate.Start(lookupCtx, s.locator, clientIP, s.locateTimeout)
	}

	snap, err := s.forms.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("load form: %w", err)
	}
	values, err := snap.CoerceValues(raw)
	if err != nil {
		return nil, err
	}
	service, _ := values[model.FieldService].(string)
	if err := form.ValidateAll(snap.Layout(service), values); err != nil {
		return nil, err
	}

	sub := form.Assemble(snap.Fields, values)
	if pending != nil {
		if p, err := pending.Result(); err != nil {
			s.log.Warn("ip geolocation unavailable", zap.String("ip", clientIP), zap.Error(err))
		} else {
			sub.Latitude, sub.Longitude = &p.Lat, &p.Lng
		}
	}

	tx, err := s.insert(ctx, sub, clientIP)
	if err != nil {
		return nil, err
	}

	s.log.Info("booking stored",
		zap.String("id", tx.ID),
		zap.String("service", tx.Service),
		zap.Float64("distance_km", tx.Distance))

	ev := events.TransactionCreated{
		ID:        tx.ID,
		Service:   tx.Service,
		Name:      tx.Name,
		Distance:  tx.Distance,
		CreatedAt: tx.CreatedAt,
	}
	if tx.Whatsapp != nil {
		ev.Whatsapp = *tx.Whatsapp
	}
	if err := s.pub.Publish(ctx, events.TopicTransactionCreated, ev); err != nil {
		s.log.Warn("publish transaction created failed", zap.String("id", tx.ID), zap.Error(err))
	}
	return tx, nil
}

func (s *BookingService) insert(ctx context.Context, sub model.BookingSubmission, clientIP string) (*model.Transaction, error) {
	for attempt := 0; attempt < maxReferenceAttempts; attempt++ {
		ref, err := s.newRef()
		if err != nil {
			return nil, err
		}
		tx := model.NewTransaction(ref, sub, s.now().UTC().Truncate(time.Millisecond))
		tx.ClientIP = clientIP

		err = s.store.Insert(ctx, tx)
		if err == nil {
			return tx, nil
		}
		if !errors.Is(err, repository.ErrDuplicate) {
			return nil, err
		}
		s.log.Warn("booking reference collision", zap.String("id", ref))
	}
	return nil, ErrReferenceExhausted
}

func hasCoordinates(raw map[string]any) bool {
	lat, okLat := raw[model.FieldLatitude]
	lng, okLng := raw[model.FieldLongitude]
	return okLat && okLng && lat != nil && lng != nil
}

// ─── Admin ──────────────────────────────────────────────────

// List returns stored bookings, newest first, with the total match count.
func (s *BookingService) List(ctx context.Context, f repository.TransactionFilter) ([]model.Transaction, int64, error) {
	return s.store.List(ctx, f)
}

// Get returns one booking by reference.
func (s *BookingService) Get(ctx context.Context, id string) (*model.Transaction, error) {
	return s.store.Get(ctx, id)
}

// Delete removes a booking and publishes the deletion.
func (s *BookingService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.pub.Publish(ctx, events.TopicTransactionDeleted, events.TransactionDeleted{ID: id}); err != nil {
		s.log.Warn("publish transaction deleted failed", zap.String("id", id), zap.Error(err))
	}
	return nil
}
