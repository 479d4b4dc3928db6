package form

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cusspwk/cuss/internal/model"
)

type fakeSource struct {
	fields  []model.FieldDescriptor
	configs []model.ServiceConfig
	err     error
	calls   atomic.Int32
}

func (f *fakeSource) ListFields(context.Context) ([]model.FieldDescriptor, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.fields, nil
}

func (f *fakeSource) ListServiceConfigs(context.Context) ([]model.ServiceConfig, error) {
	return f.configs, nil
}

func TestRefresher_SnapshotLoadsLazily(t *testing.T) {
	src := &fakeSource{fields: testFields(), configs: testConfigs()}
	r := NewRefresher(src, time.Minute, zap.NewNop())

	snap, err := r.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Fields, 10)

	again, err := r.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Same(t, snap, again)
	assert.Equal(t, int32(1), src.calls.Load())
}

func TestRefresher_KeepsPreviousSnapshotOnError(t *testing.T) {
	src := &fakeSource{fields: testFields(), configs: testConfigs()}
	r := NewRefresher(src, time.Minute, zap.NewNop())

	first, err := r.Refresh(context.Background())
	require.NoError(t, err)

	src.err = errors.New("connection refused")
	_, err = r.Refresh(context.Background())
	require.Error(t, err)

	current, err := r.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, current)
}

func TestRefresher_SnapshotErrorWithoutPrevious(t *testing.T) {
	src := &fakeSource{err: errors.New("down")}
	r := NewRefresher(src, time.Minute, zap.NewNop())

	_, err := r.Snapshot(context.Background())
	assert.ErrorContains(t, err, "refresh form fields")
}

func TestRefresher_WarnsAboutUnknownConfigFields(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	src := &fakeSource{fields: testFields(), configs: testConfigs()}
	r := NewRefresher(src, time.Minute, zap.New(core))

	_, err := r.Refresh(context.Background())
	require.NoError(t, err)

	entries := logs.FilterMessage("service config references unknown fields").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "Kurir", entries[0].ContextMap()["service"])
}

func TestRefresher_RunPicksUpChanges(t *testing.T) {
	src := &fakeSource{fields: testFields(), configs: testConfigs()}
	r := NewRefresher(src, 10*time.Millisecond, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return src.calls.Load() >= 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
