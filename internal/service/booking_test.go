package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cusspwk/cuss/internal/form"
	"github.com/cusspwk/cuss/internal/model"
	"github.com/cusspwk/cuss/internal/repository"
	"github.com/cusspwk/cuss/pkg/events"
	"github.com/cusspwk/cuss/pkg/geolocate"
)

type fakeLocator struct {
	point model.GeoPoint
	err   error
	delay time.Duration
	calls int
}

func (f *fakeLocator) Locate(ctx context.Context, _ string) (model.GeoPoint, error) {
	f.calls++
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return model.GeoPoint{}, ctx.Err()
		}
	}
	return f.point, f.err
}

func validBody() map[string]any {
	return map[string]any{
		"name":        "Dewi",
		"whatsapp":    "0812",
		"service":     "Kurir",
		"pickup":      map[string]any{"lat": -6.5567, "lng": 107.4439, "address": "Stasiun Purwakarta"},
		"destination": map[string]any{"lat": -6.5605, "lng": 107.4472, "address": "Alun-alun"},
		"distance":    99,
		"passengers":  "2",
		"unknown":     "dropped",
	}
}

func newBookingService(store *memTransactions, loc *fakeLocator, pub *recordingPublisher) *BookingService {
	var l geolocate.Locator
	if loc != nil {
		l = loc
	}
	svc := NewBookingService(staticForms{defaultSnapshot()}, store, l, 50*time.Millisecond, pub, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2026, 10, 17, 8, 30, 0, 123456789, time.UTC) }
	return svc
}

func TestBookingService_Submit(t *testing.T) {
	store := newMemTransactions()
	pub := &recordingPublisher{}
	svc := newBookingService(store, nil, pub)

	tx, err := svc.Submit(context.Background(), validBody(), "")
	require.NoError(t, err)

	assert.Regexp(t, `^CUSS-[A-Z2-9]{8}$`, tx.ID)
	assert.Equal(t, "Dewi", tx.Name)
	assert.Equal(t, "Kurir", tx.Service)
	assert.InDelta(t, 0.52, tx.Distance, 0.05)
	assert.Equal(t, "Stasiun Purwakarta", tx.Pickup.Address)
	assert.Equal(t, map[string]any{"passengers": 2.0}, tx.Extra)
	assert.Equal(t, time.Date(2026, 10, 17, 8, 30, 0, 123000000, time.UTC), tx.CreatedAt)
	assert.Nil(t, tx.Latitude)

	stored, err := store.Get(context.Background(), tx.ID)
	require.NoError(t, err)
	assert.Same(t, tx, stored)

	require.Equal(t, []string{events.TopicTransactionCreated}, pub.topics)
	ev := pub.events[0].(events.TransactionCreated)
	assert.Equal(t, tx.ID, ev.ID)
	assert.Equal(t, "0812", ev.Whatsapp)
}

func TestBookingService_SubmitMissingKeys(t *testing.T) {
	svc := newBookingService(newMemTransactions(), nil, &recordingPublisher{})

	body := validBody()
	delete(body, "distance")
	delete(body, "pickup")

	_, err := svc.Submit(context.Background(), body, "")
	var mk *MissingKeysError
	require.ErrorAs(t, err, &mk)
	assert.Equal(t, []string{"pickup", "distance"}, mk.Keys)
}

func TestBookingService_SubmitValidation(t *testing.T) {
	store := newMemTransactions()
	svc := newBookingService(store, nil, &recordingPublisher{})

	t.Run("empty required detail", func(t *testing.T) {
		body := validBody()
		body["name"] = "  "
		_, err := svc.Submit(context.Background(), body, "")
		var ve *form.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, form.StepDetails, ve.Step)
		assert.Equal(t, []string{"name"}, ve.Fields)
	})

	t.Run("unset pickup", func(t *testing.T) {
		body := validBody()
		body["pickup"] = map[string]any{"lat": 0, "lng": 0}
		_, err := svc.Submit(context.Background(), body, "")
		var ve *form.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, form.StepLocation, ve.Step)
		assert.Equal(t, []string{"pickup"}, ve.Fields)
	})

	t.Run("uncoercible value", func(t *testing.T) {
		body := validBody()
		body["service"] = "Ojek"
		_, err := svc.Submit(context.Background(), body, "")
		var ce *form.CoerceError
		require.ErrorAs(t, err, &ce)
		assert.Contains(t, ce.Fields, "service")
	})

	_, total, err := store.List(context.Background(), repository.TransactionFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestBookingService_SubmitGeolocation(t *testing.T) {
	t.Run("fills coordinates from client ip", func(t *testing.T) {
		loc := &fakeLocator{point: model.GeoPoint{Lat: -6.55, Lng: 107.44}}
		svc := newBookingService(newMemTransactions(), loc, &recordingPublisher{})

		tx, err := svc.Submit(context.Background(), validBody(), "203.0.113.7")
		require.NoError(t, err)
		require.NotNil(t, tx.Latitude)
		assert.Equal(t, -6.55, *tx.Latitude)
		assert.Equal(t, 107.44, *tx.Longitude)
		assert.Equal(t, "203.0.113.7", tx.ClientIP)
	})

	t.Run("device coordinates win", func(t *testing.T) {
		loc := &fakeLocator{point: model.GeoPoint{Lat: -6.55, Lng: 107.44}}
		svc := newBookingService(newMemTransactions(), loc, &recordingPublisher{})

		body := validBody()
		body["latitude"] = -6.5
		body["longitude"] = 107.4
		tx, err := svc.Submit(context.Background(), body, "203.0.113.7")
		require.NoError(t, err)
		assert.Equal(t, -6.5, *tx.Latitude)
		assert.Zero(t, loc.calls)
	})

	t.Run("slow lookup does not block", func(t *testing.T) {
		loc := &fakeLocator{point: model.GeoPoint{Lat: -6.55, Lng: 107.44}, delay: time.Second}
		svc := newBookingService(newMemTransactions(), loc, &recordingPublisher{})

		start := time.Now()
		tx, err := svc.Submit(context.Background(), validBody(), "203.0.113.7")
		require.NoError(t, err)
		assert.Nil(t, tx.Latitude)
		assert.Less(t, time.Since(start), 500*time.Millisecond)
	})

	t.Run("lookup failure is ignored", func(t *testing.T) {
		loc := &fakeLocator{err: errors.New("rate limited")}
		svc := newBookingService(newMemTransactions(), loc, &recordingPublisher{})

		tx, err := svc.Submit(context.Background(), validBody(), "203.0.113.7")
		require.NoError(t, err)
		assert.Nil(t, tx.Latitude)
	})
}

func TestBookingService_ReferenceCollision(t *testing.T) {
	store := newMemTransactions()
	svc := newBookingService(store, nil, &recordingPublisher{})

	require.NoError(t, store.Insert(context.Background(), &model.Transaction{ID: "CUSS-AAAAAAAA"}))

	refs := []string{"CUSS-AAAAAAAA", "CUSS-BBBBBBBB"}
	svc.newRef = func() (string, error) {
		r := refs[0]
		refs = refs[1:]
		return r, nil
	}

	tx, err := svc.Submit(context.Background(), validBody(), "")
	require.NoError(t, err)
	assert.Equal(t, "CUSS-BBBBBBBB", tx.ID)

	attempts := 0
	svc.newRef = func() (string, error) {
		attempts++
		return "CUSS-AAAAAAAA", nil
	}
	_, err = svc.Submit(context.Background(), validBody(), "")
	assert.ErrorIs(t, err, ErrReferenceExhausted)
	assert.Equal(t, 5, attempts)
}

func TestBookingService_StoreAndPublishErrors(t *testing.T) {
	t.Run("store failure is returned", func(t *testing.T) {
		store := newMemTransactions()
		store.insertErr = errors.New("mongo down")
		svc := newBookingService(store, nil, &recordingPublisher{})

		_, err := svc.Submit(context.Background(), validBody(), "")
		assert.EqualError(t, err, "mongo down")
	})

	t.Run("publish failure is not", func(t *testing.T) {
		pub := &recordingPublisher{err: errors.New("nats down")}
		svc := newBookingService(newMemTransactions(), nil, pub)

		_, err := svc.Submit(context.Background(), validBody(), "")
		assert.NoError(t, err)
	})
}

func TestBookingService_Delete(t *testing.T) {
	store := newMemTransactions()
	pub := &recordingPublisher{}
	svc := newBookingService(store, nil, pub)

	tx, err := svc.Submit(context.Background(), validBody(), "")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), tx.ID))
	assert.Equal(t, events.TopicTransactionDeleted, pub.topics[1])
	assert.Equal(t, events.TransactionDeleted{ID: tx.ID}, pub.events[1])

	assert.ErrorIs(t, svc.Delete(context.Background(), tx.ID), repository.ErrNotFound)
	_, err = svc.Get(context.Background(), tx.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
