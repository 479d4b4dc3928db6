// Package service holds the business logic between the HTTP handlers and
// the repositories: form layout and validation, booking submission, admin
// catalog management and admin authentication.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/cusspwk/cuss/internal/form"
	"github.com/cusspwk/cuss/internal/model"
	"github.com/cusspwk/cuss/pkg/events"
)

// ─── Form Errors ────────────────────────────────────────────

var (
	// ErrInvalidField is returned when an admin write would leave the
	// registry inconsistent. The wrapped error names the rule broken.
	ErrInvalidField = errors.New("invalid form field")

	// ErrInvalidServiceConfig is returned for a config without a service name.
	ErrInvalidServiceConfig = errors.New("invalid service config")
)

// FieldStore persists the form field registry.
type FieldStore interface {
	ListFields(ctx context.Context) ([]model.FieldDescriptor, error)
	Get(ctx context.Context, id string) (*model.FieldDescriptor, error)
	Create(ctx context.Context, f *model.FieldDescriptor) error
	Update(ctx context.Context, f *model.FieldDescriptor) error
	Delete(ctx context.Context, id string) error
}

// ServiceConfigStore persists per-service wizard gating.
type ServiceConfigStore interface {
	ListServiceConfigs(ctx context.Context) ([]model.ServiceConfig, error)
	GetByService(ctx context.Context, service string) (*model.ServiceConfig, error)
	Upsert(ctx context.Context, c *model.ServiceConfig) error
	Delete(ctx context.Context, id string) error
}

// Invalidator drops cached copies of the registry.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// FormService serves the booking form to the public site and lets admins
// edit it.
type FormService struct {
	fields    FieldStore
	configs   ServiceConfigStore
	cache     Invalidator
	refresher *form.Refresher
	pub       events.Publisher
	log       *zap.Logger
}

// NewFormService creates a form service.
func NewFormService(
	fields FieldStore,
	configs ServiceConfigStore,
	cache Invalidator,
	refresher *form.Refresher,
	pub events.Publisher,
	log *zap.Logger,
) *FormService {
	return &FormService{
		fields:    fields,
		configs:   configs,
		cache:     cache,
		refresher: refresher,
		pub:       pub,
		log:       log,
	}
}

// ─── Public reads ───────────────────────────────────────────

// Snapshot returns the current registry snapshot.
func (s *FormService) Snapshot(ctx context.Context) (*form.Snapshot, error) {
	return s.refresher.Snapshot(ctx)
}

// Layout returns the wizard layout for service.
func (s *FormService) Layout(ctx context.Context, service string) (form.Layout, error) {
	snap, err := s.refresher.Snapshot(ctx)
	if err != nil {
		return form.Layout{}, err
	}
	return snap.Layout(service), nil
}

// ValidateStep coerces raw and checks one wizard step. It returns the
// normalized values and the names of the missing required fields.
func (s *FormService) ValidateStep(ctx context.Context, raw map[string]any, step form.Step) (form.Values, []string, error) {
	snap, err := s.refresher.Snapshot(ctx)
	if err != nil {
		return nil, nil, err
	}
	values, err := snap.CoerceValues(raw)
	if err != nil {
		return nil, nil, err
	}
	service, _ := values[model.FieldService].(string)
	return values, form.ValidateStep(snap.Layout(service), values, step), nil
}

// Derive coerces raw and fills in every derived field.
func (s *FormService) Derive(ctx context.Context, raw map[string]any) (form.Values, error) {
	snap, err := s.refresher.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.CoerceValues(raw)
}

// ─── Admin: fields ──────────────────────────────────────────

// ListFields returns every field, including retired ones.
func (s *FormService) ListFields(ctx context.Context) ([]model.FieldDescriptor, error) {
	return s.fields.ListFields(ctx)
}

// CreateField validates f against the registry and stores it.
func (s *FormService) CreateField(ctx context.Context, f *model.FieldDescriptor) error {
	normalizeField(f)
	if err := s.checkRegistry(ctx, f, ""); err != nil {
		return err
	}
	if err := s.fields.Create(ctx, f); err != nil {
		return err
	}
	s.afterWrite(ctx, "field", f.ID)
	return nil
}

// UpdateField validates the edited f against the registry and stores it.
func (s *FormService) UpdateField(ctx context.Context, f *model.FieldDescriptor) error {
	normalizeField(f)
	existing, err := s.fields.Get(ctx, f.ID)
	if err != nil {
		return err
	}
	f.CreatedAt = existing.CreatedAt
	if err := s.checkRegistry(ctx, f, f.ID); err != nil {
		return err
	}
	if err := s.fields.Update(ctx, f); err != nil {
		return err
	}
	s.afterWrite(ctx, "field", f.ID)
	return nil
}

// DeleteField removes a field unless an active distance rule still uses it.
func (s *FormService) DeleteField(ctx context.Context, id string) error {
	if err := s.checkRegistry(ctx, nil, id); err != nil {
		return err
	}
	if err := s.fields.Delete(ctx, id); err != nil {
		return err
	}
	s.afterWrite(ctx, "field", id)
	return nil
}

// checkRegistry validates the registry as it would look after replacing
// the field with ID replaceID by f (either may be empty).
func (s *FormService) checkRegistry(ctx context.Context, f *model.FieldDescriptor, replaceID string) error {
	if f != nil {
		if err := form.ValidateField(*f); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidField, err)
		}
	}
	current, err := s.fields.ListFields(ctx)
	if err != nil {
		return err
	}
	next := make([]model.FieldDescriptor, 0, len(current)+1)
	for _, c := range current {
		if replaceID == "" || c.ID != replaceID {
			next = append(next, c)
		}
	}
	if f != nil {
		next = append(next, *f)
	}
	if err := form.ValidateRegistry(next); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidField, err)
	}
	return nil
}

func normalizeField(f *model.FieldDescriptor) {
	f.Name = strings.TrimSpace(f.Name)
	f.Label = strings.TrimSpace(f.Label)
	if f.Kind != model.KindSelect {
		f.Options = nil
	}
}

// ─── Admin: service configs ─────────────────────────────────

// ListServiceConfigs returns every service config.
func (s *FormService) ListServiceConfigs(ctx context.Context) ([]model.ServiceConfig, error) {
	return s.configs.ListServiceConfigs(ctx)
}

// GetServiceConfig returns the config for one service.
func (s *FormService) GetServiceConfig(ctx context.Context, service string) (*model.ServiceConfig, error) {
	return s.configs.GetByService(ctx, service)
}

// SaveServiceConfig creates or replaces the config for c.ServiceName.
// Names that match no active field are accepted and logged: the layout
// skips them until such a field exists.
func (s *FormService) SaveServiceConfig(ctx context.Context, c *model.ServiceConfig) error {
	c.ServiceName = strings.TrimSpace(c.ServiceName)
	if c.ServiceName == "" {
		return fmt.Errorf("%w: serviceName is required", ErrInvalidServiceConfig)
	}
	if snap, err := s.refresher.Snapshot(ctx); err == nil {
		// Same resolution the layout uses, so the warning matches Layout.Missing.
		if unknown := form.ComputeLayout(snap.Fields, c, c.ServiceName).Missing; len(unknown) > 0 {
			s.log.Warn("service config names unknown fields",
				zap.String("service", c.ServiceName), zap.Strings("fields", unknown))
		}
	}
	if err := s.configs.Upsert(ctx, c); err != nil {
		return err
	}
	s.afterWrite(ctx, "serviceConfig", c.ID)
	return nil
}

// DeleteServiceConfig removes a config; the service falls back to the
// unconfigured layout.
func (s *FormService) DeleteServiceConfig(ctx context.Context, id string) error {
	if err := s.configs.Delete(ctx, id); err != nil {
		return err
	}
	s.afterWrite(ctx, "serviceConfig", id)
	return nil
}

// afterWrite makes an admin edit visible right away on this replica and
// tells the others. Failures only delay visibility until the next poll.
func (s *FormService) afterWrite(ctx context.Context, kind, id string) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Warn("form cache invalidation failed", zap.Error(err))
	}
	if _, err := s.refresher.Refresh(ctx); err != nil {
		s.log.Warn("form refresh after write failed", zap.Error(err))
	}
	if err := s.pub.Publish(ctx, events.TopicFormChanged, events.FormChanged{Kind: kind, ID: id}); err != nil {
		s.log.Warn("publish form change failed", zap.Error(err))
	}
}
