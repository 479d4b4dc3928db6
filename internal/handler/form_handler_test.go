package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cusspwk/cuss/internal/form"
	"github.com/cusspwk/cuss/internal/model"
	"github.com/cusspwk/cuss/internal/repository"
	"github.com/cusspwk/cuss/internal/service"
)

// fakeForms serves reads from a fixed snapshot and records admin writes.
type fakeForms struct {
	snap     *form.Snapshot
	writeErr error
	created  []*model.FieldDescriptor
	saved    []*model.ServiceConfig
	deleted  []string
}

func newFakeForms() *fakeForms {
	cfg := model.ServiceConfig{
		ID:               "cfg-1",
		ServiceName:      "Kurir",
		ShowPickup:       true,
		FirstStepFields:  []string{"service", "name"},
		SecondStepFields: []string{"pickup"},
	}
	return &fakeForms{snap: form.NewSnapshot(form.DefaultFields(), []model.ServiceConfig{cfg}, time.Now())}
}

func (f *fakeForms) Snapshot(context.Context) (*form.Snapshot, error) { return f.snap, nil }

func (f *fakeForms) Layout(_ context.Context, service string) (form.Layout, error) {
	return f.snap.Layout(service), nil
}

func (f *fakeForms) ValidateStep(_ context.Context, raw map[string]any, step form.Step) (form.Values, []string, error) {
	values, err := f.snap.CoerceValues(raw)
	if err != nil {
		return nil, nil, err
	}
	service, _ := values["service"].(string)
	return values, form.ValidateStep(f.snap.Layout(service), values, step), nil
}

func (f *fakeForms) Derive(_ context.Context, raw map[string]any) (form.Values, error) {
	return f.snap.CoerceValues(raw)
}

func (f *fakeForms) ListFields(context.Context) ([]model.FieldDescriptor, error) {
	return f.snap.Fields, nil
}

func (f *fakeForms) CreateField(_ context.Context, fd *model.FieldDescriptor) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	fd.ID = "new-field"
	f.created = append(f.created, fd)
	return nil
}

func (f *fakeForms) UpdateField(_ context.Context, fd *model.FieldDescriptor) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.created = append(f.created, fd)
	return nil
}

func (f *fakeForms) DeleteField(_ context.Context, id string) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeForms) ListServiceConfigs(context.Context) ([]model.ServiceConfig, error) {
	cfg, _ := f.snap.Config("Kurir")
	return []model.ServiceConfig{cfg}, nil
}

func (f *fakeForms) GetServiceConfig(_ context.Context, service string) (*model.ServiceConfig, error) {
	cfg, ok := f.snap.Config(service)
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &cfg, nil
}

func (f *fakeForms) SaveServiceConfig(_ context.Context, c *model.ServiceConfig) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	c.ID = "cfg-" + c.ServiceName
	f.saved = append(f.saved, c)
	return nil
}

func (f *fakeForms) DeleteServiceConfig(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func newFormRouter(forms *fakeForms) http.Handler {
	root, public, admin := testRouter()
	NewFormHandler(forms, zap.NewNop()).Routes(public, admin)
	return root
}

func TestFormHandler_PublicReads(t *testing.T) {
	h := newFormRouter(newFakeForms())

	rec := do(t, h, http.MethodGet, "/api/v1/form/fields", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var fields []model.FieldDescriptor
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fields))
	assert.Len(t, fields, 8)
	assert.Equal(t, "name", fields[0].Name)

	rec = do(t, h, http.MethodGet, "/api/v1/form/layout?service=Kurir", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var l form.Layout
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &l))
	assert.True(t, l.Configured)
	assert.Len(t, l.Step1, 2)
	assert.False(t, l.ShowDestination)

	rec = do(t, h, http.MethodGet, "/api/v1/form/service-configs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"serviceName":"Kurir"`)
}

func TestFormHandler_Validate(t *testing.T) {
	h := newFormRouter(newFakeForms())

	rec := do(t, h, http.MethodPost, "/api/v1/form/validate?step=1", map[string]interface{}{"service": "Kurir"})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["valid"])
	assert.Equal(t, []interface{}{"name"}, body["missing"])

	rec = do(t, h, http.MethodPost, "/api/v1/form/validate?step=1", map[string]interface{}{"service": "Kurir", "name": "Dewi"})
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	assert.Equal(t, true, body["valid"])
	assert.Equal(t, []interface{}{}, body["missing"])

	tests := []struct {
		name   string
		path   string
		body   interface{}
		status int
		code   string
	}{
		{"missing step", "/api/v1/form/validate", map[string]interface{}{}, http.StatusBadRequest, "invalid_step"},
		{"step out of range", "/api/v1/form/validate?step=4", map[string]interface{}{}, http.StatusBadRequest, "invalid_step"},
		{"not an object", "/api/v1/form/validate?step=1", "[1,2]", http.StatusBadRequest, "invalid_body"},
		{"bad value", "/api/v1/form/validate?step=1", map[string]interface{}{"service": "Ojek"}, http.StatusUnprocessableEntity, "invalid_values"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decodeBody(t, rec)["error"])
		})
	}
}

func TestFormHandler_Derive(t *testing.T) {
	h := newFormRouter(newFakeForms())

	rec := do(t, h, http.MethodPost, "/api/v1/form/derive", map[string]interface{}{
		"pickup":      map[string]interface{}{"lat": -6.5567, "lng": 107.4439},
		"destination": map[string]interface{}{"lat": -6.5605, "lng": 107.4472},
		"distance":    99,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 0.52, decodeBody(t, rec)["distance"], 0.05)
}

func TestFormHandler_CreateField(t *testing.T) {
	forms := newFakeForms()
	h := newFormRouter(forms)

	rec := do(t, h, http.MethodPost, "/api/v1/admin/form/fields", map[string]interface{}{
		"label":    "Jumlah Penumpang",
		"name":     "passengers",
		"kind":     "number",
		"position": 9,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Len(t, forms.created, 1)
	assert.True(t, forms.created[0].IsActive, "isActive defaults to true")
	assert.Equal(t, "new-field", decodeBody(t, rec)["id"])

	t.Run("dto validation", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/api/v1/admin/form/fields", map[string]interface{}{
			"name": "x",
			"kind": "date",
		})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "validation_failed", body["error"])
		fields := body["fields"].(map[string]interface{})
		assert.Contains(t, fields, "label")
		assert.Contains(t, fields, "kind")
	})

	t.Run("registry rule broken", func(t *testing.T) {
		forms.writeErr = fmt.Errorf("%w: %w", service.ErrInvalidField, form.ErrInvalidRule)
		defer func() { forms.writeErr = nil }()

		rec := do(t, h, http.MethodPost, "/api/v1/admin/form/fields", map[string]interface{}{
			"label": "Jarak", "name": "km", "kind": "number",
			"autoCalculate": map[string]string{"kind": "distance", "from": "name", "to": "pickup"},
		})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "invalid_form", decodeBody(t, rec)["error"])
	})

	t.Run("duplicate name", func(t *testing.T) {
		forms.writeErr = fmt.Errorf("%w: %w", service.ErrInvalidField, form.ErrDuplicateName)
		defer func() { forms.writeErr = nil }()

		rec := do(t, h, http.MethodPost, "/api/v1/admin/form/fields", map[string]interface{}{
			"label": "Nama", "name": "name", "kind": "text",
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("reserved name", func(t *testing.T) {
		forms.writeErr = fmt.Errorf("%w: %w", service.ErrInvalidField, form.ErrReservedName)
		defer func() { forms.writeErr = nil }()

		rec := do(t, h, http.MethodPost, "/api/v1/admin/form/fields", map[string]interface{}{
			"label": "ID", "name": "id", "kind": "text",
		})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "invalid_form", decodeBody(t, rec)["error"])
	})
}

func TestFormHandler_UpdateAndDeleteField(t *testing.T) {
	forms := newFakeForms()
	h := newFormRouter(forms)

	rec := do(t, h, http.MethodPut, "/api/v1/admin/form/fields/f-7", map[string]interface{}{
		"label": "Catatan", "name": "notes", "kind": "textarea", "isActive": false,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "f-7", forms.created[0].ID)
	assert.False(t, forms.created[0].IsActive)

	rec = do(t, h, http.MethodDelete, "/api/v1/admin/form/fields/f-7", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"f-7"}, forms.deleted)

	forms.writeErr = repository.ErrNotFound
	rec = do(t, h, http.MethodDelete, "/api/v1/admin/form/fields/f-8", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeBody(t, rec)["error"])
}

func TestFormHandler_ServiceConfigs(t *testing.T) {
	forms := newFakeForms()
	h := newFormRouter(forms)

	rec := do(t, h, http.MethodPut, "/api/v1/admin/form/service-configs/Antar%20Jemput", map[string]interface{}{
		"showPickup":       true,
		"showDestination":  true,
		"firstStepFields":  []string{"name", "service"},
		"secondStepFields": []string{},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, forms.saved, 1)
	assert.Equal(t, "Antar Jemput", forms.saved[0].ServiceName)

	rec = do(t, h, http.MethodPut, "/api/v1/admin/form/service-configs/Kurir", map[string]interface{}{
		"firstStepFields": []string{""},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/v1/admin/form/service-configs/Kurir", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "cfg-1", decodeBody(t, rec)["id"])

	rec = do(t, h, http.MethodDelete, "/api/v1/admin/form/service-configs/Kurir", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"cfg-1"}, forms.deleted)

	rec = do(t, h, http.MethodDelete, "/api/v1/admin/form/service-configs/Belanja", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
