package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/cusspwk/cuss/internal/form"
	"github.com/cusspwk/cuss/internal/model"
)

// FormAPI is the form service as seen by the HTTP layer.
type FormAPI interface {
	Snapshot(ctx context.Context) (*form.Snapshot, error)
	Layout(ctx context.Context, service string) (form.Layout, error)
	ValidateStep(ctx context.Context, raw map[string]any, step form.Step) (form.Values, []string, error)
	Derive(ctx context.Context, raw map[string]any) (form.Values, error)

	ListFields(ctx context.Context) ([]model.FieldDescriptor, error)
	CreateField(ctx context.Context, f *model.FieldDescriptor) error
	UpdateField(ctx context.Context, f *model.FieldDescriptor) error
	DeleteField(ctx context.Context, id string) error

	ListServiceConfigs(ctx context.Context) ([]model.ServiceConfig, error)
	GetServiceConfig(ctx context.Context, service string) (*model.ServiceConfig, error)
	SaveServiceConfig(ctx context.Context, c *model.ServiceConfig) error
	DeleteServiceConfig(ctx context.Context, id string) error
}

// FormHandler serves the booking form definition and its admin editor.
type FormHandler struct {
	forms FormAPI
	log   *zap.Logger
}

// NewFormHandler creates a new form handler.
func NewFormHandler(forms FormAPI, log *zap.Logger) *FormHandler {
	return &FormHandler{forms: forms, log: log}
}

// Routes registers the public and admin form endpoints.
func (h *FormHandler) Routes(public, admin *mux.Router) {
	public.HandleFunc("/form/fields", h.ActiveFields).Methods(http.MethodGet)
	public.HandleFunc("/form/service-configs", h.ListServiceConfigs).Methods(http.MethodGet)
	public.HandleFunc("/form/layout", h.Layout).Methods(http.MethodGet)
	public.HandleFunc("/form/validate", h.Validate).Methods(http.MethodPost)
	public.HandleFunc("/form/derive", h.Derive).Methods(http.MethodPost)

	admin.HandleFunc("/form/fields", h.ListFields).Methods(http.MethodGet)
	admin.HandleFunc("/form/fields", h.CreateField).Methods(http.MethodPost)
	admin.HandleFunc("/form/fields/{id}", h.UpdateField).Methods(http.MethodPut)
	admin.HandleFunc("/form/fields/{id}", h.DeleteField).Methods(http.MethodDelete)
	admin.HandleFunc("/form/service-configs", h.ListServiceConfigs).Methods(http.MethodGet)
	admin.HandleFunc("/form/service-configs/{service}", h.GetServiceConfig).Methods(http.MethodGet)
	admin.HandleFunc("/form/service-configs/{service}", h.SaveServiceConfig).Methods(http.MethodPut)
	admin.HandleFunc("/form/service-configs/{service}", h.DeleteServiceConfig).Methods(http.MethodDelete)
}

// ─── Public ─────────────────────────────────────────────────

// ActiveFields handles GET /api/v1/form/fields
//
// Returns the active fields in position order.
func (h *FormHandler) ActiveFields(w http.ResponseWriter, r *http.Request) {
	snap, err := h.forms.Snapshot(r.Context())
	if err != nil {
		writeServiceError(w, h.log, "Form", err)
		return
	}
	writeJSON(w, http.StatusOK, snap.Fields)
}

// Layout handles GET /api/v1/form/layout?service=
//
// Returns the fields on each wizard step for the selected service.
func (h *FormHandler) Layout(w http.ResponseWriter, r *http.Request) {
	l, err := h.forms.Layout(r.Context(), r.URL.Query().Get("service"))
	if err != nil {
		writeServiceError(w, h.log, "Form", err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

// validateResponse is the body returned by Validate.
type validateResponse struct {
	Step    int         `json:"step"`
	Valid   bool        `json:"valid"`
	Missing []string    `json:"missing"`
	Values  form.Values `json:"values"`
}

// Validate handles POST /api/v1/form/validate?step=1
//
// Checks the required fields of one step. Always 200 when the body is
// readable: the result says whether the step may be left.
func (h *FormHandler) Validate(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(r.URL.Query().Get("step"))
	step := form.Step(n)
	if err != nil || !step.Valid() {
		writeError(w, http.StatusBadRequest, "invalid_step", "step must be 1, 2 or 3.")
		return
	}
	raw, ok := decodeValues(w, r)
	if !ok {
		return
	}

	values, missing, err := h.forms.ValidateStep(r.Context(), raw, step)
	if err != nil {
		writeServiceError(w, h.log, "Form", err)
		return
	}
	if missing == nil {
		missing = []string{}
	}
	writeJSON(w, http.StatusOK, validateResponse{
		Step:    n,
		Valid:   len(missing) == 0,
		Missing: missing,
		Values:  values,
	})
}

// Derive handles POST /api/v1/form/derive
//
// Returns the normalized values with every derived field recomputed.
func (h *FormHandler) Derive(w http.ResponseWriter, r *http.Request) {
	raw, ok := decodeValues(w, r)
	if !ok {
		return
	}
	values, err := h.forms.Derive(r.Context(), raw)
	if err != nil {
		writeServiceError(w, h.log, "Form", err)
		return
	}
	writeJSON(w, http.StatusOK, values)
}

// ─── Admin: fields ──────────────────────────────────────────

// ListFields handles GET /api/v1/admin/form/fields
func (h *FormHandler) ListFields(w http.ResponseWriter, r *http.Request) {
	fields, err := h.forms.ListFields(r.Context())
	if err != nil {
		writeServiceError(w, h.log, "Field", err)
		return
	}
	writeJSON(w, http.StatusOK, fields)
}

// CreateField handles POST /api/v1/admin/form/fields
func (h *FormHandler) CreateField(w http.ResponseWriter, r *http.Request) {
	var req fieldRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	f := req.toModel("")
	if err := h.forms.CreateField(r.Context(), f); err != nil {
		writeServiceError(w, h.log, "Field", err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

// UpdateField handles PUT /api/v1/admin/form/fields/{id}
func (h *FormHandler) UpdateField(w http.ResponseWriter, r *http.Request) {
	var req fieldRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	f := req.toModel(mux.Vars(r)["id"])
	if err := h.forms.UpdateField(r.Context(), f); err != nil {
		writeServiceError(w, h.log, "Field", err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// DeleteField handles DELETE /api/v1/admin/form/fields/{id}
func (h *FormHandler) DeleteField(w http.ResponseWriter, r *http.Request) {
	if err := h.forms.DeleteField(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, h.log, "Field", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─── Service configs ────────────────────────────────────────

// ListServiceConfigs handles GET /api/v1/form/service-configs and its
// admin twin.
func (h *FormHandler) ListServiceConfigs(w http.ResponseWriter, r *http.Request) {
	cfgs, err := h.forms.ListServiceConfigs(r.Context())
	if err != nil {
		writeServiceError(w, h.log, "Service config", err)
		return
	}
	writeJSON(w, http.StatusOK, cfgs)
}

// GetServiceConfig handles GET /api/v1/admin/form/service-configs/{service}
func (h *FormHandler) GetServiceConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.forms.GetServiceConfig(r.Context(), mux.Vars(r)["service"])
	if err != nil {
		writeServiceError(w, h.log, "Service config", err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// SaveServiceConfig handles PUT /api/v1/admin/form/service-configs/{service}
//
// Creates or replaces the config for the named service.
func (h *FormHandler) SaveServiceConfig(w http.ResponseWriter, r *http.Request) {
	var req serviceConfigRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	cfg := req.toModel(mux.Vars(r)["service"])
	if err := h.forms.SaveServiceConfig(r.Context(), cfg); err != nil {
		writeServiceError(w, h.log, "Service config", err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// DeleteServiceConfig handles DELETE /api/v1/admin/form/service-configs/{service}
func (h *FormHandler) DeleteServiceConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.forms.GetServiceConfig(r.Context(), mux.Vars(r)["service"])
	if err == nil {
		err = h.forms.DeleteServiceConfig(r.Context(), cfg.ID)
	}
	if err != nil {
		writeServiceError(w, h.log, "Service config", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
