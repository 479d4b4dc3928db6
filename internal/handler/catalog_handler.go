package handler

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/cusspwk/cuss/internal/model"
	"github.com/cusspwk/cuss/internal/service"
)

// CatalogAPI is the catalog service as seen by the HTTP layer.
type CatalogAPI interface {
	ListServices(ctx context.Context, activeOnly bool) ([]model.Service, error)
	GetService(ctx context.Context, slug string) (*model.Service, error)
	SaveService(ctx context.Context, s *model.Service) error
	DeleteService(ctx context.Context, id string) error

	ListFAQs(ctx context.Context, activeOnly bool) ([]model.FAQ, error)
	SaveFAQ(ctx context.Context, f *model.FAQ) error
	DeleteFAQ(ctx context.Context, id string) error

	ListTestimonials(ctx context.Context, activeOnly bool) ([]model.Testimonial, error)
	SaveTestimonial(ctx context.Context, t *model.Testimonial) error
	DeleteTestimonial(ctx context.Context, id string) error

	MenuTree(ctx context.Context, activeOnly bool) ([]service.MenuNode, error)
	ListMenu(ctx context.Context, activeOnly bool) ([]model.MenuItem, error)
	SaveMenuItem(ctx context.Context, m *model.MenuItem) error
	DeleteMenuItem(ctx context.Context, id string) error
}

// CatalogHandler serves the public site content and its admin editor.
type CatalogHandler struct {
	catalog CatalogAPI
	log     *zap.Logger
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(catalog CatalogAPI, log *zap.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, log: log}
}

// Routes registers the public and admin catalog endpoints.
func (h *CatalogHandler) Routes(public, admin *mux.Router) {
	public.HandleFunc("/services", h.listServices(true)).Methods(http.MethodGet)
	public.HandleFunc("/services/{slug}", h.GetService).Methods(http.MethodGet)
	public.HandleFunc("/faqs", h.listFAQs(true)).Methods(http.MethodGet)
	public.HandleFunc("/testimonials", h.listTestimonials(true)).Methods(http.MethodGet)
	public.HandleFunc("/menus", h.MenuTree).Methods(http.MethodGet)

	admin.HandleFunc("/services", h.listServices(false)).Methods(http.MethodGet)
	admin.HandleFunc("/services", h.SaveService).Methods(http.MethodPost)
	admin.HandleFunc("/services/{id}", h.SaveService).Methods(http.MethodPut)
	admin.HandleFunc("/services/{id}", h.DeleteService).Methods(http.MethodDelete)

	admin.HandleFunc("/faqs", h.listFAQs(false)).Methods(http.MethodGet)
	admin.HandleFunc("/faqs", h.SaveFAQ).Methods(http.MethodPost)
	admin.HandleFunc("/faqs/{id}", h.SaveFAQ).Methods(http.MethodPut)
	admin.HandleFunc("/faqs/{id}", h.DeleteFAQ).Methods(http.MethodDelete)

	admin.HandleFunc("/testimonials", h.listTestimonials(false)).Methods(http.MethodGet)
	admin.HandleFunc("/testimonials", h.SaveTestimonial).Methods(http.MethodPost)
	admin.HandleFunc("/testimonials/{id}", h.SaveTestimonial).Methods(http.MethodPut)
	admin.HandleFunc("/testimonials/{id}", h.DeleteTestimonial).Methods(http.MethodDelete)

	admin.HandleFunc("/menus", h.ListMenu).Methods(http.MethodGet)
	admin.HandleFunc("/menus", h.SaveMenuItem).Methods(http.MethodPost)
	admin.HandleFunc("/menus/{id}", h.SaveMenuItem).Methods(http.MethodPut)
	admin.HandleFunc("/menus/{id}", h.DeleteMenuItem).Methods(http.MethodDelete)
}

// savedStatus is 201 for a POST and 200 for a PUT.
func savedStatus(r *http.Request) int {
	if r.Method == http.MethodPost {
		return http.StatusCreated
	}
	return http.StatusOK
}

// ─── Services ───────────────────────────────────────────────

func (h *CatalogHandler) listServices(activeOnly bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := h.catalog.ListServices(r.Context(), activeOnly)
		if err != nil {
			writeServiceError(w, h.log, "Service", err)
			return
		}
		writeJSON(w, http.StatusOK, items)
	}
}

// GetService handles GET /api/v1/services/{slug}
func (h *CatalogHandler) GetService(w http.ResponseWriter, r *http.Request) {
	s, err := h.catalog.GetService(r.Context(), mux.Vars(r)["slug"])
	if err == nil && !s.IsActive {
		writeError(w, http.StatusNotFound, "not_found", "Service not found.")
		return
	}
	if err != nil {
		writeServiceError(w, h.log, "Service", err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// SaveService handles POST /api/v1/admin/services and PUT /api/v1/admin/services/{id}
func (h *CatalogHandler) SaveService(w http.ResponseWriter, r *http.Request) {
	var req serviceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s := req.toModel(mux.Vars(r)["id"])
	if err := h.catalog.SaveService(r.Context(), s); err != nil {
		writeServiceError(w, h.log, "Service", err)
		return
	}
	writeJSON(w, savedStatus(r), s)
}

// DeleteService handles DELETE /api/v1/admin/services/{id}
func (h *CatalogHandler) DeleteService(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteService(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, h.log, "Service", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─── FAQs ───────────────────────────────────────────────────

func (h *CatalogHandler) listFAQs(activeOnly bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := h.catalog.ListFAQs(r.Context(), activeOnly)
		if err != nil {
			writeServiceError(w, h.log, "FAQ", err)
			return
		}
		writeJSON(w, http.StatusOK, items)
	}
}

func (h *CatalogHandler) SaveFAQ(w http.ResponseWriter, r *http.Request) {
	var req faqRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	f := req.toModel(mux.Vars(r)["id"])
	if err := h.catalog.SaveFAQ(r.Context(), f); err != nil {
		writeServiceError(w, h.log, "FAQ", err)
		return
	}
	writeJSON(w, savedStatus(r), f)
}

func (h *CatalogHandler) DeleteFAQ(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteFAQ(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, h.log, "FAQ", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─── Testimonials ───────────────────────────────────────────

func (h *CatalogHandler) listTestimonials(activeOnly bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := h.catalog.ListTestimonials(r.Context(), activeOnly)
		if err != nil {
			writeServiceError(w, h.log, "Testimonial", err)
			return
		}
		writeJSON(w, http.StatusOK, items)
	}
}

func (h *CatalogHandler) SaveTestimonial(w http.ResponseWriter, r *http.Request) {
	var req testimonialRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	t := req.toModel(mux.Vars(r)["id"])
	if err := h.catalog.SaveTestimonial(r.Context(), t); err != nil {
		writeServiceError(w, h.log, "Testimonial", err)
		return
	}
	writeJSON(w, savedStatus(r), t)
}

func (h *CatalogHandler) DeleteTestimonial(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteTestimonial(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, h.log, "Testimonial", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─── Menu ───────────────────────────────────────────────────

// MenuTree handles GET /api/v1/menus
//
// Returns the active navigation as a two-level tree.
func (h *CatalogHandler) MenuTree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.catalog.MenuTree(r.Context(), true)
	if err != nil {
		writeServiceError(w, h.log, "Menu", err)
		return
	}
	writeJSON(w, http.StatusOK, tree)
}

// ListMenu handles GET /api/v1/admin/menus
//
// Returns every item flat, for editing.
func (h *CatalogHandler) ListMenu(w http.ResponseWriter, r *http.Request) {
	items, err := h.catalog.ListMenu(r.Context(), false)
	if err != nil {
		writeServiceError(w, h.log, "Menu", err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *CatalogHandler) SaveMenuItem(w http.ResponseWriter, r *http.Request) {
	var req menuItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	m := req.toModel(mux.Vars(r)["id"])
	if err := h.catalog.SaveMenuItem(r.Context(), m); err != nil {
		writeServiceError(w, h.log, "Menu item", err)
		return
	}
	writeJSON(w, savedStatus(r), m)
}

func (h *CatalogHandler) DeleteMenuItem(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteMenuItem(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, h.log, "Menu item", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
