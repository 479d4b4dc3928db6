package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/cusspwk/cuss/internal/middleware"
	"github.com/cusspwk/cuss/internal/model"
	"github.com/cusspwk/cuss/internal/repository"
	"github.com/cusspwk/cuss/internal/service"
	"github.com/cusspwk/cuss/pkg/idgen"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// BookingAPI is the booking service as seen by the HTTP layer.
type BookingAPI interface {
	Submit(ctx context.Context, raw map[string]any, clientIP string) (*model.Transaction, error)
	List(ctx context.Context, f repository.TransactionFilter) ([]model.Transaction, int64, error)
	Get(ctx context.Context, id string) (*model.Transaction, error)
	Delete(ctx context.Context, id string) error
}

// TransactionHandler accepts booking submissions and lists them for admins.
type TransactionHandler struct {
	bookings BookingAPI
	log      *zap.Logger
}

// NewTransactionHandler creates a new transaction handler.
func NewTransactionHandler(bookings BookingAPI, log *zap.Logger) *TransactionHandler {
	return &TransactionHandler{bookings: bookings, log: log}
}

// Routes registers the transaction endpoints. submit wraps the public
// POST, typically with a rate limiter.
func (h *TransactionHandler) Routes(public, admin *mux.Router, submit func(http.Handler) http.Handler) {
	public.Handle("/transactions", submit(http.HandlerFunc(h.Create))).Methods(http.MethodPost)

	admin.HandleFunc("/transactions", h.List).Methods(http.MethodGet)
	admin.HandleFunc("/transactions/{id}", h.Get).Methods(http.MethodGet)
	admin.HandleFunc("/transactions/{id}", h.Delete).Methods(http.MethodDelete)
}

// Create handles POST /api/v1/transactions
//
// Stores one booking submitted by the wizard.
//
// Response codes:
//
//	201  Booking stored (returns the stored record)
//	400  Body unreadable or missing required keys
//	422  A value could not be read or a required field is empty
//	500  Store failure; the client keeps its state and may retry
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	raw, ok := decodeValues(w, r)
	if !ok {
		return
	}

	tx, err := h.bookings.Submit(r.Context(), raw, middleware.ClientIP(r))
	if err != nil {
		if errors.Is(err, service.ErrReferenceExhausted) {
			h.log.Error("booking reference allocation failed", zap.Error(err))
			writeError(w, http.StatusServiceUnavailable, "unavailable", "Booking could not be saved. Please try again.")
			return
		}
		writeServiceError(w, h.log, "Booking", err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

// transactionPage is the body returned by List.
type transactionPage struct {
	Items  []model.Transaction `json:"items"`
	Total  int64               `json:"total"`
	Limit  int64               `json:"limit"`
	Offset int64               `json:"offset"`
}

// List handles GET /api/v1/admin/transactions?service=&from=&to=&limit=&offset=
//
// from and to are RFC 3339 timestamps or YYYY-MM-DD dates; to is exclusive.
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := repository.TransactionFilter{
		Service: q.Get("service"),
		Limit:   defaultPageSize,
	}

	var err error
	if f.From, err = parseTimeParam(q.Get("from")); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_from", "from must be a date or RFC 3339 time.")
		return
	}
	if f.To, err = parseTimeParam(q.Get("to")); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_to", "to must be a date or RFC 3339 time.")
		return
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 1 || n > maxPageSize {
			writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be between 1 and 100.")
			return
		}
		f.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid_offset", "offset must be a non-negative integer.")
			return
		}
		f.Offset = n
	}

	items, total, err := h.bookings.List(r.Context(), f)
	if err != nil {
		writeServiceError(w, h.log, "Booking", err)
		return
	}
	if items == nil {
		items = []model.Transaction{}
	}
	writeJSON(w, http.StatusOK, transactionPage{Items: items, Total: total, Limit: f.Limit, Offset: f.Offset})
}

func parseTimeParam(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, v)
}

// Get handles GET /api/v1/admin/transactions/{id}
func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !idgen.IsBookingRef(id) {
		writeError(w, http.StatusBadRequest, "invalid_id", "id must be a booking reference like CUSS-7KQ2MXHA.")
		return
	}
	tx, err := h.bookings.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.log, "Booking", err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

// Delete handles DELETE /api/v1/admin/transactions/{id}
func (h *TransactionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !idgen.IsBookingRef(id) {
		writeError(w, http.StatusBadRequest, "invalid_id", "id must be a booking reference like CUSS-7KQ2MXHA.")
		return
	}
	if err := h.bookings.Delete(r.Context(), id); err != nil {
		writeServiceError(w, h.log, "Booking", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
