package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/cusspwk/cuss/internal/model"
	"github.com/cusspwk/cuss/pkg/geo"
	"github.com/cusspwk/cuss/pkg/geocode"
)

// Geocoder resolves addresses and coordinates.
type Geocoder interface {
	Search(ctx context.Context, q string) ([]geocode.Candidate, error)
	Reverse(ctx context.Context, lat, lng float64) (string, error)
}

// GeocodeHandler proxies address search for the map picker so the browser
// never talks to the geocoder directly.
type GeocodeHandler struct {
	geo Geocoder
	log *zap.Logger
}

// NewGeocodeHandler creates a new geocode handler.
func NewGeocodeHandler(geo Geocoder, log *zap.Logger) *GeocodeHandler {
	return &GeocodeHandler{geo: geo, log: log}
}

// Routes registers the geocode endpoints behind wrap.
func (h *GeocodeHandler) Routes(public *mux.Router, wrap func(http.Handler) http.Handler) {
	public.Handle("/geocode/search", wrap(http.HandlerFunc(h.Search))).Methods(http.MethodGet)
	public.Handle("/geocode/reverse", wrap(http.HandlerFunc(h.Reverse))).Methods(http.MethodGet)
}

// Search handles GET /api/v1/geocode/search?q=
//
// An empty result is a 200 with an empty list.
func (h *GeocodeHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if len(q) < 3 {
		writeError(w, http.StatusBadRequest, "invalid_query", "q must be at least 3 characters.")
		return
	}
	results, err := h.geo.Search(r.Context(), q)
	if err != nil {
		h.writeUpstreamError(w, err)
		return
	}
	if results == nil {
		results = []geocode.Candidate{}
	}
	writeJSON(w, http.StatusOK, results)
}

// Reverse handles GET /api/v1/geocode/reverse?lat=&lng=
func (h *GeocodeHandler) Reverse(w http.ResponseWriter, r *http.Request) {
	lat, errLat := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lng, errLng := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	if errLat != nil || errLng != nil || !geo.Valid(model.GeoPoint{Lat: lat, Lng: lng}) {
		writeError(w, http.StatusBadRequest, "invalid_coordinates", "lat and lng must be valid coordinates.")
		return
	}
	address, err := h.geo.Reverse(r.Context(), lat, lng)
	if err != nil {
		h.writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"lat":     lat,
		"lng":     lng,
		"address": address,
	})
}

func (h *GeocodeHandler) writeUpstreamError(w http.ResponseWriter, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	h.log.Warn("geocoder request failed", zap.Error(err))
	writeError(w, http.StatusBadGateway, "geocoder_unavailable", "Address lookup is unavailable. Pick the point on the map instead.")
}
