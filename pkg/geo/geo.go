// Package geo provides geographic utility functions for the booking form.
//
// Distances use the Haversine formula on WGS-84 coordinates.
package geo

import (
	"math"

	"github.com/cusspwk/cuss/internal/model"
)

// ─── Constants ──────────────────────────────────────────────

const (
	// EarthRadiusKm is the mean radius of Earth in kilometers.
	EarthRadiusKm = 6371.0
)

// ─── Distance ───────────────────────────────────────────────

// HaversineKm returns the great-circle distance between two points in kilometers.
//
// Complexity: O(1)
func HaversineKm(a, b model.GeoPoint) float64 {
	dLat := degToRad(b.Lat - a.Lat)
	dLon := degToRad(b.Lng - a.Lng)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)

	h := sinLat*sinLat +
		math.Cos(degToRad(a.Lat))*math.Cos(degToRad(b.Lat))*sinLon*sinLon

	// Rounding can push h a hair outside [0, 1] for antipodal points.
	h = math.Min(1, math.Max(0, h))

	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Distance returns the distance between a and b in kilometers. ok is false
// when either point has no coordinates (the (0, 0) sentinel); callers must
// then treat the derived distance as empty.
func Distance(a, b model.GeoPoint) (km float64, ok bool) {
	if !a.HasCoordinates() || !b.HasCoordinates() {
		return 0, false
	}
	if !Valid(a) || !Valid(b) {
		return 0, false
	}
	return HaversineKm(a, b), true
}

// RoundKm rounds a distance to two decimals, the precision shown to customers.
func RoundKm(km float64) float64 {
	return math.Round(km*100) / 100
}

// Valid reports whether p lies within latitude [-90, 90] and longitude [-180, 180].
func Valid(p model.GeoPoint) bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// ─── Helpers ────────────────────────────────────────────────

func degToRad(deg float64) float64 {
	return deg * (math.Pi / 180.0)
}
