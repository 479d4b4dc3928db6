// Package geocode resolves free-text addresses to coordinates and back
// through a Nominatim-compatible API. The booking map picker uses it for
// its search box and to label dropped pins.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrUpstream is returned when the geocoder answers with a non-200 status.
var ErrUpstream = errors.New("geocoder returned an error")

// Candidate is one search hit.
type Candidate struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address"`
}

// Client talks to a Nominatim instance. Results are biased to Indonesia.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
}

// NewClient creates a geocoding client.
func NewClient(baseURL, userAgent string, timeout time.Duration) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		http:      &http.Client{Timeout: timeout},
	}
}

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Search returns up to five candidates for q. No hits is not an error.
func (c *Client) Search(ctx context.Context, q string) ([]Candidate, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []Candidate{}, nil
	}
	params := url.Values{
		"q":            {q},
		"format":       {"jsonv2"},
		"limit":        {"5"},
		"countrycodes": {"id"},
	}

	var places []nominatimPlace
	if err := c.get(ctx, "/search", params, &places); err != nil {
		return nil, err
	}

	out := make([]Candidate, 0, len(places))
	for _, p := range places {
		lat, errLat := strconv.ParseFloat(p.Lat, 64)
		lng, errLng := strconv.ParseFloat(p.Lon, 64)
		if errLat != nil || errLng != nil {
			continue
		}
		out = append(out, Candidate{Lat: lat, Lng: lng, Address: p.DisplayName})
	}
	return out, nil
}

// Reverse returns the display address at lat/lng, or "" when the
// geocoder knows nothing there.
func (c *Client) Reverse(ctx context.Context, lat, lng float64) (string, error) {
	params := url.Values{
		"lat":    {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon":    {strconv.FormatFloat(lng, 'f', -1, 64)},
		"format": {"jsonv2"},
	}

	var place struct {
		DisplayName string `json:"display_name"`
		Error       string `json:"error"`
	}
	if err := c.get(ctx, "/reverse", params, &place); err != nil {
		return "", err
	}
	return place.DisplayName, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("geocode: build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept-Language", "id,en")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("geocode: %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("geocode: %s: %w (status %d)", path, ErrUpstream, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("geocode: decode %s: %w", path, err)
	}
	return nil
}
