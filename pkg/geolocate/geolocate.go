// Package geolocate resolves an approximate position for a booking that
// arrived without device coordinates. Lookups run in the background with a
// bounded timeout so a slow provider never delays a submission.
package geolocate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cusspwk/cuss/internal/model"
)

var (
	// ErrPrivateIP is returned for loopback and private addresses.
	ErrPrivateIP = errors.New("ip address is not publicly routable")

	// ErrNoFix is returned when the provider knows no position for the IP.
	ErrNoFix = errors.New("no position for ip address")
)

// Locator resolves an IP address to a position.
type Locator interface {
	Locate(ctx context.Context, ip string) (model.GeoPoint, error)
}

// ─── ipapi.co client ────────────────────────────────────────

// IPAPIClient queries ipapi.co and caches answers per IP.
type IPAPIClient struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	cache map[string]model.GeoPoint
}

// NewIPAPIClient creates a client for an ipapi.co-compatible endpoint.
func NewIPAPIClient(baseURL string) *IPAPIClient {
	return &IPAPIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		cache:   make(map[string]model.GeoPoint),
	}
}

type ipapiResponse struct {
	City      string  `json:"city"`
	Region    string  `json:"region"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Error     bool    `json:"error"`
	Reason    string  `json:"reason"`
}

// Locate implements Locator.
func (c *IPAPIClient) Locate(ctx context.Context, ip string) (model.GeoPoint, error) {
	if isPrivateIP(ip) {
		return model.GeoPoint{}, fmt.Errorf("%w: %s", ErrPrivateIP, ip)
	}

	c.mu.RLock()
	p, ok := c.cache[ip]
	c.mu.RUnlock()
	if ok {
		return p, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/%s/json/", c.baseURL, ip), nil)
	if err != nil {
		return model.GeoPoint{}, fmt.Errorf("geolocate: build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return model.GeoPoint{}, fmt.Errorf("geolocate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.GeoPoint{}, fmt.Errorf("geolocate: status %d", resp.StatusCode)
	}
	var body ipapiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return model.GeoPoint{}, fmt.Errorf("geolocate: decode: %w", err)
	}
	if body.Error {
		return model.GeoPoint{}, fmt.Errorf("%w: %s", ErrNoFix, body.Reason)
	}

	p = model.GeoPoint{Lat: body.Latitude, Lng: body.Longitude, Address: joinNonEmpty(body.City, body.Region)}
	if !p.HasCoordinates() {
		return model.GeoPoint{}, ErrNoFix
	}

	c.mu.Lock()
	c.cache[ip] = p
	c.mu.Unlock()
	return p, nil
}

func joinNonEmpty(parts ...string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ", ")
}

func isPrivateIP(ip string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return true
	}
	return parsed.IsPrivate() || parsed.IsLoopback() || parsed.IsUnspecified() || parsed.IsLinkLocalUnicast()
}

// ─── Background lookup ──────────────────────────────────────

// Pending is an in-flight lookup started by Start.
type Pending struct {
	done  chan struct{}
	point model.GeoPoint
	err   error
}

// Start begins a lookup for ip that gives up after timeout or when ctx is
// cancelled. It never blocks.
func Start(ctx context.Context, loc Locator, ip string, timeout time.Duration) *Pending {
	p := &Pending{done: make(chan struct{})}
	go func() {
		defer close(p.done)

		lookupCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		type result struct {
			point model.GeoPoint
			err   error
		}
		ch := make(chan result, 1)
		go func() {
			pt, err := loc.Locate(lookupCtx, ip)
			ch <- result{pt, err}
		}()

		select {
		case r := <-ch:
			if err := lookupCtx.Err(); err != nil {
				p.err = err
				return
			}
			p.point, p.err = r.point, r.err
		case <-lookupCtx.Done():
			// A late answer lands in the buffered channel and is dropped.
			p.err = lookupCtx.Err()
		}
	}()
	return p
}

// Result waits for the lookup to finish and returns the position, or an
// unset point and the reason when none was found in time.
func (p *Pending) Result() (model.GeoPoint, error) {
	<-p.done
	if p.err != nil {
		return model.GeoPoint{}, p.err
	}
	return p.point, nil
}
