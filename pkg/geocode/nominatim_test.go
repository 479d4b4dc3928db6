package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "stasiun purwakarta", r.URL.Query().Get("q"))
		assert.Equal(t, "id", r.URL.Query().Get("countrycodes"))
		assert.Equal(t, "cuss-test", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`[
			{"lat":"-6.5567","lon":"107.4439","display_name":"Stasiun Purwakarta"},
			{"lat":"bad","lon":"107.0","display_name":"broken"}
		]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "cuss-test", time.Second)
	got, err := c.Search(context.Background(), "  stasiun purwakarta ")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, Candidate{Lat: -6.5567, Lng: 107.4439, Address: "Stasiun Purwakarta"}, got[0])
}

func TestClient_SearchEmptyQuery(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "cuss-test", time.Second)
	got, err := c.Search(context.Background(), " ")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestClient_Reverse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		if r.URL.Query().Get("lat") == "0" {
			_, _ = w.Write([]byte(`{"error":"Unable to geocode"}`))
			return
		}
		_, _ = w.Write([]byte(`{"display_name":"Alun-alun Purwakarta"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "cuss-test", time.Second)

	addr, err := c.Reverse(context.Background(), -6.5605, 107.4472)
	require.NoError(t, err)
	assert.Equal(t, "Alun-alun Purwakarta", addr)

	addr, err = c.Reverse(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Empty(t, addr)
}

func TestClient_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "cuss-test", time.Second).Search(context.Background(), "x")
	assert.ErrorIs(t, err, ErrUpstream)
}
