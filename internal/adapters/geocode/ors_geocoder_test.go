package geocode

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"route-coordinator-service/internal/domain"
	"route-coordinator-service/internal/platform/httpx"
	"route-coordinator-service/internal/ports"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryCache struct {
	mu   sync.Mutex
	m    map[string]domain.Coordinates
	puts int
}

func (c *memoryCache) GetMany(_ context.Context, addresses []string) (map[string]domain.Coordinates, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := map[string]domain.Coordinates{}
	for _, a := range addresses {
		if v, ok := c.m[a]; ok {
			out[a] = v
		}
	}
	return out, nil
}

func (c *memoryCache) PutMany(_ context.Context, results map[string]domain.Coordinates) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.puts++
	for k, v := range results {
		c.m[k] = v
	}
	return nil
}

func newTestGeocoder(t *testing.T, cache *memoryCache, h http.HandlerFunc) *ORSGeocoder {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	var c ports.GeocodeCache
	if cache != nil {
		c = cache
	}
	g, err := NewORSGeocoder(ORSConfig{APIKey: "key", BaseURL: srv.URL, Country: "US"}, c, nil, httpx.WithRetry(2, time.Millisecond))
	require.NoError(t, err)
	return g
}

func TestGeocodeCacheFirst(t *testing.T) {
	cache := &memoryCache{m: map[string]domain.Coordinates{
		"1901 W Madison St, Phoenix, AZ": {Lat: 33.4484, Lon: -112.0740},
	}}

	var calls atomic.Int32
	g := newTestGeocoder(t, cache, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/geocode/search", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("Authorization"))
		assert.Equal(t, "US", r.URL.Query().Get("boundary.country"))
		assert.Equal(t, "100 Mill Ave, Tempe, AZ", r.URL.Query().Get("text"))
		fmt.Fprint(w, `{"features":[{"geometry":{"coordinates":[-111.94,33.4255]}}]}`)
	})

	ctx := context.Background()

	place, err := g.Geocode(ctx, "  1901 W Madison St,   Phoenix, AZ ")
	require.NoError(t, err)
	assert.Equal(t, domain.Coordinates{Lat: 33.4484, Lon: -112.0740}, place.Location.Position)
	assert.Equal(t, "1901 W Madison St, Phoenix, AZ", place.Location.Address)
	assert.Equal(t, int32(0), calls.Load())

	place, err = g.Geocode(ctx, "100 Mill Ave, Tempe, AZ")
	require.NoError(t, err)
	assert.Equal(t, domain.Coordinates{Lat: 33.4255, Lon: -111.94}, place.Location.Position)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 1, cache.puts)

	_, err = g.Geocode(ctx, "100 Mill Ave, Tempe, AZ")
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGeocodeNotFound(t *testing.T) {
	g := newTestGeocoder(t, nil, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"features":[]}`)
	})

	_, err := g.Geocode(context.Background(), "nowhere")
	assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)

	_, err = g.Geocode(context.Background(), "   ")
	assert.Error(t, err)
}

func TestGeocodeRejectsBadPayload(t *testing.T) {
	g := newTestGeocoder(t, nil, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"features":[{"geometry":{"coordinates":[200, 100]}}]}`)
	})

	_, err := g.Geocode(context.Background(), "somewhere")
	assert.Error(t, err)
}

func TestNewORSGeocoderRequiresKey(t *testing.T) {
	_, err := NewORSGeocoder(ORSConfig{}, nil, nil)
	assert.Error(t, err)
}
