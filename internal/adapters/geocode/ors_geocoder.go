package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"route-coordinator-service/internal/domain"
	"route-coordinator-service/internal/platform/httpx"
	"route-coordinator-service/internal/platform/obs"
	"route-coordinator-service/internal/ports"
	"strings"
	"time"

	"go.uber.org/zap"
)

var ErrNotFound = ports.ErrAddressNotFound

type geocodeResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

type ORSConfig struct {
	APIKey  string
	BaseURL string
	// ISO country code restricting results; empty searches worldwide.
	Country string
	Timeout time.Duration
}

// ORSGeocoder implements ports.Geocoder using OpenRouteService
// (/geocode/search). Lookups go through the persistent cache first and only
// misses reach the API. Safe for concurrent use.
type ORSGeocoder struct {
	client  *httpx.Client
	baseURL string
	country string
	cache   ports.GeocodeCache
	log     *zap.Logger
}

func NewORSGeocoder(cfg ORSConfig, cache ports.GeocodeCache, log *zap.Logger, opts ...httpx.Option) (*ORSGeocoder, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("ORS api key is empty")
	}
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openrouteservice.org"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	opts = append([]httpx.Option{httpx.WithHeader("Authorization", cfg.APIKey)}, opts...)
	return &ORSGeocoder{
		client:  httpx.New(cfg.Timeout, log, opts...),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		country: cfg.Country,
		cache:   cache,
		log:     log.Named("geocoder"),
	}, nil
}

// normalize ensures consistent cache keys by collapsing whitespace.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Geocode resolves a single address into a place.
func (g *ORSGeocoder) Geocode(ctx context.Context, address string) (domain.Place, error) {
	norm := normalize(address)
	if norm == "" {
		return domain.Place{}, errors.New("geocode: address must be non-empty")
	}

	coords, err := g.GeocodeMany(ctx, []string{norm})
	if err != nil {
		return domain.Place{}, fmt.Errorf("geocode %q: %w", norm, err)
	}

	c, ok := coords[norm]
	if !ok {
		return domain.Place{}, fmt.Errorf("geocode %q: %w", norm, ErrNotFound)
	}

	return domain.Place{
		Name:     norm,
		Location: domain.PlaceLocation{Position: c, Address: norm},
	}, nil
}

// GeocodeMany resolves addresses, consulting the cache before the API.
// Keys of the result are the normalized addresses.
func (g *ORSGeocoder) GeocodeMany(
	ctx context.Context,
	addresses []string,
) (_ map[string]domain.Coordinates, err error) {
	defer obs.Time(ctx, g.log, "ors.GeocodeMany")(&err)

	seen := make(map[string]struct{}, len(addresses))
	needed := make([]string, 0, len(addresses))
	for _, a := range addresses {
		n := normalize(a)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		needed = append(needed, n)
	}

	hits := make(map[string]domain.Coordinates)
	if g.cache != nil && len(needed) > 0 {
		hits, err = g.cache.GetMany(ctx, needed)
		if err != nil {
			return nil, fmt.Errorf("ORS get geocode cache: %w", err)
		}
	}

	fresh := make(map[string]domain.Coordinates)
	for _, a := range needed {
		if _, ok := hits[a]; ok {
			continue
		}
		c, err := g.search(ctx, a)
		if err != nil {
			return nil, fmt.Errorf("retrieving coordinates: %w", err)
		}
		fresh[a] = c
	}

	if g.cache != nil && len(fresh) > 0 {
		if err := g.cache.PutMany(ctx, fresh); err != nil {
			g.log.Warn("geocode cache write failed", zap.Error(err))
		}
	}

	out := make(map[string]domain.Coordinates, len(hits)+len(fresh))
	for k, v := range hits {
		out[k] = v
	}
	for k, v := range fresh {
		out[k] = v
	}
	return out, nil
}

func (g *ORSGeocoder) search(ctx context.Context, address string) (domain.Coordinates, error) {
	endpoint := g.baseURL + "/geocode/search"

	resp, err := g.client.DoWithRetry(ctx, func() (*http.Request, error) {
		req, err := g.client.NewRequest(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		q := req.URL.Query()
		q.Set("text", address)
		q.Set("size", "1")
		if g.country != "" {
			q.Set("boundary.country", g.country)
		}
		req.URL.RawQuery = q.Encode()
		return req, nil
	})
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	var decoded geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.Coordinates{}, fmt.Errorf("decode geocode response: %w", err)
	}

	if len(decoded.Features) == 0 {
		return domain.Coordinates{}, fmt.Errorf("no geocode results for %q: %w", address, ErrNotFound)
	}

	coords := decoded.Features[0].Geometry.Coordinates
	if len(coords) != 2 {
		return domain.Coordinates{}, fmt.Errorf("invalid coordinate format for %q", address)
	}

	c := domain.Coordinates{Lon: coords[0], Lat: coords[1]}
	if !c.Valid() {
		return domain.Coordinates{}, fmt.Errorf("geocoder returned invalid coordinate %s for %q", c, address)
	}
	return c, nil
}
