package ports

import (
	"context"
	"errors"
	"route-coordinator-service/internal/domain"
)

// ErrAddressNotFound is returned by a Geocoder that found no match.
var ErrAddressNotFound = errors.New("address not found")

// Port: resolves a free-form address into a place.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (domain.Place, error)
}

// Persistent address -> coordinate store consulted before the geocoding API.
// Address keys are normalized by the caller.
type GeocodeCache interface {
	GetMany(ctx context.Context, addresses []string) (map[string]domain.Coordinates, error)
	PutMany(ctx context.Context, results map[string]domain.Coordinates) error
}
