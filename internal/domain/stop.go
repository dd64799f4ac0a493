package domain

import (
	"errors"
	"fmt"
)

// StopKind tags the variant held by a Stop.
type StopKind int

const (
	StopCoordinates StopKind = iota + 1
	StopPlace
	StopPlaceLocation
	StopWaypoint
)

func (k StopKind) String() string {
	switch k {
	case StopCoordinates:
		return "coordinates"
	case StopPlace:
		return "place"
	case StopPlaceLocation:
		return "place_location"
	case StopWaypoint:
		return "waypoint"
	default:
		return "unknown"
	}
}

// PlaceLocation is a resolved location of a place: a display position and,
// optionally, the address it was resolved from.
type PlaceLocation struct {
	Position Coordinates
	Address  string
}

// Place is a resolved place (search or geocoding result).
type Place struct {
	ID       string
	Name     string
	Location PlaceLocation
}

// Stop is a location to visit, supplied by the caller. Exactly one variant is
// set; build it with AtCoordinates, AtPlace, AtPlaceLocation or AtWaypoint.
type Stop struct {
	kind     StopKind
	coords   Coordinates
	place    Place
	location PlaceLocation
	waypoint Waypoint
}

func AtCoordinates(c Coordinates) Stop { return Stop{kind: StopCoordinates, coords: c} }

func AtPlace(p Place) Stop { return Stop{kind: StopPlace, place: p} }

func AtPlaceLocation(l PlaceLocation) Stop { return Stop{kind: StopPlaceLocation, location: l} }

// AtWaypoint reuses a waypoint of a previously calculated route as input.
func AtWaypoint(w Waypoint) Stop { return Stop{kind: StopWaypoint, waypoint: w} }

func (s Stop) Kind() StopKind { return s.kind }

var errUnresolvableStop = errors.New("stop has no usable coordinates")

// Resolve returns the coordinate the stop stands for.
// Waypoints resolve to their original position.
func (s Stop) Resolve() (Coordinates, error) {
	var c Coordinates
	switch s.kind {
	case StopCoordinates:
		c = s.coords
	case StopPlace:
		c = s.place.Location.Position
	case StopPlaceLocation:
		c = s.location.Position
	case StopWaypoint:
		c = s.waypoint.OriginalPosition
	default:
		return Coordinates{}, fmt.Errorf("resolve stop: %w: empty stop", errUnresolvableStop)
	}

	if !c.Valid() {
		return Coordinates{}, fmt.Errorf("resolve %s stop %s: %w", s.kind, c, errUnresolvableStop)
	}
	return c, nil
}
