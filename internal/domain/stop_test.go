package domain

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStopResolve(t *testing.T) {
	c := Coordinates{Lat: 48.8566, Lon: 2.3522}

	stops := []Stop{
		AtCoordinates(c),
		AtPlace(Place{ID: "p1", Name: "Louvre", Location: PlaceLocation{Position: c}}),
		AtPlaceLocation(PlaceLocation{Position: c, Address: "Rue de Rivoli"}),
		AtWaypoint(Waypoint{OriginalPosition: c, MappedPosition: Coordinates{Lat: 48.8567, Lon: 2.3523}}),
	}

	for _, s := range stops {
		t.Run(s.Kind().String(), func(t *testing.T) {
			got, err := s.Resolve()
			require.NoError(t, err)
			assert.Equal(t, c, got)
		})
	}
}

func TestStopResolveRejectsInvalid(t *testing.T) {
	for name, s := range map[string]Stop{
		"empty":        {},
		"latitude":     AtCoordinates(Coordinates{Lat: 91, Lon: 0}),
		"longitude":    AtPlaceLocation(PlaceLocation{Position: Coordinates{Lat: 0, Lon: -181}}),
		"not a number": AtCoordinates(Coordinates{Lat: math.NaN(), Lon: 0}),
		"infinite":     AtPlace(Place{Location: PlaceLocation{Position: Coordinates{Lat: 0, Lon: math.Inf(1)}}}),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := s.Resolve()
			assert.True(t, errors.Is(err, errUnresolvableStop), "got %v", err)
		})
	}
}

func TestPreferencesValidate(t *testing.T) {
	require.NoError(t, DefaultPreferences().Validate())

	dep := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	ok := RoutingPreferences{
		TransportMode: TransportPedestrian,
		RoutingType:   RoutingShortest,
		ResultCount:   MaxResultCount,
		DepartureTime: &dep,
		Options:       AvoidHighway | AvoidTollRoad,
	}
	require.NoError(t, ok.Validate())

	bad := []RoutingPreferences{
		{ResultCount: 0},
		{ResultCount: MaxResultCount + 1},
		{ResultCount: 1, TransportMode: TransportMode(42)},
		{ResultCount: 1, RoutingType: RoutingType(7)},
		{ResultCount: 1, Options: ViolatedTurnRestriction},
	}
	for _, p := range bad {
		assert.Error(t, p.Validate(), "%+v", p)
	}
}

func TestParsePreferenceNames(t *testing.T) {
	m, err := ParseTransportMode(" Public_Transport ")
	require.NoError(t, err)
	assert.Equal(t, TransportPublicTransport, m)

	rt, err := ParseRoutingType("balanced")
	require.NoError(t, err)
	assert.Equal(t, RoutingBalanced, rt)

	opt, err := ParseAvoidOption("toll_road")
	require.NoError(t, err)
	assert.Equal(t, AvoidTollRoad, opt)

	_, err = ParseAvoidOption("blocked_road")
	assert.Error(t, err)
	_, err = ParseTransportMode("hovercraft")
	assert.Error(t, err)

	assert.Equal(t, []string{"highway", "toll_road", "blocked_road"}, (AvoidHighway | AvoidTollRoad | ViolatedBlockedRoad).Names())
}
