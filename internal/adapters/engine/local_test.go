package engine

import (
	"context"
	"route-coordinator-service/internal/domain"
	"route-coordinator-service/internal/ports"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalEngineStraightLegs(t *testing.T) {
	eng := NewLocalEngine(nil, WithSpeed(domain.TransportCar, 10))

	a := domain.Coordinates{Lat: 0, Lon: 0}
	b := domain.Coordinates{Lat: 0, Lon: 0.01}
	c := domain.Coordinates{Lat: 0.01, Lon: 0.01}

	var progress []float32
	paths, err := eng.CalculatePaths(context.Background(), ports.EngineRequest{
		Waypoints:   []domain.Coordinates{a, b, c},
		Preferences: domain.DefaultPreferences(),
	}, func(p float32) { progress = append(progress, p) })
	require.NoError(t, err)

	assert.Equal(t, []float32{0, 0.5, 1}, progress)
	require.Len(t, paths, 1)
	require.Len(t, paths[0].Legs, 2)

	first := paths[0].Legs[0]
	assert.InDelta(t, 1113, float64(first.LengthMeters), 2)
	assert.InDelta(t, 111, float64(first.DurationSeconds), 1)
	assert.Equal(t, a, first.Start)
	assert.Equal(t, b, first.End)
	assert.Equal(t, domain.ActionNone, first.Maneuvers[0].Action)
	assert.InDelta(t, 90, first.Maneuvers[0].Bearing, 0.1)
	assert.Equal(t, domain.ActionEnd, first.Maneuvers[1].Action)

	// Heading east then north is a left turn.
	second := paths[0].Legs[1].Maneuvers[0]
	assert.Equal(t, domain.ActionJunction, second.Action)
	assert.Equal(t, domain.TurnQuiteLeft, second.Turn)
}

func TestLocalEngineHonorsCancellation(t *testing.T) {
	eng := NewLocalEngine(nil, WithLegDelay(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := eng.CalculatePaths(ctx, ports.EngineRequest{
		Waypoints:   []domain.Coordinates{{Lat: 1, Lon: 1}, {Lat: 2, Lon: 2}},
		Preferences: domain.DefaultPreferences(),
	}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTurnBetween(t *testing.T) {
	assert.Equal(t, domain.TurnNone, turnBetween(359, 3))
	assert.Equal(t, domain.TurnLightRight, turnBetween(0, 30))
	assert.Equal(t, domain.TurnQuiteRight, turnBetween(350, 80))
	assert.Equal(t, domain.TurnHeavyRight, turnBetween(0, 150))
	assert.Equal(t, domain.TurnHeavyLeft, turnBetween(0, 210))
	assert.Equal(t, domain.TurnReturn, turnBetween(90, 270))
}
