package engine

import (
	"context"
	"math"
	"route-coordinator-service/internal/domain"
	"route-coordinator-service/internal/platform/obs"
	"route-coordinator-service/internal/ports"
	"time"

	"github.com/paulmach/orb/geo"
	"go.uber.org/zap"
)

// Average speeds in meters per second used for straight-line estimates.
var defaultSpeeds = map[domain.TransportMode]float64{
	domain.TransportCar:             13.9,
	domain.TransportPedestrian:      1.4,
	domain.TransportPublicTransport: 8.3,
	domain.TransportTruck:           11.1,
	domain.TransportBike:            4.2,
	domain.TransportScooter:         8.3,
}

// LocalEngine routes in straight great-circle lines between stops. It needs no
// network and is used for offline runs and tests.
type LocalEngine struct {
	speeds   map[domain.TransportMode]float64
	legDelay time.Duration
	log      *zap.Logger
}

type LocalOption func(*LocalEngine)

// WithLegDelay makes each leg take d of wall time, for exercising progress
// and cancellation.
func WithLegDelay(d time.Duration) LocalOption {
	return func(e *LocalEngine) { e.legDelay = d }
}

func WithSpeed(mode domain.TransportMode, metersPerSecond float64) LocalOption {
	return func(e *LocalEngine) {
		if metersPerSecond > 0 {
			e.speeds[mode] = metersPerSecond
		}
	}
}

func NewLocalEngine(log *zap.Logger, opts ...LocalOption) *LocalEngine {
	if log == nil {
		log = zap.NewNop()
	}
	e := &LocalEngine{
		speeds: make(map[domain.TransportMode]float64, len(defaultSpeeds)),
		log:    log.Named("local_engine"),
	}
	for m, s := range defaultSpeeds {
		e.speeds[m] = s
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *LocalEngine) CalculatePaths(
	ctx context.Context,
	req ports.EngineRequest,
	progress ports.ProgressFunc,
) (_ []ports.EnginePath, err error) {
	defer obs.Time(ctx, e.log, "local.CalculatePaths")(&err)

	n := len(req.Waypoints) - 1
	if n < 1 {
		return nil, &ports.EngineError{Code: domain.ErrorInvalidParameters, Message: "need at least two waypoints"}
	}

	speed := e.speeds[req.Preferences.TransportMode]
	if speed <= 0 {
		speed = defaultSpeeds[domain.TransportCar]
	}

	path := ports.EnginePath{Legs: make([]ports.EngineLeg, 0, n)}
	prevBearing := math.NaN()

	for i := 0; i < n; i++ {
		if progress != nil {
			progress(float32(i) / float32(n))
		}
		if err := e.wait(ctx); err != nil {
			return nil, err
		}

		a, b := req.Waypoints[i], req.Waypoints[i+1]
		meters := geo.Distance(a.Point(), b.Point())
		bearing := geo.Bearing(a.Point(), b.Point())
		seconds := meters / speed

		depart := ports.EngineManeuver{
			Coordinates:     a,
			Action:          domain.ActionNone,
			Turn:            domain.TurnNone,
			LengthMeters:    uint(math.Round(meters)),
			DurationSeconds: seconds,
			Bearing:         bearing,
			TransportMode:   req.Preferences.TransportMode,
			RouteElements: []domain.RouteElement{{
				Type:     domain.RouteElementRoad,
				Geometry: []domain.Coordinates{a, b},
			}},
		}
		if !math.IsNaN(prevBearing) {
			depart.Action = domain.ActionJunction
			depart.Turn = turnBetween(prevBearing, bearing)
		}
		arrive := ports.EngineManeuver{
			Coordinates:   b,
			Action:        domain.ActionEnd,
			Turn:          domain.TurnNone,
			Bearing:       bearing,
			TransportMode: req.Preferences.TransportMode,
		}

		path.Legs = append(path.Legs, ports.EngineLeg{
			Start:           a,
			End:             b,
			LengthMeters:    depart.LengthMeters,
			DurationSeconds: int(math.Round(seconds)),
			Maneuvers:       []ports.EngineManeuver{depart, arrive},
			Shape:           []domain.Coordinates{a, b},
		})
		prevBearing = bearing
	}

	if progress != nil {
		progress(1)
	}
	return []ports.EnginePath{path}, nil
}

func (e *LocalEngine) wait(ctx context.Context) error {
	if e.legDelay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(e.legDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// turnBetween grades the heading change from one bearing to the next.
func turnBetween(from, to float64) domain.ManeuverTurn {
	d := math.Mod(to-from+540, 360) - 180
	abs := math.Abs(d)
	switch {
	case abs < 10:
		return domain.TurnNone
	case abs > 170:
		return domain.TurnReturn
	case d > 0 && abs < 45:
		return domain.TurnLightRight
	case d > 0 && abs < 135:
		return domain.TurnQuiteRight
	case d > 0:
		return domain.TurnHeavyRight
	case abs < 45:
		return domain.TurnLightLeft
	case abs < 135:
		return domain.TurnQuiteLeft
	default:
		return domain.TurnHeavyLeft
	}
}
