package ports

import (
	"context"
	"fmt"
	"route-coordinator-service/internal/domain"
)

// What the coordinator hands to a routing engine: resolved stop coordinates
// in visiting order plus the caller's preferences.
type EngineRequest struct {
	Waypoints   []domain.Coordinates
	Preferences domain.RoutingPreferences
}

// One maneuver as reported by the engine. Distances and durations cover the
// stretch from this maneuver to the next one.
type EngineManeuver struct {
	Coordinates     domain.Coordinates
	Action          domain.ManeuverAction
	Turn            domain.ManeuverTurn
	Traffic         domain.TrafficDirection
	LengthMeters    uint
	DurationSeconds float64

	RoadName       string
	RoadNumber     string
	NextRoadName   string
	NextRoadNumber string

	// Degrees clockwise from north after the maneuver; any range.
	Bearing       float64
	TransportMode domain.TransportMode
	Signpost      *domain.Signpost
	RouteElements []domain.RouteElement
}

// A stop-to-stop leg of an engine path.
type EngineLeg struct {
	// Road-snapped positions of the leg's departure and arrival stops.
	Start domain.Coordinates
	End   domain.Coordinates

	LengthMeters    uint
	DurationSeconds int // -1 when the engine has no estimate
	Details         domain.DurationDetail
	Maneuvers       []EngineManeuver
	Shape           []domain.Coordinates
}

// One alternative computed by the engine, best first.
type EnginePath struct {
	Legs []EngineLeg
	// Options the path had to violate, including blocked-road and
	// turn-restriction bits.
	Violations domain.RouteOptions
}

// ProgressFunc receives completion estimates in [0,1]. Values may drop back
// toward 0 when the engine restarts a calculation.
type ProgressFunc func(progress float32)

// Port: computes paths through an ordered list of coordinates.
type RoutingEngine interface {
	// Honors ctx cancellation; progress may be nil.
	CalculatePaths(ctx context.Context, req EngineRequest, progress ProgressFunc) ([]EnginePath, error)
}

// EngineError is a failure the engine was able to classify.
type EngineError struct {
	Code    domain.RoutingError
	Message string
	Err     error
}

func (e *EngineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("routing engine: %s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("routing engine: %s: %s", e.Code, e.Message)
}

func (e *EngineError) Unwrap() error { return e.Err }
