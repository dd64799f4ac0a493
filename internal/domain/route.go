package domain

import (
	"errors"
	"fmt"
	"slices"

	"github.com/paulmach/orb"
)

// SublegWhole is the subleg index that stands for the whole route.
const SublegWhole = -1

// Subleg is the stretch of a route between two consecutive waypoints.
type Subleg struct {
	LengthMeters uint
	TTA          RouteTta
}

// RouteParts is the raw material a Route is built from.
type RouteParts struct {
	Waypoints []Waypoint
	Sublegs   []Subleg
	Maneuvers []Maneuver
	// Road geometry of the whole route in travel order. May be empty.
	Shape           orb.LineString
	Preferences     RoutingPreferences
	ViolatedOptions RouteOptions
}

var ErrInvalidRoute = errors.New("invalid route")

// Route is a computed path through two or more waypoints. Everything but
// UserTag is read-only; accessors return deep copies.
type Route struct {
	waypoints []Waypoint
	sublegs   []Subleg
	maneuvers []Maneuver
	tta       RouteTta
	length    uint
	bound     orb.Bound
	polyline  orb.LineString
	prefs     RoutingPreferences
	violated  RouteOptions

	// Free-form caller bookkeeping.
	UserTag string
}

// NewRoute checks the structural invariants of p and derives the whole-route
// length, TTA, bounding box and render polyline.
func NewRoute(p RouteParts) (*Route, error) {
	switch {
	case len(p.Waypoints) < 2:
		return nil, fmt.Errorf("new route: %w: %d waypoints", ErrInvalidRoute, len(p.Waypoints))
	case len(p.Sublegs) != len(p.Waypoints)-1:
		return nil, fmt.Errorf("new route: %w: %d sublegs for %d waypoints", ErrInvalidRoute, len(p.Sublegs), len(p.Waypoints))
	case len(p.Maneuvers) == 0:
		return nil, fmt.Errorf("new route: %w: no maneuvers", ErrInvalidRoute)
	case p.Maneuvers[len(p.Maneuvers)-1].Action != ActionEnd:
		return nil, fmt.Errorf("new route: %w: last maneuver is %s", ErrInvalidRoute, p.Maneuvers[len(p.Maneuvers)-1].Action)
	}
	for i := 1; i < len(p.Maneuvers); i++ {
		if p.Maneuvers[i].DistanceFromStart < p.Maneuvers[i-1].DistanceFromStart {
			return nil, fmt.Errorf("new route: %w: distance from start decreases at maneuver %d", ErrInvalidRoute, i)
		}
	}

	r := &Route{
		waypoints: slices.Clone(p.Waypoints),
		sublegs:   slices.Clone(p.Sublegs),
		maneuvers: cloneManeuvers(p.Maneuvers),
		prefs:     p.Preferences.clone(),
		violated:  p.ViolatedOptions,
	}

	ttas := make([]RouteTta, len(r.sublegs))
	for i, s := range r.sublegs {
		r.length += s.LengthMeters
		ttas[i] = s.TTA
	}
	r.tta = CombineTta(ttas...)

	if len(p.Shape) > 0 {
		r.polyline = slices.Clone(p.Shape)
	} else {
		r.polyline = make(orb.LineString, 0, len(r.maneuvers))
		for _, m := range r.maneuvers {
			r.polyline = append(r.polyline, m.Coordinates.Point())
		}
	}

	first := r.maneuvers[0].Coordinates.Point()
	r.bound = orb.Bound{Min: first, Max: first}
	for _, m := range r.maneuvers {
		r.bound = r.bound.Extend(m.Coordinates.Point())
	}
	for _, w := range r.waypoints {
		r.bound = r.bound.Extend(w.OriginalPosition.Point())
		r.bound = r.bound.Extend(w.MappedPosition.Point())
	}
	if len(p.Shape) > 0 {
		r.bound = r.bound.Union(p.Shape.Bound())
	}
	return r, nil
}

func (r *Route) Start() Waypoint { return r.waypoints[0] }

func (r *Route) Destination() Waypoint { return r.waypoints[len(r.waypoints)-1] }

func (r *Route) Waypoints() []Waypoint { return slices.Clone(r.waypoints) }

// Length is the route length in meters: the sum of its subleg lengths.
func (r *Route) Length() uint { return r.length }

func (r *Route) SublegCount() int { return len(r.sublegs) }

func (r *Route) TTA() RouteTta { return r.tta }

// TTAForSubleg returns the estimate for one subleg, or for the whole route
// when index is SublegWhole. ok is false for any other out-of-range index.
func (r *Route) TTAForSubleg(index int) (tta RouteTta, ok bool) {
	if index == SublegWhole {
		return r.tta, true
	}
	if index < 0 || index >= len(r.sublegs) {
		return RouteTta{}, false
	}
	return r.sublegs[index].TTA, true
}

// TTAForSublegs combines the estimates of sublegs [from, to).
func (r *Route) TTAForSublegs(from, to int) (RouteTta, bool) {
	if from < 0 || to > len(r.sublegs) || from >= to {
		return RouteTta{}, false
	}
	ttas := make([]RouteTta, 0, to-from)
	for _, s := range r.sublegs[from:to] {
		ttas = append(ttas, s.TTA)
	}
	return CombineTta(ttas...), true
}

// SublegLength returns the length in meters of one subleg.
func (r *Route) SublegLength(index int) (uint, bool) {
	if index == SublegWhole {
		return r.length, true
	}
	if index < 0 || index >= len(r.sublegs) {
		return 0, false
	}
	return r.sublegs[index].LengthMeters, true
}

// BoundingBox is the smallest box holding every maneuver, waypoint and shape point.
func (r *Route) BoundingBox() orb.Bound { return r.bound }

func (r *Route) Maneuvers() []Maneuver { return cloneManeuvers(r.maneuvers) }

// Polyline is the projection a map renderer draws.
func (r *Route) Polyline() orb.LineString { return slices.Clone(r.polyline) }

// RoutingMode returns the preferences the route was computed with.
func (r *Route) RoutingMode() RoutingPreferences { return r.prefs.clone() }

// ViolatedOptions holds the requested options the route had to break plus any
// blocked-road or turn-restriction violation bits.
func (r *Route) ViolatedOptions() RouteOptions { return r.violated }
