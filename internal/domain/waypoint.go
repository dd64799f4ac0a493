package domain

// Waypoint is a stop of a calculated route.
// OriginalPosition is the coordinate passed into the request, MappedPosition is
// the coordinate the engine snapped onto the road network (map matching).
type Waypoint struct {
	OriginalPosition Coordinates
	MappedPosition   Coordinates
}

// NewWaypoint builds a waypoint for a stop that has not been map matched:
// both positions are the input coordinate.
func NewWaypoint(c Coordinates) Waypoint {
	return Waypoint{OriginalPosition: c, MappedPosition: c}
}
