package domain

import (
	"fmt"
	"strings"
	"time"
)

// TransportMode is the means of travel a route or a maneuver is computed for.
type TransportMode int

const (
	TransportCar TransportMode = iota
	TransportPedestrian
	TransportPublicTransport
	TransportTruck
	TransportBike
	TransportScooter
)

var transportModeNames = map[TransportMode]string{
	TransportCar:             "car",
	TransportPedestrian:      "pedestrian",
	TransportPublicTransport: "public_transport",
	TransportTruck:           "truck",
	TransportBike:            "bike",
	TransportScooter:         "scooter",
}

func (m TransportMode) String() string {
	if s, ok := transportModeNames[m]; ok {
		return s
	}
	return "unknown"
}

// ParseTransportMode converts a name such as "car" into a TransportMode.
func ParseTransportMode(s string) (TransportMode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for m, name := range transportModeNames {
		if name == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("invalid transport mode: %q", s)
}

// RoutingType is the optimization criterion.
type RoutingType int

const (
	RoutingFastest RoutingType = iota
	RoutingShortest
	RoutingBalanced
)

var routingTypeNames = map[RoutingType]string{
	RoutingFastest:  "fastest",
	RoutingShortest: "shortest",
	RoutingBalanced: "balanced",
}

func (t RoutingType) String() string {
	if s, ok := routingTypeNames[t]; ok {
		return s
	}
	return "unknown"
}

func ParseRoutingType(s string) (RoutingType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for t, name := range routingTypeNames {
		if name == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("invalid routing type: %q", s)
}

// RouteOptions is a bitmask combining road-class avoid options requested by the
// caller and violation bits reported for a computed route.
type RouteOptions uint32

const (
	AvoidBoatFerry       RouteOptions = 1 << 0
	AvoidDirtRoad        RouteOptions = 1 << 1
	AvoidHighway         RouteOptions = 1 << 2
	AvoidPark            RouteOptions = 1 << 3
	AvoidTollRoad        RouteOptions = 1 << 4
	AvoidTunnel          RouteOptions = 1 << 5
	AvoidCarShuttleTrain RouteOptions = 1 << 6
	AvoidCarpool         RouteOptions = 1 << 7

	// The route passes through a blocked road (e.g. due to construction).
	ViolatedBlockedRoad RouteOptions = 1 << 8
	// The route passes through a road with a time-based turn restriction.
	ViolatedTurnRestriction RouteOptions = 1 << 9

	RouteOptionsNone RouteOptions = 0
)

var routeOptionNames = []struct {
	opt  RouteOptions
	name string
}{
	{AvoidBoatFerry, "boat_ferry"},
	{AvoidDirtRoad, "dirt_road"},
	{AvoidHighway, "highway"},
	{AvoidPark, "park"},
	{AvoidTollRoad, "toll_road"},
	{AvoidTunnel, "tunnel"},
	{AvoidCarShuttleTrain, "car_shuttle_train"},
	{AvoidCarpool, "carpool"},
	{ViolatedBlockedRoad, "blocked_road"},
	{ViolatedTurnRestriction, "turn_restriction"},
}

// Has reports whether every bit of o is set.
func (r RouteOptions) Has(o RouteOptions) bool { return r&o == o }

// Names lists the set bits in declaration order.
func (r RouteOptions) Names() []string {
	out := make([]string, 0, 4)
	for _, n := range routeOptionNames {
		if r&n.opt != 0 {
			out = append(out, n.name)
		}
	}
	return out
}

// ParseAvoidOption converts an avoid option name into its bit.
func ParseAvoidOption(s string) (RouteOptions, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, n := range routeOptionNames {
		if n.name == s && n.opt < ViolatedBlockedRoad {
			return n.opt, nil
		}
	}
	return 0, fmt.Errorf("invalid avoid option: %q", s)
}

const (
	DefaultResultCount = 1
	MaxResultCount     = 10
)

// RoutingPreferences configures a calculation. The coordinator reads only
// ResultCount and TransportMode; everything else is forwarded to the engine.
type RoutingPreferences struct {
	TransportMode TransportMode
	RoutingType   RoutingType
	ResultCount   int
	DepartureTime *time.Time
	Options       RouteOptions
}

// DefaultPreferences: fastest car route, one result, no departure time, no avoid options.
func DefaultPreferences() RoutingPreferences {
	return RoutingPreferences{
		TransportMode: TransportCar,
		RoutingType:   RoutingFastest,
		ResultCount:   DefaultResultCount,
	}
}

// clone returns a copy of p that does not share the departure time.
func (p RoutingPreferences) clone() RoutingPreferences {
	if p.DepartureTime != nil {
		t := *p.DepartureTime
		p.DepartureTime = &t
	}
	return p
}

func (p RoutingPreferences) Validate() error {
	if _, ok := transportModeNames[p.TransportMode]; !ok {
		return fmt.Errorf("validate preferences: unknown transport mode %d", p.TransportMode)
	}
	if _, ok := routingTypeNames[p.RoutingType]; !ok {
		return fmt.Errorf("validate preferences: unknown routing type %d", p.RoutingType)
	}
	if p.ResultCount < 1 || p.ResultCount > MaxResultCount {
		return fmt.Errorf("validate preferences: result count must be between 1 and %d, got %d", MaxResultCount, p.ResultCount)
	}
	if p.Options >= ViolatedBlockedRoad {
		return fmt.Errorf("validate preferences: options %#x contain violation bits", uint32(p.Options))
	}
	return nil
}
