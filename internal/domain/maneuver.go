package domain

import (
	"math"
	"slices"
	"time"
)

// ManeuverAction is what the traveler does at a maneuver.
type ManeuverAction int

const (
	ActionUndefined ManeuverAction = iota
	ActionNone
	ActionEnd
	ActionStopover
	ActionJunction
	ActionRoundabout
	ActionUTurn
	ActionEnterHighwayFromRight
	ActionEnterHighwayFromLeft
	ActionEnterHighway
	ActionLeaveHighway
	ActionChangeHighway
	ActionContinueHighway
	ActionFerry
	ActionPassJunction

	ActionInvalid ManeuverAction = -1
)

var actionNames = [...]string{
	"undefined", "none", "end", "stopover", "junction", "roundabout", "u_turn",
	"enter_highway_from_right", "enter_highway_from_left", "enter_highway",
	"leave_highway", "change_highway", "continue_highway", "ferry", "pass_junction",
}

func (a ManeuverAction) String() string {
	if a >= 0 && int(a) < len(actionNames) {
		return actionNames[a]
	}
	return "invalid"
}

// ManeuverTurn is the turn taken at a maneuver.
type ManeuverTurn int

const (
	TurnUndefined ManeuverTurn = iota
	TurnNone
	TurnKeepMiddle
	TurnKeepRight
	TurnLightRight
	TurnQuiteRight
	TurnHeavyRight
	TurnKeepLeft
	TurnLightLeft
	TurnQuiteLeft
	TurnHeavyLeft
	TurnReturn
	TurnRoundabout1
	TurnRoundabout2
	TurnRoundabout3
	TurnRoundabout4
	TurnRoundabout5
	TurnRoundabout6
	TurnRoundabout7
	TurnRoundabout8
	TurnRoundabout9
	TurnRoundabout10
	TurnRoundabout11
	TurnRoundabout12
)

var turnNames = [...]string{
	"undefined", "none", "keep_middle", "keep_right", "light_right", "quite_right",
	"heavy_right", "keep_left", "light_left", "quite_left", "heavy_left", "return",
	"roundabout_1", "roundabout_2", "roundabout_3", "roundabout_4", "roundabout_5",
	"roundabout_6", "roundabout_7", "roundabout_8", "roundabout_9", "roundabout_10",
	"roundabout_11", "roundabout_12",
}

func (t ManeuverTurn) String() string {
	if t >= 0 && int(t) < len(turnNames) {
		return turnNames[t]
	}
	return "undefined"
}

// RoundaboutTurn returns the turn for taking the given exit (1-12) of a roundabout.
// Exit counts outside that range are clamped.
func RoundaboutTurn(exit int) ManeuverTurn {
	exit = max(1, min(12, exit))
	return TurnRoundabout1 + ManeuverTurn(exit-1)
}

// RoundaboutExit returns the exit number of a roundabout turn, or 0.
func (t ManeuverTurn) RoundaboutExit() int {
	if t >= TurnRoundabout1 && t <= TurnRoundabout12 {
		return int(t-TurnRoundabout1) + 1
	}
	return 0
}

// TrafficDirection is the side of the road traffic keeps to. The zero value is
// right-hand traffic.
type TrafficDirection int

const (
	TrafficRight TrafficDirection = iota
	TrafficLeft
)

func (d TrafficDirection) String() string {
	if d == TrafficLeft {
		return "left"
	}
	return "right"
}

// Signpost carries the exit sign shown at a maneuver.
type Signpost struct {
	ExitNumber string
	ExitText   string
}

type RouteElementType int

const (
	RouteElementRoad RouteElementType = iota + 1
	RouteElementTransit
)

// RouteElement is an opaque road or path segment traversed by a maneuver.
type RouteElement struct {
	Type     RouteElementType
	RoadName string
	Geometry []Coordinates
}

// Maneuver is the action required to leave one segment of a route and enter
// the next. Distances are meters along the route.
//
// Road names and numbers are empty when the engine did not report them; they
// are never carried over from earlier maneuvers.
type Maneuver struct {
	Coordinates Coordinates
	Action      ManeuverAction
	Turn        ManeuverTurn
	Icon        ManeuverIcon
	Traffic     TrafficDirection

	DistanceFromStart            uint
	DistanceFromPreviousManeuver uint
	DistanceToNextManeuver       uint

	RoadName       string
	NextRoadName   string
	RoadNumber     string
	NextRoadNumber string

	// Set only when the request carried a departure time.
	StartTime *time.Time
	// Degrees clockwise from true north, 0-359.
	MapOrientation uint
	TransportMode  TransportMode
	Signpost       *Signpost
	RouteElements  []RouteElement
}

// clone returns a copy of m sharing no pointers or slices with it.
func (m Maneuver) clone() Maneuver {
	if m.StartTime != nil {
		t := *m.StartTime
		m.StartTime = &t
	}
	if m.Signpost != nil {
		sp := *m.Signpost
		m.Signpost = &sp
	}
	if m.RouteElements != nil {
		els := make([]RouteElement, len(m.RouteElements))
		for i, e := range m.RouteElements {
			e.Geometry = slices.Clone(e.Geometry)
			els[i] = e
		}
		m.RouteElements = els
	}
	return m
}

func cloneManeuvers(ms []Maneuver) []Maneuver {
	out := make([]Maneuver, len(ms))
	for i, m := range ms {
		out[i] = m.clone()
	}
	return out
}

// NormalizeOrientation folds any bearing in degrees into [0, 359].
func NormalizeOrientation(deg float64) uint {
	d := int(math.Round(deg)) % 360
	if d < 0 {
		d += 360
	}
	return uint(d)
}
