package domain

// ManeuverIcon is a simplified projection of the valid action/turn
// combinations, suitable for drawing direction arrows.
type ManeuverIcon int

const (
	IconUndefined ManeuverIcon = iota
	IconGoStraight
	IconUTurnRight
	IconUTurnLeft
	IconKeepRight
	IconLightRight
	IconQuiteRight
	IconHeavyRight
	IconKeepMiddle
	IconKeepLeft
	IconLightLeft
	IconQuiteLeft
	IconHeavyLeft
	IconEnterHighwayRightLane
	IconEnterHighwayLeftLane
	IconLeaveHighwayRightLane
	IconLeaveHighwayLeftLane
	IconHighwayKeepRight
	IconHighwayKeepLeft
	// Roundabout exits driven counter-clockwise (right-hand traffic).
	IconRoundabout1
	IconRoundabout2
	IconRoundabout3
	IconRoundabout4
	IconRoundabout5
	IconRoundabout6
	IconRoundabout7
	IconRoundabout8
	IconRoundabout9
	IconRoundabout10
	IconRoundabout11
	IconRoundabout12
	// Roundabout exits driven clockwise (left-hand traffic).
	IconRoundabout1LH
	IconRoundabout2LH
	IconRoundabout3LH
	IconRoundabout4LH
	IconRoundabout5LH
	IconRoundabout6LH
	IconRoundabout7LH
	IconRoundabout8LH
	IconRoundabout9LH
	IconRoundabout10LH
	IconRoundabout11LH
	IconRoundabout12LH
	IconStart
	IconEnd
	IconFerry
)

var iconNames = [...]string{
	"undefined", "go_straight", "u_turn_right", "u_turn_left", "keep_right",
	"light_right", "quite_right", "heavy_right", "keep_middle", "keep_left",
	"light_left", "quite_left", "heavy_left", "enter_highway_right_lane",
	"enter_highway_left_lane", "leave_highway_right_lane", "leave_highway_left_lane",
	"highway_keep_right", "highway_keep_left",
	"roundabout_1", "roundabout_2", "roundabout_3", "roundabout_4", "roundabout_5",
	"roundabout_6", "roundabout_7", "roundabout_8", "roundabout_9", "roundabout_10",
	"roundabout_11", "roundabout_12",
	"roundabout_1_lh", "roundabout_2_lh", "roundabout_3_lh", "roundabout_4_lh",
	"roundabout_5_lh", "roundabout_6_lh", "roundabout_7_lh", "roundabout_8_lh",
	"roundabout_9_lh", "roundabout_10_lh", "roundabout_11_lh", "roundabout_12_lh",
	"start", "end", "ferry",
}

func (i ManeuverIcon) String() string {
	if i >= 0 && int(i) < len(iconNames) {
		return iconNames[i]
	}
	return "undefined"
}

const (
	anyAction  ManeuverAction   = -2
	anyTurn    ManeuverTurn     = -1
	anyTraffic TrafficDirection = -1
)

type iconRule struct {
	action  ManeuverAction
	turn    ManeuverTurn
	traffic TrafficDirection
	icon    ManeuverIcon
}

func (r iconRule) matches(a ManeuverAction, t ManeuverTurn, d TrafficDirection) bool {
	return (r.action == anyAction || r.action == a) &&
		(r.turn == anyTurn || r.turn == t) &&
		(r.traffic == anyTraffic || r.traffic == d)
}

// iconRules is evaluated top to bottom; the first matching row wins.
var iconRules = []iconRule{
	{ActionUndefined, anyTurn, anyTraffic, IconUndefined},
	{ActionInvalid, anyTurn, anyTraffic, IconUndefined},

	{ActionEnd, anyTurn, anyTraffic, IconEnd},
	{ActionFerry, anyTurn, anyTraffic, IconFerry},

	// U-turns sweep across the oncoming lanes.
	{ActionUTurn, anyTurn, TrafficRight, IconUTurnLeft},
	{ActionUTurn, anyTurn, TrafficLeft, IconUTurnRight},

	{ActionEnterHighwayFromRight, anyTurn, anyTraffic, IconEnterHighwayRightLane},
	{ActionEnterHighwayFromLeft, anyTurn, anyTraffic, IconEnterHighwayLeftLane},
	{ActionEnterHighway, anyTurn, TrafficRight, IconEnterHighwayRightLane},
	{ActionEnterHighway, anyTurn, TrafficLeft, IconEnterHighwayLeftLane},

	{ActionLeaveHighway, TurnKeepLeft, anyTraffic, IconLeaveHighwayLeftLane},
	{ActionLeaveHighway, TurnLightLeft, anyTraffic, IconLeaveHighwayLeftLane},
	{ActionLeaveHighway, TurnQuiteLeft, anyTraffic, IconLeaveHighwayLeftLane},
	{ActionLeaveHighway, TurnHeavyLeft, anyTraffic, IconLeaveHighwayLeftLane},
	{ActionLeaveHighway, TurnKeepRight, anyTraffic, IconLeaveHighwayRightLane},
	{ActionLeaveHighway, TurnLightRight, anyTraffic, IconLeaveHighwayRightLane},
	{ActionLeaveHighway, TurnQuiteRight, anyTraffic, IconLeaveHighwayRightLane},
	{ActionLeaveHighway, TurnHeavyRight, anyTraffic, IconLeaveHighwayRightLane},
	{ActionLeaveHighway, anyTurn, TrafficRight, IconLeaveHighwayRightLane},
	{ActionLeaveHighway, anyTurn, TrafficLeft, IconLeaveHighwayLeftLane},

	{ActionChangeHighway, TurnKeepLeft, anyTraffic, IconHighwayKeepLeft},
	{ActionChangeHighway, TurnKeepRight, anyTraffic, IconHighwayKeepRight},
	{ActionContinueHighway, TurnKeepLeft, anyTraffic, IconHighwayKeepLeft},
	{ActionContinueHighway, TurnKeepRight, anyTraffic, IconHighwayKeepRight},

	{ActionRoundabout, TurnRoundabout1, TrafficRight, IconRoundabout1},
	{ActionRoundabout, TurnRoundabout2, TrafficRight, IconRoundabout2},
	{ActionRoundabout, TurnRoundabout3, TrafficRight, IconRoundabout3},
	{ActionRoundabout, TurnRoundabout4, TrafficRight, IconRoundabout4},
	{ActionRoundabout, TurnRoundabout5, TrafficRight, IconRoundabout5},
	{ActionRoundabout, TurnRoundabout6, TrafficRight, IconRoundabout6},
	{ActionRoundabout, TurnRoundabout7, TrafficRight, IconRoundabout7},
	{ActionRoundabout, TurnRoundabout8, TrafficRight, IconRoundabout8},
	{ActionRoundabout, TurnRoundabout9, TrafficRight, IconRoundabout9},
	{ActionRoundabout, TurnRoundabout10, TrafficRight, IconRoundabout10},
	{ActionRoundabout, TurnRoundabout11, TrafficRight, IconRoundabout11},
	{ActionRoundabout, TurnRoundabout12, TrafficRight, IconRoundabout12},
	{ActionRoundabout, TurnRoundabout1, TrafficLeft, IconRoundabout1LH},
	{ActionRoundabout, TurnRoundabout2, TrafficLeft, IconRoundabout2LH},
	{ActionRoundabout, TurnRoundabout3, TrafficLeft, IconRoundabout3LH},
	{ActionRoundabout, TurnRoundabout4, TrafficLeft, IconRoundabout4LH},
	{ActionRoundabout, TurnRoundabout5, TrafficLeft, IconRoundabout5LH},
	{ActionRoundabout, TurnRoundabout6, TrafficLeft, IconRoundabout6LH},
	{ActionRoundabout, TurnRoundabout7, TrafficLeft, IconRoundabout7LH},
	{ActionRoundabout, TurnRoundabout8, TrafficLeft, IconRoundabout8LH},
	{ActionRoundabout, TurnRoundabout9, TrafficLeft, IconRoundabout9LH},
	{ActionRoundabout, TurnRoundabout10, TrafficLeft, IconRoundabout10LH},
	{ActionRoundabout, TurnRoundabout11, TrafficLeft, IconRoundabout11LH},
	{ActionRoundabout, TurnRoundabout12, TrafficLeft, IconRoundabout12LH},

	{anyAction, TurnReturn, TrafficRight, IconUTurnLeft},
	{anyAction, TurnReturn, TrafficLeft, IconUTurnRight},
	{anyAction, TurnNone, anyTraffic, IconGoStraight},
	{anyAction, TurnKeepMiddle, anyTraffic, IconKeepMiddle},
	{anyAction, TurnKeepRight, anyTraffic, IconKeepRight},
	{anyAction, TurnLightRight, anyTraffic, IconLightRight},
	{anyAction, TurnQuiteRight, anyTraffic, IconQuiteRight},
	{anyAction, TurnHeavyRight, anyTraffic, IconHeavyRight},
	{anyAction, TurnKeepLeft, anyTraffic, IconKeepLeft},
	{anyAction, TurnLightLeft, anyTraffic, IconLightLeft},
	{anyAction, TurnQuiteLeft, anyTraffic, IconQuiteLeft},
	{anyAction, TurnHeavyLeft, anyTraffic, IconHeavyLeft},
}

// ProjectIcon maps an action, turn and traffic direction onto the simplified
// icon. Combinations no row covers (e.g. a roundabout exit outside a
// roundabout) project to IconUndefined.
func ProjectIcon(action ManeuverAction, turn ManeuverTurn, traffic TrafficDirection) ManeuverIcon {
	for _, r := range iconRules {
		if r.matches(action, turn, traffic) {
			return r.icon
		}
	}
	return IconUndefined
}
