package engine

import (
	"route-coordinator-service/internal/domain"
	"strings"
	"unicode"
)

type maneuverClass struct {
	action domain.ManeuverAction
	turn   domain.ManeuverTurn
}

// Valhalla maneuver types, see the "type" field of trip.legs[].maneuvers[].
const (
	valhallaRoundaboutEnter = 26
	valhallaTransitFirst    = 30
	valhallaTransitLast     = 36
)

var valhallaManeuverTypes = map[int]maneuverClass{
	0:  {domain.ActionNone, domain.TurnNone},
	1:  {domain.ActionNone, domain.TurnNone},
	2:  {domain.ActionNone, domain.TurnLightRight},
	3:  {domain.ActionNone, domain.TurnLightLeft},
	4:  {domain.ActionEnd, domain.TurnNone},
	5:  {domain.ActionEnd, domain.TurnLightRight},
	6:  {domain.ActionEnd, domain.TurnLightLeft},
	7:  {domain.ActionJunction, domain.TurnNone},
	8:  {domain.ActionPassJunction, domain.TurnNone},
	9:  {domain.ActionJunction, domain.TurnLightRight},
	10: {domain.ActionJunction, domain.TurnQuiteRight},
	11: {domain.ActionJunction, domain.TurnHeavyRight},
	12: {domain.ActionUTurn, domain.TurnReturn},
	13: {domain.ActionUTurn, domain.TurnReturn},
	14: {domain.ActionJunction, domain.TurnHeavyLeft},
	15: {domain.ActionJunction, domain.TurnQuiteLeft},
	16: {domain.ActionJunction, domain.TurnLightLeft},
	17: {domain.ActionEnterHighway, domain.TurnNone},
	18: {domain.ActionEnterHighwayFromRight, domain.TurnKeepRight},
	19: {domain.ActionEnterHighwayFromLeft, domain.TurnKeepLeft},
	20: {domain.ActionLeaveHighway, domain.TurnKeepRight},
	21: {domain.ActionLeaveHighway, domain.TurnKeepLeft},
	22: {domain.ActionContinueHighway, domain.TurnKeepMiddle},
	23: {domain.ActionContinueHighway, domain.TurnKeepRight},
	24: {domain.ActionContinueHighway, domain.TurnKeepLeft},
	25: {domain.ActionChangeHighway, domain.TurnNone},
	27: {domain.ActionJunction, domain.TurnNone},
	28: {domain.ActionFerry, domain.TurnNone},
	29: {domain.ActionJunction, domain.TurnNone},
	37: {domain.ActionChangeHighway, domain.TurnKeepRight},
	38: {domain.ActionChangeHighway, domain.TurnKeepLeft},
}

// classifyValhallaManeuver maps a Valhalla maneuver type onto action and turn.
// Unknown types map to ActionInvalid.
func classifyValhallaManeuver(typ, roundaboutExits int) maneuverClass {
	switch {
	case typ == valhallaRoundaboutEnter:
		return maneuverClass{domain.ActionRoundabout, domain.RoundaboutTurn(roundaboutExits)}
	case typ >= valhallaTransitFirst && typ <= valhallaTransitLast:
		return maneuverClass{domain.ActionNone, domain.TurnNone}
	}
	if c, ok := valhallaManeuverTypes[typ]; ok {
		return c
	}
	return maneuverClass{domain.ActionInvalid, domain.TurnUndefined}
}

func isTransitManeuver(typ int) bool {
	return typ >= valhallaTransitFirst && typ <= valhallaTransitLast
}

// travelMode maps Valhalla's travel_mode. Drive segments keep the requested
// motorized mode (car, truck or scooter).
func travelMode(mode string, requested domain.TransportMode) domain.TransportMode {
	switch mode {
	case "pedestrian":
		return domain.TransportPedestrian
	case "bicycle":
		return domain.TransportBike
	case "transit":
		return domain.TransportPublicTransport
	case "drive":
		switch requested {
		case domain.TransportTruck, domain.TransportScooter:
			return requested
		}
		return domain.TransportCar
	}
	return requested
}

// splitStreetNames separates road numbers ("A 100", "I-5", "US-101") from
// road names in a Valhalla street name list. The first of each kind wins.
func splitStreetNames(names []string) (name, number string) {
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if looksLikeRoadNumber(n) {
			if number == "" {
				number = n
			}
			continue
		}
		if name == "" {
			name = n
		}
	}
	return name, number
}

func looksLikeRoadNumber(s string) bool {
	if len(s) > 10 {
		return false
	}
	digits := 0
	for _, r := range s {
		switch {
		case unicode.IsDigit(r):
			digits++
		case unicode.IsUpper(r), r == ' ', r == '-', r == '.':
		default:
			return false
		}
	}
	return digits > 0
}
