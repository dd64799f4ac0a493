package domain

import "time"

// DurationDetail flags the quality of a TTA estimate. Zero means accurate.
type DurationDetail uint32

const (
	DetailAccurate       DurationDetail = 0
	DetailBlockedRoad    DurationDetail = 1 << 0
	DetailCarPool        DurationDetail = 1 << 1
	DetailRestrictedTurn DurationDetail = 1 << 2
)

// Names lists the set detail flags; an accurate estimate has none.
func (d DurationDetail) Names() []string {
	var out []string
	if d&DetailBlockedRoad != 0 {
		out = append(out, "blocked_road")
	}
	if d&DetailCarPool != 0 {
		out = append(out, "car_pool")
	}
	if d&DetailRestrictedTurn != 0 {
		out = append(out, "restricted_turn")
	}
	return out
}

// TTAUnavailable marks a duration the engine could not estimate.
const TTAUnavailable = -1

// RouteTta is a time-to-arrival estimate for a route or a range of sublegs.
type RouteTta struct {
	DurationSeconds int
	Details         DurationDetail
}

// Blocked reports whether the estimate runs through a blocked road.
func (t RouteTta) Blocked() bool { return t.Details&DetailBlockedRoad != 0 }

func (t RouteTta) Available() bool { return t.DurationSeconds >= 0 }

// Duration returns the estimate as a time.Duration, or false when unavailable.
func (t RouteTta) Duration() (time.Duration, bool) {
	if !t.Available() {
		return 0, false
	}
	return time.Duration(t.DurationSeconds) * time.Second, true
}

// CombineTta sums the durations of consecutive estimates and ORs their detail
// bits. The result is unavailable if any input is. No inputs yields zero.
func CombineTta(ttas ...RouteTta) RouteTta {
	var out RouteTta
	for _, t := range ttas {
		out.Details |= t.Details
		if !t.Available() {
			out.DurationSeconds = TTAUnavailable
			continue
		}
		if out.DurationSeconds != TTAUnavailable {
			out.DurationSeconds += t.DurationSeconds
		}
	}
	return out
}
