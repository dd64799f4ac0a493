package services

import (
	"errors"
	"fmt"
	"route-coordinator-service/internal/domain"
	"route-coordinator-service/internal/ports"
	"time"

	"github.com/paulmach/orb"
)

var errCorruptPath = errors.New("engine path does not match the request")

func corrupted(format string, args ...any) error {
	return &ports.EngineError{
		Code:    domain.ErrorRouteCorrupted,
		Message: fmt.Sprintf(format, args...),
		Err:     errCorruptPath,
	}
}

// AssembleRoute turns one engine path into a Route for the given resolved
// stops: one waypoint per stop, one subleg per leg, and a single maneuver
// sequence whose distances and icons are re-derived across leg boundaries.
func AssembleRoute(
	stops []domain.Coordinates,
	prefs domain.RoutingPreferences,
	path ports.EnginePath,
) (*domain.Route, error) {
	if len(stops) < MinStops {
		return nil, corrupted("assemble route: %d stops", len(stops))
	}
	if len(path.Legs) != len(stops)-1 {
		return nil, corrupted("assemble route: %d legs for %d stops", len(path.Legs), len(stops))
	}

	waypoints := make([]domain.Waypoint, len(stops))
	for i, c := range stops {
		mapped := c
		switch {
		case i < len(path.Legs) && path.Legs[i].Start.Valid() && path.Legs[i].Start != (domain.Coordinates{}):
			mapped = path.Legs[i].Start
		case i == len(path.Legs) && path.Legs[i-1].End.Valid() && path.Legs[i-1].End != (domain.Coordinates{}):
			mapped = path.Legs[i-1].End
		}
		waypoints[i] = domain.Waypoint{OriginalPosition: c, MappedPosition: mapped}
	}

	var (
		maneuvers []domain.Maneuver
		sublegs   = make([]domain.Subleg, 0, len(path.Legs))
		shape     orb.LineString
		dist      uint
		elapsed   float64
	)

	for li, leg := range path.Legs {
		if len(leg.Maneuvers) == 0 {
			return nil, corrupted("assemble route: leg %d has no maneuvers", li)
		}

		var legLength uint
		for mi, em := range leg.Maneuvers {
			m := domain.Maneuver{
				Coordinates:       em.Coordinates,
				Action:            em.Action,
				Turn:              em.Turn,
				Traffic:           em.Traffic,
				DistanceFromStart: dist,
				RoadName:          em.RoadName,
				NextRoadName:      em.NextRoadName,
				RoadNumber:        em.RoadNumber,
				NextRoadNumber:    em.NextRoadNumber,
				MapOrientation:    domain.NormalizeOrientation(em.Bearing),
				TransportMode:     em.TransportMode,
				RouteElements:     em.RouteElements,
			}
			if em.Signpost != nil {
				sp := *em.Signpost
				m.Signpost = &sp
			}
			if prefs.DepartureTime != nil {
				at := prefs.DepartureTime.Add(time.Duration(elapsed * float64(time.Second)))
				m.StartTime = &at
			}

			if mi == len(leg.Maneuvers)-1 {
				if li == len(path.Legs)-1 {
					m.Action = domain.ActionEnd
				} else {
					m.Action = domain.ActionStopover
				}
			}

			maneuvers = append(maneuvers, m)
			dist += em.LengthMeters
			legLength += em.LengthMeters
			elapsed += max(em.DurationSeconds, 0)
		}

		// Engines that only report leg totals leave maneuver lengths at zero.
		if legLength == 0 && leg.LengthMeters > 0 {
			legLength = leg.LengthMeters
			dist += legLength
			maneuvers[len(maneuvers)-1].DistanceFromStart = dist
		}

		sublegs = append(sublegs, domain.Subleg{
			LengthMeters: legLength,
			TTA:          domain.RouteTta{DurationSeconds: leg.DurationSeconds, Details: leg.Details},
		})

		for _, c := range leg.Shape {
			p := c.Point()
			if n := len(shape); n > 0 && shape[n-1] == p {
				continue
			}
			shape = append(shape, p)
		}
	}

	for i := range maneuvers {
		if i > 0 {
			maneuvers[i].DistanceFromPreviousManeuver = maneuvers[i].DistanceFromStart - maneuvers[i-1].DistanceFromStart
			maneuvers[i-1].DistanceToNextManeuver = maneuvers[i].DistanceFromPreviousManeuver
		}
		maneuvers[i].Icon = domain.ProjectIcon(maneuvers[i].Action, maneuvers[i].Turn, maneuvers[i].Traffic)
	}
	if maneuvers[0].Action == domain.ActionNone {
		maneuvers[0].Icon = domain.IconStart
	}

	route, err := domain.NewRoute(domain.RouteParts{
		Waypoints:       waypoints,
		Sublegs:         sublegs,
		Maneuvers:       maneuvers,
		Shape:           shape,
		Preferences:     prefs,
		ViolatedOptions: path.Violations,
	})
	if err != nil {
		return nil, &ports.EngineError{Code: domain.ErrorRouteCorrupted, Message: "assemble route", Err: err}
	}
	return route, nil
}
