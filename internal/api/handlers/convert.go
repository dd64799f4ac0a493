package handlers

import (
	"context"
	"errors"
	"fmt"
	"route-coordinator-service/internal/api/dto"
	"route-coordinator-service/internal/domain"
	"route-coordinator-service/internal/ports"
	"strings"
)

var (
	errStopVariant  = errors.New("stop must set exactly one of coordinates, address, place or waypoint")
	errNoGeocoder   = errors.New("address stops are not supported: no geocoder configured")
	errGeocodeStops = errors.New("geocode stops")
)

func toCoordinates(c dto.Coordinates) domain.Coordinates {
	return domain.Coordinates{Lat: c.Lat, Lon: c.Lon}
}

func fromCoordinates(c domain.Coordinates) dto.Coordinates {
	return dto.Coordinates{Lat: c.Lat, Lon: c.Lon}
}

// toStops converts request stops, geocoding address stops. Errors wrapping
// errGeocodeStops come from the geocoder; anything else is a bad request.
func toStops(ctx context.Context, geocoder ports.Geocoder, in []dto.Stop) ([]domain.Stop, error) {
	out := make([]domain.Stop, 0, len(in))
	for i, s := range in {
		set := 0
		if s.Coordinates != nil {
			set++
		}
		if strings.TrimSpace(s.Address) != "" {
			set++
		}
		if s.Place != nil {
			set++
		}
		if s.Waypoint != nil {
			set++
		}
		if set != 1 {
			return nil, fmt.Errorf("stop %d: %w", i, errStopVariant)
		}

		switch {
		case s.Coordinates != nil:
			out = append(out, domain.AtCoordinates(toCoordinates(*s.Coordinates)))
		case s.Place != nil:
			out = append(out, domain.AtPlace(domain.Place{
				ID:   s.Place.ID,
				Name: s.Place.Name,
				Location: domain.PlaceLocation{
					Position: toCoordinates(s.Place.Position),
					Address:  s.Place.Address,
				},
			}))
		case s.Waypoint != nil:
			out = append(out, domain.AtWaypoint(domain.Waypoint{
				OriginalPosition: toCoordinates(s.Waypoint.Original),
				MappedPosition:   toCoordinates(s.Waypoint.Mapped),
			}))
		default:
			if geocoder == nil {
				return nil, fmt.Errorf("stop %d: %w", i, errNoGeocoder)
			}
			place, err := geocoder.Geocode(ctx, s.Address)
			if err != nil {
				return nil, fmt.Errorf("%w: stop %d: %w", errGeocodeStops, i, err)
			}
			out = append(out, domain.AtPlaceLocation(place.Location))
		}
	}
	return out, nil
}

func toPreferences(in *dto.Preferences) (domain.RoutingPreferences, error) {
	p := domain.DefaultPreferences()
	if in == nil {
		return p, nil
	}

	var err error
	if in.TransportMode != "" {
		if p.TransportMode, err = domain.ParseTransportMode(in.TransportMode); err != nil {
			return p, err
		}
	}
	if in.RoutingType != "" {
		if p.RoutingType, err = domain.ParseRoutingType(in.RoutingType); err != nil {
			return p, err
		}
	}
	if in.ResultCount != 0 {
		p.ResultCount = in.ResultCount
	}
	p.DepartureTime = in.DepartureTime
	for _, name := range in.Avoid {
		opt, err := domain.ParseAvoidOption(name)
		if err != nil {
			return p, err
		}
		p.Options |= opt
	}
	return p, nil
}

func toTTA(t domain.RouteTta) dto.TTA {
	return dto.TTA{DurationSeconds: t.DurationSeconds, Details: t.Details.Names()}
}

func toRouteResponse(r *domain.Route) dto.Route {
	wps := r.Waypoints()
	out := dto.Route{
		Waypoints:       make([]dto.Waypoint, 0, len(wps)),
		LengthMeters:    r.Length(),
		TTA:             toTTA(r.TTA()),
		Sublegs:         make([]dto.Subleg, 0, r.SublegCount()),
		TransportMode:   r.RoutingMode().TransportMode.String(),
		RoutingType:     r.RoutingMode().RoutingType.String(),
		ViolatedOptions: r.ViolatedOptions().Names(),
		UserTag:         r.UserTag,
	}
	for _, w := range wps {
		out.Waypoints = append(out.Waypoints, dto.Waypoint{
			Original: fromCoordinates(w.OriginalPosition),
			Mapped:   fromCoordinates(w.MappedPosition),
		})
	}
	for i, n := 0, r.SublegCount(); i < n; i++ {
		length, _ := r.SublegLength(i)
		tta, _ := r.TTAForSubleg(i)
		out.Sublegs = append(out.Sublegs, dto.Subleg{LengthMeters: length, TTA: toTTA(tta)})
	}

	b := r.BoundingBox()
	out.BoundingBox = [4]float64{b.Min.Lon(), b.Min.Lat(), b.Max.Lon(), b.Max.Lat()}

	line := r.Polyline()
	out.Polyline = make([][2]float64, 0, len(line))
	for _, p := range line {
		out.Polyline = append(out.Polyline, [2]float64{p.Lon(), p.Lat()})
	}

	ms := r.Maneuvers()
	out.Maneuvers = make([]dto.Maneuver, 0, len(ms))
	for _, m := range ms {
		dm := dto.Maneuver{
			Position:                     fromCoordinates(m.Coordinates),
			Action:                       m.Action.String(),
			Turn:                         m.Turn.String(),
			Icon:                         m.Icon.String(),
			Traffic:                      m.Traffic.String(),
			DistanceFromStart:            m.DistanceFromStart,
			DistanceFromPreviousManeuver: m.DistanceFromPreviousManeuver,
			DistanceToNextManeuver:       m.DistanceToNextManeuver,
			RoadName:                     m.RoadName,
			RoadNumber:                   m.RoadNumber,
			NextRoadName:                 m.NextRoadName,
			NextRoadNumber:               m.NextRoadNumber,
			StartTime:                    m.StartTime,
			MapOrientation:               m.MapOrientation,
			TransportMode:                m.TransportMode.String(),
		}
		if m.Signpost != nil {
			dm.Signpost = &dto.Signpost{ExitNumber: m.Signpost.ExitNumber, ExitText: m.Signpost.ExitText}
		}
		out.Maneuvers = append(out.Maneuvers, dm)
	}
	return out
}
