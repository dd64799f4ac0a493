package dto

import "time"

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type Place struct {
	ID       string      `json:"id,omitempty"`
	Name     string      `json:"name,omitempty"`
	Position Coordinates `json:"position"`
	Address  string      `json:"address,omitempty"`
}

type Waypoint struct {
	Original Coordinates `json:"original"`
	Mapped   Coordinates `json:"mapped"`
}

// Stop sets exactly one of its fields.
type Stop struct {
	Coordinates *Coordinates `json:"coordinates,omitempty"`
	Address     string       `json:"address,omitempty"`
	Place       *Place       `json:"place,omitempty"`
	Waypoint    *Waypoint    `json:"waypoint,omitempty"`
}

type Preferences struct {
	TransportMode string     `json:"transport_mode"`
	RoutingType   string     `json:"routing_type"`
	ResultCount   int        `json:"result_count"`
	DepartureTime *time.Time `json:"departure_time"`
	Avoid         []string   `json:"avoid"`
}

type CalculateRouteRequest struct {
	Stops       []Stop       `json:"stops"`
	Preferences *Preferences `json:"preferences"`
	UserTag     string       `json:"user_tag"`
}

type TTA struct {
	DurationSeconds int      `json:"duration_seconds"`
	Details         []string `json:"details,omitempty"`
}

type Signpost struct {
	ExitNumber string `json:"exit_number,omitempty"`
	ExitText   string `json:"exit_text,omitempty"`
}

type Maneuver struct {
	Position                     Coordinates `json:"position"`
	Action                       string      `json:"action"`
	Turn                         string      `json:"turn"`
	Icon                         string      `json:"icon"`
	Traffic                      string      `json:"traffic"`
	DistanceFromStart            uint        `json:"distance_from_start"`
	DistanceFromPreviousManeuver uint        `json:"distance_from_previous_maneuver"`
	DistanceToNextManeuver       uint        `json:"distance_to_next_maneuver"`
	RoadName                     string      `json:"road_name,omitempty"`
	RoadNumber                   string      `json:"road_number,omitempty"`
	NextRoadName                 string      `json:"next_road_name,omitempty"`
	NextRoadNumber               string      `json:"next_road_number,omitempty"`
	StartTime                    *time.Time  `json:"start_time,omitempty"`
	MapOrientation               uint        `json:"map_orientation"`
	TransportMode                string      `json:"transport_mode"`
	Signpost                     *Signpost   `json:"signpost,omitempty"`
}

type Subleg struct {
	LengthMeters uint `json:"length_meters"`
	TTA          TTA  `json:"tta"`
}

type Route struct {
	Waypoints       []Waypoint   `json:"waypoints"`
	LengthMeters    uint         `json:"length_meters"`
	TTA             TTA          `json:"tta"`
	Sublegs         []Subleg     `json:"sublegs"`
	BoundingBox     [4]float64   `json:"bounding_box"`
	Polyline        [][2]float64 `json:"polyline"`
	Maneuvers       []Maneuver   `json:"maneuvers"`
	TransportMode   string       `json:"transport_mode"`
	RoutingType     string       `json:"routing_type"`
	ViolatedOptions []string     `json:"violated_options"`
	UserTag         string       `json:"user_tag,omitempty"`
}

type CalculateRouteResponse struct {
	CalculationID string  `json:"calculation_id"`
	Routes        []Route `json:"routes"`
}

type RoutingErrorResponse struct {
	CalculationID   string     `json:"calculation_id,omitempty"`
	Error           string     `json:"error"`
	Code            string     `json:"code"`
	ViolatedOptions [][]string `json:"violated_options,omitempty"`
}

type StatusResponse struct {
	Busy bool `json:"busy"`
}
