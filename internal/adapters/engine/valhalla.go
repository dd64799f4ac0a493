package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"route-coordinator-service/internal/domain"
	"route-coordinator-service/internal/platform/httpx"
	"route-coordinator-service/internal/platform/obs"
	"route-coordinator-service/internal/ports"
	"strings"
	"time"

	"go.uber.org/zap"
)

type valhallaLocation struct {
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	Type string  `json:"type"`
}

type valhallaDateTime struct {
	Type  int    `json:"type"`
	Value string `json:"value"`
}

type valhallaRequest struct {
	Locations      []valhallaLocation        `json:"locations"`
	Costing        string                    `json:"costing"`
	CostingOptions map[string]map[string]any `json:"costing_options,omitempty"`
	DateTime       *valhallaDateTime         `json:"date_time,omitempty"`
	Alternates     int                       `json:"alternates,omitempty"`
	Units          string                    `json:"units"`
}

type valhallaSummary struct {
	Length              float64 `json:"length"` // kilometers
	Time                float64 `json:"time"`   // seconds
	HasToll             bool    `json:"has_toll"`
	HasHighway          bool    `json:"has_highway"`
	HasFerry            bool    `json:"has_ferry"`
	HasTimeRestrictions bool    `json:"has_time_restrictions"`
}

type valhallaSignElement struct {
	Text string `json:"text"`
}

type valhallaSign struct {
	ExitNumberElements []valhallaSignElement `json:"exit_number_elements"`
	ExitBranchElements []valhallaSignElement `json:"exit_branch_elements"`
	ExitTowardElements []valhallaSignElement `json:"exit_toward_elements"`
	ExitNameElements   []valhallaSignElement `json:"exit_name_elements"`
}

type valhallaManeuver struct {
	Type                int           `json:"type"`
	Length              float64       `json:"length"` // kilometers
	Time                float64       `json:"time"`
	TravelMode          string        `json:"travel_mode"`
	StreetNames         []string      `json:"street_names"`
	BeginStreetNames    []string      `json:"begin_street_names"`
	BearingAfter        float64       `json:"bearing_after"`
	BeginShapeIndex     int           `json:"begin_shape_index"`
	EndShapeIndex       int           `json:"end_shape_index"`
	RoundaboutExitCount int           `json:"roundabout_exit_count"`
	DriveOnRight        *bool         `json:"drive_on_right,omitempty"`
	Sign                *valhallaSign `json:"sign,omitempty"`
	TransitInfo         *struct {
		ShortName string `json:"short_name"`
		LongName  string `json:"long_name"`
	} `json:"transit_info,omitempty"`
}

type valhallaLeg struct {
	Maneuvers []valhallaManeuver `json:"maneuvers"`
	Summary   valhallaSummary    `json:"summary"`
	Shape     string             `json:"shape"`
}

type valhallaTrip struct {
	Legs    []valhallaLeg   `json:"legs"`
	Summary valhallaSummary `json:"summary"`
}

type valhallaResponse struct {
	Trip       valhallaTrip `json:"trip"`
	Alternates []struct {
		Trip valhallaTrip `json:"trip"`
	} `json:"alternates"`
}

type valhallaError struct {
	ErrorCode  int    `json:"error_code"`
	Error      string `json:"error"`
	StatusCode int    `json:"status_code"`
}

type ValhallaConfig struct {
	URL     string
	APIKey  string
	Timeout time.Duration
	// Polyline precision of returned shapes.
	ShapePrecision int
}

// ValhallaEngine implements ports.RoutingEngine against a Valhalla /route
// endpoint. It is safe for concurrent use.
type ValhallaEngine struct {
	client    *httpx.Client
	endpoint  string
	precision int
	log       *zap.Logger
}

func NewValhallaEngine(cfg ValhallaConfig, log *zap.Logger, opts ...httpx.Option) (*ValhallaEngine, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("valhalla url is empty")
	}
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.ShapePrecision <= 0 {
		cfg.ShapePrecision = 6
	}
	if cfg.APIKey != "" {
		opts = append(opts, httpx.WithHeader("Authorization", cfg.APIKey))
	}

	return &ValhallaEngine{
		client:    httpx.New(cfg.Timeout, log, opts...),
		endpoint:  strings.TrimRight(cfg.URL, "/") + "/route",
		precision: cfg.ShapePrecision,
		log:       log.Named("valhalla"),
	}, nil
}

var valhallaCosting = map[domain.TransportMode]string{
	domain.TransportCar:             "auto",
	domain.TransportPedestrian:      "pedestrian",
	domain.TransportPublicTransport: "multimodal",
	domain.TransportTruck:           "truck",
	domain.TransportBike:            "bicycle",
	domain.TransportScooter:         "motor_scooter",
}

func (v *ValhallaEngine) buildRequest(req ports.EngineRequest) valhallaRequest {
	prefs := req.Preferences

	locs := make([]valhallaLocation, 0, len(req.Waypoints))
	for _, c := range req.Waypoints {
		locs = append(locs, valhallaLocation{Lat: c.Lat, Lon: c.Lon, Type: "break"})
	}

	costing := valhallaCosting[prefs.TransportMode]
	if costing == "" {
		costing = "auto"
	}

	opts := map[string]any{}
	switch prefs.RoutingType {
	case domain.RoutingShortest:
		opts["shortest"] = true
	case domain.RoutingBalanced:
		opts["use_highways"] = 0.5
		opts["use_tolls"] = 0.5
	}
	if prefs.Options.Has(domain.AvoidHighway) {
		opts["use_highways"] = 0.0
	}
	if prefs.Options.Has(domain.AvoidTollRoad) {
		opts["use_tolls"] = 0.0
	}
	if prefs.Options&(domain.AvoidBoatFerry|domain.AvoidCarShuttleTrain) != 0 {
		opts["use_ferry"] = 0.0
	}
	if prefs.Options.Has(domain.AvoidDirtRoad) {
		opts["exclude_unpaved"] = true
	}
	if prefs.Options.Has(domain.AvoidPark) {
		opts["use_living_streets"] = 0.0
	}
	if prefs.Options.Has(domain.AvoidCarpool) {
		opts["include_hov2"] = false
		opts["include_hov3"] = false
	}

	vr := valhallaRequest{
		Locations: locs,
		Costing:   costing,
		Units:     "kilometers",
	}
	if len(opts) > 0 {
		vr.CostingOptions = map[string]map[string]any{costing: opts}
	}
	if prefs.DepartureTime != nil {
		vr.DateTime = &valhallaDateTime{Type: 1, Value: prefs.DepartureTime.Format("2006-01-02T15:04")}
	}
	// Valhalla computes alternates only between two locations.
	if len(locs) == 2 && prefs.ResultCount > 1 {
		vr.Alternates = prefs.ResultCount - 1
	}
	return vr
}

func (v *ValhallaEngine) CalculatePaths(
	ctx context.Context,
	req ports.EngineRequest,
	progress ports.ProgressFunc,
) (_ []ports.EnginePath, err error) {
	defer obs.Time(ctx, v.log, "valhalla.CalculatePaths")(&err)

	report := func(p float32) {
		if progress != nil {
			progress(p)
		}
	}
	report(0)

	payload, err := json.Marshal(v.buildRequest(req))
	if err != nil {
		return nil, fmt.Errorf("marshal valhalla request: %w", err)
	}

	resp, err := v.client.DoWithRetry(ctx, func() (*http.Request, error) {
		return v.client.NewRequest(ctx, http.MethodPost, v.endpoint, bytes.NewReader(payload))
	})
	if err != nil {
		return nil, v.classify(err, req.Preferences)
	}
	defer resp.Body.Close()
	report(0.5)

	var decoded valhallaResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 32<<20)).Decode(&decoded); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &ports.EngineError{Code: domain.ErrorRouteCorrupted, Message: "decode valhalla response", Err: err}
	}

	trips := make([]valhallaTrip, 0, 1+len(decoded.Alternates))
	trips = append(trips, decoded.Trip)
	for _, alt := range decoded.Alternates {
		trips = append(trips, alt.Trip)
	}

	paths := make([]ports.EnginePath, 0, len(trips))
	for i, trip := range trips {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path, err := v.convertTrip(trip, req.Preferences)
		if err != nil {
			return nil, &ports.EngineError{Code: domain.ErrorRouteCorrupted, Message: fmt.Sprintf("trip %d", i), Err: err}
		}
		paths = append(paths, path)
	}

	report(1)
	return paths, nil
}

func (v *ValhallaEngine) convertTrip(trip valhallaTrip, prefs domain.RoutingPreferences) (ports.EnginePath, error) {
	path := ports.EnginePath{Legs: make([]ports.EngineLeg, 0, len(trip.Legs))}

	var used domain.RouteOptions
	if trip.Summary.HasToll {
		used |= domain.AvoidTollRoad
	}
	if trip.Summary.HasHighway {
		used |= domain.AvoidHighway
	}
	if trip.Summary.HasFerry {
		used |= domain.AvoidBoatFerry
	}
	path.Violations = used & prefs.Options
	if trip.Summary.HasTimeRestrictions {
		path.Violations |= domain.ViolatedTurnRestriction
	}

	for li, leg := range trip.Legs {
		shape, err := decodePolyline(leg.Shape, v.precision)
		if err != nil {
			return ports.EnginePath{}, fmt.Errorf("leg %d shape: %w", li, err)
		}
		if len(shape) == 0 {
			return ports.EnginePath{}, fmt.Errorf("leg %d has no shape", li)
		}

		el := ports.EngineLeg{
			Start:           shape[0],
			End:             shape[len(shape)-1],
			LengthMeters:    kmToMeters(leg.Summary.Length),
			DurationSeconds: int(math.Round(leg.Summary.Time)),
			Shape:           shape,
			Maneuvers:       make([]ports.EngineManeuver, 0, len(leg.Maneuvers)),
		}
		if leg.Summary.HasTimeRestrictions {
			el.Details |= domain.DetailRestrictedTurn
		}

		for mi, m := range leg.Maneuvers {
			em, err := v.convertManeuver(m, shape, prefs.TransportMode)
			if err != nil {
				return ports.EnginePath{}, fmt.Errorf("leg %d maneuver %d: %w", li, mi, err)
			}
			el.Maneuvers = append(el.Maneuvers, em)
		}
		path.Legs = append(path.Legs, el)
	}
	return path, nil
}

func (v *ValhallaEngine) convertManeuver(
	m valhallaManeuver,
	shape []domain.Coordinates,
	requested domain.TransportMode,
) (ports.EngineManeuver, error) {
	begin, end := m.BeginShapeIndex, m.EndShapeIndex
	if begin < 0 || begin >= len(shape) || end < begin || end >= len(shape) {
		return ports.EngineManeuver{}, fmt.Errorf("shape index [%d,%d] outside shape of %d points", begin, end, len(shape))
	}

	class := classifyValhallaManeuver(m.Type, m.RoundaboutExitCount)
	em := ports.EngineManeuver{
		Coordinates:     shape[begin],
		Action:          class.action,
		Turn:            class.turn,
		LengthMeters:    kmToMeters(m.Length),
		DurationSeconds: m.Time,
		Bearing:         m.BearingAfter,
		TransportMode:   travelMode(m.TravelMode, requested),
	}
	if m.DriveOnRight != nil && !*m.DriveOnRight {
		em.Traffic = domain.TrafficLeft
	}

	// Only names reported for this maneuver; the previous maneuver's road is not carried over.
	em.RoadName, em.RoadNumber = splitStreetNames(m.BeginStreetNames)
	em.NextRoadName, em.NextRoadNumber = splitStreetNames(m.StreetNames)

	elemType := domain.RouteElementRoad
	elemName := em.NextRoadName
	if isTransitManeuver(m.Type) {
		em.TransportMode = domain.TransportPublicTransport
		elemType = domain.RouteElementTransit
		if m.TransitInfo != nil {
			elemName = m.TransitInfo.ShortName
			if elemName == "" {
				elemName = m.TransitInfo.LongName
			}
		}
	}
	if end > begin {
		geom := make([]domain.Coordinates, end-begin+1)
		copy(geom, shape[begin:end+1])
		em.RouteElements = []domain.RouteElement{{Type: elemType, RoadName: elemName, Geometry: geom}}
	}

	if m.Sign != nil {
		sp := domain.Signpost{
			ExitNumber: joinSignElements(m.Sign.ExitNumberElements),
			ExitText:   joinSignElements(m.Sign.ExitTowardElements),
		}
		if sp.ExitText == "" {
			sp.ExitText = joinSignElements(m.Sign.ExitBranchElements)
		}
		if sp.ExitText == "" {
			sp.ExitText = joinSignElements(m.Sign.ExitNameElements)
		}
		if sp != (domain.Signpost{}) {
			em.Signpost = &sp
		}
	}
	return em, nil
}

// classify maps transport failures and Valhalla error bodies onto the routing
// error taxonomy.
func (v *ValhallaEngine) classify(err error, prefs domain.RoutingPreferences) error {
	var se *httpx.StatusError
	if !errors.As(err, &se) {
		return fmt.Errorf("valhalla request: %w", err)
	}

	var ve valhallaError
	_ = json.Unmarshal([]byte(se.Body), &ve)
	msg := ve.Error
	if msg == "" {
		msg = se.Body
	}

	code := domain.ErrorUnknown
	switch {
	case se.Code == http.StatusUnauthorized || se.Code == http.StatusForbidden:
		code = domain.ErrorInvalidCredentials
	case se.Code >= 500:
		code = domain.ErrorNetworkServer
	case ve.ErrorCode == 170 || ve.ErrorCode == 442 || ve.ErrorCode == 443:
		code = domain.ErrorGraphDisconnected
		if prefs.Options != domain.RouteOptionsNone {
			code = domain.ErrorGraphDisconnectedCheckOptions
		}
	case ve.ErrorCode == 171:
		code = domain.ErrorNoStartPoint
	case ve.ErrorCode == 154 || ve.ErrorCode == 155:
		code = domain.ErrorInvalidParameters
		if prefs.TransportMode == domain.TransportPedestrian {
			code = domain.ErrorCannotDoPedestrian
		}
	case ve.ErrorCode >= 100 && ve.ErrorCode < 200:
		code = domain.ErrorInvalidParameters
	}

	return &ports.EngineError{Code: code, Message: msg, Err: err}
}

func kmToMeters(km float64) uint {
	if km <= 0 {
		return 0
	}
	return uint(math.Round(km * 1000))
}

func joinSignElements(els []valhallaSignElement) string {
	parts := make([]string, 0, len(els))
	for _, e := range els {
		if t := strings.TrimSpace(e.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " / ")
}
