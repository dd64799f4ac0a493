package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"route-coordinator-service/internal/adapters/engine"
	"route-coordinator-service/internal/api/dto"
	"route-coordinator-service/internal/api/handlers"
	"route-coordinator-service/internal/domain"
	"route-coordinator-service/internal/platform/mainloop"
	"route-coordinator-service/internal/ports"
	"route-coordinator-service/internal/services"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGeocoder map[string]domain.Coordinates

func (g fakeGeocoder) Geocode(_ context.Context, address string) (domain.Place, error) {
	c, ok := g[address]
	if !ok {
		return domain.Place{}, ports.ErrAddressNotFound
	}
	return domain.Place{Name: address, Location: domain.PlaceLocation{Position: c, Address: address}}, nil
}

func newServer(t *testing.T, eng ports.RoutingEngine) (*httptest.Server, *services.RouteCoordinator) {
	t.Helper()
	q := mainloop.New(nil)
	t.Cleanup(q.Close)

	coord := services.NewRouteCoordinator(eng, q, nil)
	h := &handlers.RouteHandler{
		Coordinator: coord,
		Geocoder: fakeGeocoder{
			"Phoenix Sky Harbor": {Lat: 33.4343, Lon: -112.0116},
		},
	}
	srv := httptest.NewServer(NewRouter(h, []string{"*"}, nil))
	t.Cleanup(srv.Close)
	return srv, coord
}

func post(t *testing.T, ctx context.Context, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url+"/routes", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

const twoStops = `{"stops":[
	{"coordinates":{"lat":33.4484,"lon":-112.0740}},
	{"coordinates":{"lat":33.4255,"lon":-111.9400}}
]`

func TestHealth(t *testing.T) {
	srv, _ := newServer(t, engine.NewLocalEngine(nil))

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	assert.Equal(t, "ok", decode[map[string]string](t, resp)["status"])
}

func TestCalculateRoute(t *testing.T) {
	srv, coord := newServer(t, engine.NewLocalEngine(nil))

	body := `{
		"stops":[
			{"coordinates":{"lat":33.4484,"lon":-112.0740}},
			{"address":"Phoenix Sky Harbor"}
		],
		"preferences":{"transport_mode":"car","result_count":1,"avoid":["toll_road"]},
		"user_tag":"shift-7"
	}`
	resp := post(t, context.Background(), srv.URL, body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := decode[dto.CalculateRouteResponse](t, resp)
	assert.NotEmpty(t, out.CalculationID)
	require.Len(t, out.Routes, 1)

	r := out.Routes[0]
	assert.Equal(t, "shift-7", r.UserTag)
	assert.Equal(t, "car", r.TransportMode)
	require.Len(t, r.Waypoints, 2)
	assert.Equal(t, dto.Coordinates{Lat: 33.4343, Lon: -112.0116}, r.Waypoints[1].Original)
	require.Len(t, r.Sublegs, 1)
	assert.Equal(t, r.LengthMeters, r.Sublegs[0].LengthMeters)
	require.NotEmpty(t, r.Maneuvers)
	assert.Equal(t, "end", r.Maneuvers[len(r.Maneuvers)-1].Action)
	assert.Equal(t, "start", r.Maneuvers[0].Icon)
	assert.NotEmpty(t, r.Polyline)

	assert.False(t, coord.IsBusy())
}

func TestCalculateRouteRejections(t *testing.T) {
	srv, _ := newServer(t, engine.NewLocalEngine(nil))

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"invalid json", `{"stops":`, http.StatusBadRequest, ""},
		{"unknown field", `{"stops":[],"truck_count":3}`, http.StatusBadRequest, ""},
		{"two objects", twoStops + `}{}`, http.StatusBadRequest, ""},
		{"ambiguous stop", `{"stops":[{"address":"x","coordinates":{"lat":1,"lon":1}},{"address":"y"}]}`, http.StatusBadRequest, ""},
		{"unknown mode", twoStops + `,"preferences":{"transport_mode":"hovercraft"}}`, http.StatusBadRequest, ""},
		{"address not found", `{"stops":[{"address":"Atlantis"},{"address":"Phoenix Sky Harbor"}]}`, http.StatusUnprocessableEntity, ""},
		{"single stop", `{"stops":[{"coordinates":{"lat":33.4,"lon":-112.0}}]}`, http.StatusUnprocessableEntity, "invalid_parameters"},
		{"result count", twoStops + `,"preferences":{"result_count":11}}`, http.StatusUnprocessableEntity, "invalid_parameters"},
		{"pedestrian too far", `{"stops":[
			{"coordinates":{"lat":33.4484,"lon":-112.0740}},
			{"coordinates":{"lat":36.1699,"lon":-115.1398}}
		],"preferences":{"transport_mode":"pedestrian"}}`, http.StatusUnprocessableEntity, "cannot_do_pedestrian"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, context.Background(), srv.URL, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			out := decode[dto.RoutingErrorResponse](t, resp)
			assert.NotEmpty(t, out.Error)
			assert.Equal(t, tt.code, out.Code)
		})
	}
}

func TestCalculateRouteEngineFailure(t *testing.T) {
	eng := engine.NewScriptedEngine(engine.Step{
		Err: &ports.EngineError{Code: domain.ErrorNoEndPoint, Message: "no road near destination"},
	})
	srv, _ := newServer(t, eng)

	resp := post(t, context.Background(), srv.URL, twoStops+`,"preferences":{"avoid":["highway"]}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	out := decode[dto.RoutingErrorResponse](t, resp)
	assert.Equal(t, "no_end_point", out.Code)
	assert.NotEmpty(t, out.CalculationID)
	assert.Equal(t, [][]string{{"highway"}}, out.ViolatedOptions)
}

func TestCalculateWhileBusyAndCancel(t *testing.T) {
	eng := engine.NewScriptedEngine(engine.Step{Hold: true})
	srv, coord := newServer(t, eng)

	resp, err := http.Get(srv.URL + "/routes/status")
	require.NoError(t, err)
	assert.False(t, decode[dto.StatusResponse](t, resp).Busy)

	first := make(chan *http.Response, 1)
	go func() {
		req, _ := http.NewRequest(http.MethodPost, srv.URL+"/routes", strings.NewReader(twoStops+`}`))
		resp, err := http.DefaultClient.Do(req)
		if err == nil {
			first <- resp
		}
		close(first)
	}()

	select {
	case <-eng.Entered():
	case <-time.After(2 * time.Second):
		t.Fatal("engine never called")
	}

	resp, err = http.Get(srv.URL + "/routes/status")
	require.NoError(t, err)
	assert.True(t, decode[dto.StatusResponse](t, resp).Busy)

	resp = post(t, context.Background(), srv.URL, twoStops+`}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	del, err := http.NewRequest(http.MethodDelete, srv.URL+"/routes/current", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(del)
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	resp.Body.Close()

	var got *http.Response
	select {
	case got = <-first:
	case <-time.After(2 * time.Second):
		t.Fatal("first request never answered")
	}
	require.NotNil(t, got)
	assert.Equal(t, http.StatusConflict, got.StatusCode)
	assert.Equal(t, "routing_cancelled", decode[dto.RoutingErrorResponse](t, got).Code)

	require.Eventually(t, func() bool { return !coord.IsBusy() }, 2*time.Second, 10*time.Millisecond)

	resp, err = http.DefaultClient.Do(del)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestClientDisconnectCancelsCalculation(t *testing.T) {
	eng := engine.NewScriptedEngine(engine.Step{Hold: true})
	srv, coord := newServer(t, eng)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		req, _ := http.NewRequestWithContext(ctx, http.MethodPost, srv.URL+"/routes", bytes.NewBufferString(twoStops+`}`))
		_, err := http.DefaultClient.Do(req)
		errc <- err
	}()

	select {
	case <-eng.Entered():
	case <-time.After(2 * time.Second):
		t.Fatal("engine never called")
	}
	require.True(t, coord.IsBusy())

	cancel()
	assert.True(t, errors.Is(<-errc, context.Canceled))
	require.Eventually(t, func() bool { return !coord.IsBusy() }, 2*time.Second, 10*time.Millisecond)
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := newServer(t, engine.NewLocalEngine(nil))

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/routes", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://maps.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
