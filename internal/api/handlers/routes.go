package handlers

import (
	"errors"
	"net/http"
	"route-coordinator-service/internal/api/dto"
	"route-coordinator-service/internal/domain"
	"route-coordinator-service/internal/platform/obs"
	"route-coordinator-service/internal/ports"
	"route-coordinator-service/internal/services"

	"go.uber.org/zap"
)

// Coordinator is the part of services.RouteCoordinator the HTTP surface drives.
type Coordinator interface {
	Start(stops []domain.Stop, prefs *domain.RoutingPreferences, l services.Listener) (string, error)
	Cancel() bool
	CancelCalculation(id string) bool
	IsBusy() bool
}

// RouteHandler exposes the coordinator over HTTP. POST /routes blocks until
// the calculation completes; a client that disconnects first cancels it.
type RouteHandler struct {
	Coordinator Coordinator
	// Optional; without it address stops are rejected.
	Geocoder ports.Geocoder
}

func (h *RouteHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, dto.StatusResponse{Busy: h.Coordinator.IsBusy()})
}

func (h *RouteHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	log := obs.Logger(r.Context())

	var req dto.CalculateRouteRequest
	if err := decodeJSON(r, &req); err != nil {
		if errors.Is(err, errTrailingData) {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}

	prefs, err := toPreferences(req.Preferences)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	stops, err := toStops(r.Context(), h.Geocoder, req.Stops)
	switch {
	case err == nil:
	case errors.Is(err, ports.ErrAddressNotFound):
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	case errors.Is(err, errGeocodeStops):
		log.Warn("geocode stops failed", zap.Error(err))
		writeError(w, r, http.StatusBadGateway, "geocoding failed")
		return
	default:
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	done := make(chan services.Result, 1)
	id, err := h.Coordinator.Start(stops, &prefs, services.ListenerFuncs{
		Calculated: func(res services.Result) { done <- res },
	})
	if err != nil {
		var ce *domain.CalculationError
		switch {
		case errors.Is(err, services.ErrBusy):
			writeError(w, r, http.StatusConflict, "a route calculation is already in progress")
		case errors.As(err, &ce):
			writeJSON(w, r, http.StatusUnprocessableEntity, dto.RoutingErrorResponse{
				Error: ce.Reason,
				Code:  ce.Code.String(),
			})
		default:
			log.Error("start calculation failed", zap.Error(err))
			writeError(w, r, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	var res services.Result
	select {
	case res = <-done:
	case <-r.Context().Done():
		if h.Coordinator.CancelCalculation(id) {
			log.Info("client gone, calculation cancelled", zap.String("calc_id", id))
		}
		return
	}

	if res.Error != domain.ErrorNone {
		body := dto.RoutingErrorResponse{
			CalculationID: res.CalculationID,
			Error:         res.Error.String(),
			Code:          res.Error.String(),
		}
		if res.Cause != nil {
			body.Error = res.Cause.Error()
		}
		for _, v := range res.ViolatedOptions {
			body.ViolatedOptions = append(body.ViolatedOptions, v.Names())
		}
		writeJSON(w, r, statusFor(res.Error), body)
		return
	}

	out := dto.CalculateRouteResponse{
		CalculationID: res.CalculationID,
		Routes:        make([]dto.Route, 0, len(res.Routes)),
	}
	for _, route := range res.Routes {
		route.UserTag = req.UserTag
		out.Routes = append(out.Routes, toRouteResponse(route))
	}
	writeJSON(w, r, http.StatusOK, out)
}

// CancelCurrent aborts whatever calculation is in flight.
func (h *RouteHandler) CancelCurrent(w http.ResponseWriter, r *http.Request) {
	if !h.Coordinator.Cancel() {
		writeError(w, r, http.StatusNotFound, "no calculation in progress")
		return
	}
	writeJSON(w, r, http.StatusAccepted, map[string]bool{"cancelled": true})
}

func statusFor(e domain.RoutingError) int {
	switch e {
	case domain.ErrorInvalidParameters,
		domain.ErrorInvalidOperation,
		domain.ErrorGraphDisconnected,
		domain.ErrorGraphDisconnectedCheckOptions,
		domain.ErrorNoStartPoint,
		domain.ErrorNoEndPoint,
		domain.ErrorNoEndPointCheckOptions,
		domain.ErrorCannotDoPedestrian,
		domain.ErrorViolatesOptions:
		return http.StatusUnprocessableEntity
	case domain.ErrorRoutingCancelled:
		return http.StatusConflict
	case domain.ErrorTimeout:
		return http.StatusGatewayTimeout
	case domain.ErrorNetworkServer, domain.ErrorRouteCorrupted, domain.ErrorInvalidCredentials:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
