package services

import "route-coordinator-service/internal/domain"

// Result is the single completion delivered for every accepted or rejected
// calculation.
type Result struct {
	CalculationID string
	// Best first; nil unless Error is domain.ErrorNone.
	Routes []*domain.Route
	Error  domain.RoutingError
	// Underlying failure, if any.
	Cause error
	// One entry per route. A failed calculation carries a single entry
	// holding every option that was requested.
	ViolatedOptions []domain.RouteOptions
}

// Listener receives the outcome of a calculation on the control queue.
type Listener interface {
	OnCalculated(res Result)
}

// ProgressListener is a Listener that also wants progress updates in [0,1].
type ProgressListener interface {
	Listener
	OnProgress(progress float32)
}

// ListenerFuncs adapts plain functions to ProgressListener. Nil fields are skipped.
type ListenerFuncs struct {
	Calculated func(res Result)
	Progress   func(progress float32)
}

func (f ListenerFuncs) OnCalculated(res Result) {
	if f.Calculated != nil {
		f.Calculated(res)
	}
}

func (f ListenerFuncs) OnProgress(progress float32) {
	if f.Progress != nil {
		f.Progress(progress)
	}
}
