package domain

import "fmt"

// RoutingError is the outcome classification delivered with every completion.
type RoutingError int

const (
	ErrorNone RoutingError = iota
	ErrorUnknown
	ErrorOutOfMemory
	ErrorInvalidParameters
	ErrorInvalidOperation
	ErrorGraphDisconnected
	ErrorGraphDisconnectedCheckOptions
	ErrorNoStartPoint
	ErrorNoEndPoint
	ErrorNoEndPointCheckOptions
	ErrorCannotDoPedestrian
	ErrorRoutingCancelled
	ErrorViolatesOptions
	ErrorRouteCorrupted
	ErrorInvalidCredentials
	// Transport-level failures: the engine could not be reached or answered
	// with a server error, or the calculation ran past its deadline.
	ErrorNetworkServer
	ErrorTimeout
)

var routingErrorNames = [...]string{
	"none", "unknown", "out_of_memory", "invalid_parameters", "invalid_operation",
	"graph_disconnected", "graph_disconnected_check_options", "no_start_point",
	"no_end_point", "no_end_point_check_options", "cannot_do_pedestrian",
	"routing_cancelled", "violates_options", "route_corrupted", "invalid_credentials",
	"network_server", "timeout",
}

func (e RoutingError) String() string {
	if e >= 0 && int(e) < len(routingErrorNames) {
		return routingErrorNames[e]
	}
	return fmt.Sprintf("routing_error(%d)", int(e))
}

func (e RoutingError) Error() string { return "routing: " + e.String() }

// CalculationError reports a request rejected before it reached the engine.
type CalculationError struct {
	Code   RoutingError
	Reason string
}

func (e *CalculationError) Error() string {
	return fmt.Sprintf("calculate route: %s: %s", e.Code, e.Reason)
}

// Is lets errors.Is match a CalculationError against its code.
func (e *CalculationError) Is(target error) bool {
	code, ok := target.(RoutingError)
	return ok && code == e.Code
}
