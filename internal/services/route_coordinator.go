package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"route-coordinator-service/internal/domain"
	"route-coordinator-service/internal/platform/obs"
	"route-coordinator-service/internal/ports"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb/geo"
	"go.uber.org/zap"
)

const (
	MinStops                   = 2
	DefaultMaxStops            = 32
	DefaultMaxPedestrianMeters = 200_000.0
)

// ErrBusy is returned by Start while another calculation is in flight.
// The rejected call produces no notification.
var ErrBusy = errors.New("route coordinator: calculation in progress")

// Dispatcher runs callbacks one at a time in order; mainloop.Queue implements it.
type Dispatcher interface {
	Dispatch(fn func()) error
}

type Option func(*RouteCoordinator)

func WithMaxStops(n int) Option {
	return func(c *RouteCoordinator) {
		if n >= MinStops {
			c.maxStops = n
		}
	}
}

// WithMaxPedestrianDistance caps the straight-line length, in meters, of a
// pedestrian request.
func WithMaxPedestrianDistance(meters float64) Option {
	return func(c *RouteCoordinator) {
		if meters > 0 {
			c.maxPedestrianMeters = meters
		}
	}
}

// WithTimeout bounds every calculation; expiry completes it with ErrorTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *RouteCoordinator) { c.timeout = d }
}

type calculation struct {
	id       string
	prefs    domain.RoutingPreferences
	listener Listener
	cancel   context.CancelFunc
	started  time.Time
	// Set under RouteCoordinator.mu once the completion has been queued.
	finished bool
	// The completion to deliver. Read by the queued delivery, so a Cancel
	// before delivery can still replace it.
	result Result
}

// RouteCoordinator runs at most one route calculation at a time against a
// routing engine and delivers every notification through the dispatcher.
//
// All methods are safe for concurrent use.
type RouteCoordinator struct {
	engine ports.RoutingEngine
	queue  Dispatcher
	log    *zap.Logger

	maxStops            int
	maxPedestrianMeters float64
	timeout             time.Duration

	mu       sync.Mutex
	listener Listener
	current  *calculation
}

func NewRouteCoordinator(
	engine ports.RoutingEngine,
	queue Dispatcher,
	log *zap.Logger,
	opts ...Option,
) *RouteCoordinator {
	if log == nil {
		log = zap.NewNop()
	}
	c := &RouteCoordinator{
		engine:              engine,
		queue:               queue,
		log:                 log.Named("coordinator"),
		maxStops:            DefaultMaxStops,
		maxPedestrianMeters: DefaultMaxPedestrianMeters,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetListener installs the listener used by Calculate.
func (c *RouteCoordinator) SetListener(l Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listener = l
}

// Calculate starts a calculation reported to the listener installed with
// SetListener. prefs may be nil for the defaults. It returns false when the
// coordinator is busy (no notification) or the input is invalid (the listener
// is told why).
func (c *RouteCoordinator) Calculate(stops []domain.Stop, prefs *domain.RoutingPreferences) bool {
	c.mu.Lock()
	l := c.listener
	c.mu.Unlock()
	_, err := c.Start(stops, prefs, l)
	return err == nil
}

// CalculateWith is Calculate with a per-call listener.
func (c *RouteCoordinator) CalculateWith(stops []domain.Stop, prefs *domain.RoutingPreferences, l Listener) bool {
	_, err := c.Start(stops, prefs, l)
	return err == nil
}

// Start is the single entry point behind Calculate and CalculateWith. It
// returns the id of the accepted calculation, ErrBusy when another one is in
// flight, or a *domain.CalculationError when validation failed.
func (c *RouteCoordinator) Start(stops []domain.Stop, prefs *domain.RoutingPreferences, l Listener) (string, error) {
	p := domain.DefaultPreferences()
	if prefs != nil {
		p = *prefs
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != nil {
		return "", ErrBusy
	}

	coords, err := c.validate(stops, p)
	if err != nil {
		var ce *domain.CalculationError
		errors.As(err, &ce)
		c.log.Info("calculation rejected", zap.Stringer("error", ce.Code), zap.String("reason", ce.Reason))

		res := Result{
			CalculationID:   uuid.NewString(),
			Error:           ce.Code,
			Cause:           err,
			ViolatedOptions: []domain.RouteOptions{p.Options},
		}
		if derr := c.queue.Dispatch(func() { notify(l, res) }); derr != nil {
			c.log.Warn("drop rejection notice", zap.Error(derr))
		}
		return "", err
	}

	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if c.timeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), c.timeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}

	calc := &calculation{
		id:       uuid.NewString(),
		prefs:    p,
		listener: l,
		cancel:   cancel,
		started:  time.Now(),
	}
	c.current = calc

	c.log.Info("calculation started",
		zap.String("calc_id", calc.id),
		zap.Int("stops", len(coords)),
		zap.Stringer("mode", p.TransportMode),
		zap.Int("result_count", p.ResultCount),
	)

	go c.run(ctx, calc, coords)
	return calc.id, nil
}

// Cancel aborts the calculation in flight. It returns true whenever IsBusy
// would, including when a completion is queued but not yet delivered; the
// listener then receives exactly one completion with ErrorRoutingCancelled.
func (c *RouteCoordinator) Cancel() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancelLocked(c.current)
}

// CancelCalculation is Cancel restricted to the calculation with the given id,
// so a caller never aborts a calculation someone else started after its own.
func (c *RouteCoordinator) CancelCalculation(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil || c.current.id != id {
		return false
	}
	return c.cancelLocked(c.current)
}

func (c *RouteCoordinator) cancelLocked(calc *calculation) bool {
	if calc == nil {
		return false
	}

	calc.cancel()
	cancelled := Result{
		Error:           domain.ErrorRoutingCancelled,
		Cause:           context.Canceled,
		ViolatedOptions: []domain.RouteOptions{calc.prefs.Options},
	}
	if !calc.finished {
		c.finishLocked(calc, cancelled)
		return true
	}

	// Completion queued but not delivered yet: the slot is still held, so
	// the cancellation replaces the pending result.
	if calc.result.Error != domain.ErrorRoutingCancelled {
		cancelled.CalculationID = calc.id
		calc.result = cancelled
		c.log.Info("pending completion cancelled", zap.String("calc_id", calc.id))
	}
	return true
}

// IsBusy reports whether a calculation holds the slot. The slot is released
// when its completion is delivered.
func (c *RouteCoordinator) IsBusy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current != nil
}

func (c *RouteCoordinator) validate(stops []domain.Stop, p domain.RoutingPreferences) ([]domain.Coordinates, error) {
	invalid := func(format string, args ...any) error {
		return &domain.CalculationError{Code: domain.ErrorInvalidParameters, Reason: fmt.Sprintf(format, args...)}
	}

	if len(stops) < MinStops || len(stops) > c.maxStops {
		return nil, invalid("need between %d and %d stops, got %d", MinStops, c.maxStops, len(stops))
	}
	if err := p.Validate(); err != nil {
		return nil, invalid("%v", err)
	}

	coords := make([]domain.Coordinates, len(stops))
	for i, s := range stops {
		pos, err := s.Resolve()
		if err != nil {
			return nil, invalid("stop %d: %v", i, err)
		}
		coords[i] = pos
	}

	if p.TransportMode == domain.TransportPedestrian {
		var meters float64
		for i := 1; i < len(coords); i++ {
			meters += geo.Distance(coords[i-1].Point(), coords[i].Point())
		}
		if meters > c.maxPedestrianMeters {
			return nil, &domain.CalculationError{
				Code:   domain.ErrorCannotDoPedestrian,
				Reason: fmt.Sprintf("straight-line distance %.0fm exceeds pedestrian limit %.0fm", meters, c.maxPedestrianMeters),
			}
		}
	}
	return coords, nil
}

func (c *RouteCoordinator) run(ctx context.Context, calc *calculation, coords []domain.Coordinates) {
	defer calc.cancel()

	log := c.log.With(zap.String("calc_id", calc.id))
	res, err := c.compute(obs.WithRequestID(ctx, calc.id), log, calc, coords)
	if err != nil {
		res = Result{
			Error:           classify(err),
			Cause:           err,
			ViolatedOptions: []domain.RouteOptions{calc.prefs.Options},
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.finishLocked(calc, res)
}

func (c *RouteCoordinator) compute(
	ctx context.Context,
	log *zap.Logger,
	calc *calculation,
	coords []domain.Coordinates,
) (_ Result, err error) {
	defer obs.Time(ctx, log, "coordinator.compute")(&err)

	req := ports.EngineRequest{Waypoints: coords, Preferences: calc.prefs}
	paths, err := c.engine.CalculatePaths(ctx, req, func(p float32) { c.progress(calc, p) })
	if err != nil {
		return Result{}, fmt.Errorf("calculate paths: %w", err)
	}
	if len(paths) == 0 {
		return Result{}, &ports.EngineError{Code: domain.ErrorGraphDisconnected, Message: "engine returned no paths"}
	}

	n := min(len(paths), calc.prefs.ResultCount)
	res := Result{
		Routes:          make([]*domain.Route, 0, n),
		ViolatedOptions: make([]domain.RouteOptions, 0, n),
	}
	for i, path := range paths[:n] {
		route, err := AssembleRoute(coords, calc.prefs, path)
		if err != nil {
			return Result{}, fmt.Errorf("path %d: %w", i, err)
		}
		res.Routes = append(res.Routes, route)
		res.ViolatedOptions = append(res.ViolatedOptions, route.ViolatedOptions())
	}
	return res, nil
}

func (c *RouteCoordinator) progress(calc *calculation, p float32) {
	p = max(0, min(1, p))

	c.mu.Lock()
	defer c.mu.Unlock()
	if calc.finished {
		return
	}
	pl, ok := calc.listener.(ProgressListener)
	if !ok {
		return
	}
	if err := c.queue.Dispatch(func() { pl.OnProgress(p) }); err != nil {
		c.log.Debug("drop progress", zap.String("calc_id", calc.id), zap.Error(err))
	}
}

// finishLocked queues the one completion of calc. The slot is released on the
// control queue right before the listener runs, so the listener may start the
// next calculation.
func (c *RouteCoordinator) finishLocked(calc *calculation, res Result) {
	if calc.finished {
		return
	}
	calc.finished = true
	res.CalculationID = calc.id

	c.log.Info("calculation finished",
		zap.String("calc_id", calc.id),
		zap.Stringer("error", res.Error),
		zap.Int("routes", len(res.Routes)),
		zap.Duration("elapsed", time.Since(calc.started)),
	)

	calc.result = res

	err := c.queue.Dispatch(func() {
		c.mu.Lock()
		final := calc.result
		if c.current == calc {
			c.current = nil
		}
		c.mu.Unlock()
		notify(calc.listener, final)
	})
	if err != nil {
		c.log.Warn("drop completion", zap.String("calc_id", calc.id), zap.Error(err))
		if c.current == calc {
			c.current = nil
		}
	}
}

func notify(l Listener, res Result) {
	if l != nil {
		l.OnCalculated(res)
	}
}

// classify maps an engine failure onto the routing error taxonomy.
func classify(err error) domain.RoutingError {
	var engineErr *ports.EngineError
	if errors.As(err, &engineErr) {
		return engineErr.Code
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.ErrorTimeout
	}
	if errors.Is(err, context.Canceled) {
		return domain.ErrorRoutingCancelled
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return domain.ErrorTimeout
		}
		return domain.ErrorNetworkServer
	}
	return domain.ErrorUnknown
}
