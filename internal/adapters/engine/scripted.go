package engine

import (
	"context"
	"route-coordinator-service/internal/ports"
	"slices"
	"sync"
)

// Step is one scripted answer of a ScriptedEngine.
type Step struct {
	Progress []float32
	Paths    []ports.EnginePath
	Err      error
	// Hold makes the call wait for Release (or cancellation) after reporting
	// progress.
	Hold bool
}

// ScriptedEngine replays canned answers, one Step per call; the last step
// repeats. It records every request it receives.
type ScriptedEngine struct {
	mu       sync.Mutex
	steps    []Step
	requests []ports.EngineRequest
	release  chan struct{}
	entered  chan struct{}
}

func NewScriptedEngine(steps ...Step) *ScriptedEngine {
	return &ScriptedEngine{
		steps:   steps,
		release: make(chan struct{}),
		entered: make(chan struct{}, 16),
	}
}

func (s *ScriptedEngine) CalculatePaths(
	ctx context.Context,
	req ports.EngineRequest,
	progress ports.ProgressFunc,
) ([]ports.EnginePath, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	var step Step
	if len(s.steps) > 0 {
		step = s.steps[0]
		if len(s.steps) > 1 {
			s.steps = s.steps[1:]
		}
	}
	s.mu.Unlock()

	for _, p := range step.Progress {
		if progress != nil {
			progress(p)
		}
	}

	select {
	case s.entered <- struct{}{}:
	default:
	}

	if step.Hold {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-s.release:
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return step.Paths, step.Err
}

// Entered receives once per call, after the call has reported its progress.
func (s *ScriptedEngine) Entered() <-chan struct{} { return s.entered }

// Release lets one held call finish.
func (s *ScriptedEngine) Release() { s.release <- struct{}{} }

func (s *ScriptedEngine) Requests() []ports.EngineRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.requests)
}
