// Package mainloop provides the control context: a single goroutine that runs
// callbacks one at a time in the order they were dispatched.
package mainloop

import (
	"errors"
	"sync"

	"go.uber.org/zap"
)

var ErrClosed = errors.New("mainloop: queue closed")

type Queue struct {
	mu      sync.Mutex
	pending []func()
	closed  bool

	wake chan struct{}
	done chan struct{}
	log  *zap.Logger
}

// New starts the queue goroutine. Stop it with Close.
func New(log *zap.Logger) *Queue {
	if log == nil {
		log = zap.NewNop()
	}
	q := &Queue{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
		log:  log,
	}
	go q.run()
	return q
}

// Dispatch appends fn to the queue. It never blocks, so it is safe to call
// while holding a lock.
func (q *Queue) Dispatch(fn func()) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrClosed
	}
	q.pending = append(q.pending, fn)
	select {
	case q.wake <- struct{}{}:
	default:
	}
	q.mu.Unlock()
	return nil
}

// Flush blocks until every callback dispatched before the call has run.
func (q *Queue) Flush() {
	ran := make(chan struct{})
	if err := q.Dispatch(func() { close(ran) }); err != nil {
		<-q.done
		return
	}
	<-ran
}

// Close stops accepting callbacks, runs the ones already queued and waits for
// the queue goroutine to exit.
func (q *Queue) Close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.wake)
	}
	q.mu.Unlock()
	<-q.done
}

func (q *Queue) run() {
	defer close(q.done)

	for {
		q.mu.Lock()
		batch := q.pending
		q.pending = nil
		closed := q.closed
		q.mu.Unlock()

		for _, fn := range batch {
			q.call(fn)
		}

		if len(batch) > 0 {
			continue
		}
		if closed {
			return
		}
		<-q.wake
	}
}

func (q *Queue) call(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			q.log.Error("mainloop callback panicked", zap.Any("panic", r))
		}
	}()
	fn()
}
