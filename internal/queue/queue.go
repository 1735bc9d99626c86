package queue

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"providerd/pkg/types"
)

// DefaultIdleTimeout is how long an idle worker waits for new events before
// its second empty observation.
const DefaultIdleTimeout = 3 * time.Minute

// Handler processes one event on the worker goroutine. It is expected to
// handle its own errors; a panic is recovered and logged per event.
type Handler func(types.ComponentEvent)

// Options configures a Queue. Zero values select defaults.
type Options struct {
	Name        string
	IdleTimeout time.Duration
	// OnWorkerStart and OnWorkerStop are invoked on the worker goroutine.
	// OnWorkerStop runs with the queue lock held, so a retirement is always
	// reported before the next worker starts; it must not call Submit.
	// reason is "idle" or "closed".
	OnWorkerStart func()
	OnWorkerStop  func(reason string)
}

var zlog = zerolog.Nop()

// SetLogger installs the logger used by all queues.
func SetLogger(l zerolog.Logger) { zlog = l }

type buffer struct {
	events []types.ComponentEvent
	// shared is set while the worker iterates events outside the lock.
	shared bool
}

// Queue buffers component events and drains them on a single worker.
type Queue struct {
	name        string
	handler     Handler
	idleTimeout time.Duration
	onStart     func()
	onStop      func(string)

	mu     sync.Mutex
	buf    *buffer
	closed bool

	running atomic.Bool
	workers atomic.Int32
	wake    chan struct{}
	done    chan struct{}
}

// New returns an open queue that hands every event to h.
func New(h Handler, opts Options) *Queue {
	if h == nil {
		panic("queue: nil handler")
	}
	q := &Queue{
		name:        opts.Name,
		handler:     h,
		idleTimeout: opts.IdleTimeout,
		onStart:     opts.OnWorkerStart,
		onStop:      opts.OnWorkerStop,
		buf:         &buffer{},
		wake:        make(chan struct{}, 1),
		done:        make(chan struct{}),
	}
	if q.name == "" {
		q.name = "components"
	}
	if q.idleTimeout <= 0 {
		q.idleTimeout = DefaultIdleTimeout
	}
	return q
}

// Submit appends an event for c. A nil ev is synthesized from the current
// phase of c. It returns false without side effects once the queue is closed.
func (q *Queue) Submit(c types.Component, ev *types.ComponentEvent) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		eventsDropped.WithLabelValues(q.name).Inc()
		return false
	}
	if q.buf.shared {
		q.buf = &buffer{}
	}
	e := types.EventFromPhase(c)
	if ev != nil {
		e = *ev
	}
	q.buf.events = append(q.buf.events, e)
	eventsSubmitted.WithLabelValues(q.name, e.Kind.String()).Inc()
	pendingEvents.WithLabelValues(q.name).Set(float64(len(q.buf.events)))
	zlog.Debug().Str("queue", q.name).Str("component", e.Component.ID).Stringer("kind", e.Kind).Msg("event enqueued")

	if q.running.CompareAndSwap(false, true) {
		workerSpawns.WithLabelValues(q.name).Inc()
		workerRunning.WithLabelValues(q.name).Set(1)
		go q.run()
		return true
	}
	select {
	case q.wake <- struct{}{}:
	default:
	}
	return true
}

// Close latches the queue shut and wakes the worker. It does not wait for the
// worker to exit.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()
	close(q.done)
}

// Closed reports whether Close has been called.
func (q *Queue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Running reports whether a worker is live.
func (q *Queue) Running() bool { return q.running.Load() }

// Len returns the number of events in the live buffer. While the worker
// iterates a shared buffer its events are still counted.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.buf.events)
}

func (q *Queue) run() {
	if n := q.workers.Add(1); n != 1 {
		panic(fmt.Sprintf("queue %s: %d workers running", q.name, n))
	}
	zlog.Debug().Str("queue", q.name).Msg("worker started")
	if q.onStart != nil {
		q.onStart()
	}
	waited := false
	for {
		q.mu.Lock()
		if q.closed {
			q.retireLocked("closed")
			q.mu.Unlock()
			return
		}
		if len(q.buf.events) == 0 {
			if !waited {
				q.mu.Unlock()
				q.idleWait()
				waited = true
				continue
			}
			q.retireLocked("idle")
			q.mu.Unlock()
			return
		}
		snap := q.buf
		snap.shared = true
		events := snap.events
		// events about to be drained may have left a wake token behind
		select {
		case <-q.wake:
		default:
		}
		q.mu.Unlock()

		for _, ev := range events {
			q.dispatch(ev)
		}

		q.mu.Lock()
		if q.buf == snap {
			snap.events = snap.events[:0]
			snap.shared = false
		}
		pendingEvents.WithLabelValues(q.name).Set(float64(len(q.buf.events)))
		waited = false
		q.mu.Unlock()
	}
}

// retireLocked must run under q.mu so that a concurrent Submit either sees the
// worker running (and its events get drained) or spawns a new one.
func (q *Queue) retireLocked(reason string) {
	q.workers.Add(-1)
	q.running.Store(false)
	workerRunning.WithLabelValues(q.name).Set(0)
	workerRetirements.WithLabelValues(q.name, reason).Inc()
	zlog.Debug().Str("queue", q.name).Str("reason", reason).Msg("worker stopped")
	if q.onStop != nil {
		q.onStop(reason)
	}
}

func (q *Queue) idleWait() {
	t := time.NewTimer(q.idleTimeout)
	defer t.Stop()
	select {
	case <-q.wake:
	case <-q.done:
	case <-t.C:
	}
}

func (q *Queue) dispatch(ev types.ComponentEvent) {
	defer func() {
		if r := recover(); r != nil {
			dispatchPanics.WithLabelValues(q.name).Inc()
			zlog.Error().
				Str("queue", q.name).
				Str("component", ev.Component.ID).
				Stringer("kind", ev.Kind).
				Interface("panic", r).
				Msg("event handler panicked")
		}
	}()
	q.handler(ev)
	eventsDispatched.WithLabelValues(q.name, ev.Kind.String()).Inc()
}
