package manager

import (
	"sync"

	"github.com/rs/zerolog"

	"providerd/internal/dispatch"
	"providerd/internal/fragments"
	"providerd/internal/queue"
)

var zlog = zerolog.Nop()

// SetLogger installs the structured logger used by the manager.
func SetLogger(l zerolog.Logger) { zlog = l }

type Manager struct {
	mu    sync.RWMutex
	state State
	pub   EventPublisher

	tracker    *fragments.Tracker
	dispatcher *dispatch.Dispatcher
	queue      *queue.Queue
}

// Open starts accepting watcher callbacks once every registry reports ready.
// Calling Open on an open manager is a no-op.
func (m *Manager) Open() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.state {
	case StateClosed:
		return ErrClosed
	case StateOpen:
		return nil
	}
	for _, r := range m.dispatcher.Registries() {
		if !r.Ready() {
			return notReadyError{registry: r.Name()}
		}
	}
	m.state = StateOpen
	zlog.Info().Msg("component tracking opened")
	m.pub.Publish(Event{Name: EventOpened})
	return nil
}

// Close stops accepting events and signals the worker to retire. Events
// still buffered are dropped. Close does not wait for the worker.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.state == StateClosed {
		m.mu.Unlock()
		return nil
	}
	m.state = StateClosed
	m.mu.Unlock()
	m.queue.Close()
	zlog.Info().Msg("component tracking closed")
	m.publish(Event{Name: EventClosed})
	return nil
}

// Ready reports whether the manager is open and every registry is ready.
func (m *Manager) Ready() bool {
	m.mu.RLock()
	open := m.state == StateOpen
	m.mu.RUnlock()
	return open && m.dispatcher.Ready()
}

// Tracker exposes the host/fragment tracker (read-mostly).
func (m *Manager) Tracker() *fragments.Tracker { return m.tracker }

// SetEventPublisher replaces the event publisher; nil restores the no-op publisher.
func (m *Manager) SetEventPublisher(p EventPublisher) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p == nil {
		m.pub = noopPublisher{}
		return
	}
	m.pub = p
}

func (m *Manager) publish(e Event) {
	m.mu.RLock()
	p := m.pub
	m.mu.RUnlock()
	p.Publish(e)
}

func (m *Manager) accepting() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state == StateOpen
}

func (m *Manager) onDispatchError(e *dispatch.Error) {
	m.publish(Event{
		Name:        EventDispatchError,
		ComponentID: e.Component,
		Fields: map[string]any{
			"kind":     e.Kind.String(),
			"registry": e.Registry,
			"op":       string(e.Op),
			"error":    e.Err.Error(),
		},
	})
}
