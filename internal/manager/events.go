package manager

// Event names published by the manager.
const (
	EventComponentEnqueued = "component_enqueued"
	EventWorkerSpawned     = "worker_spawned"
	EventWorkerRetired     = "worker_retired"
	EventDispatchError     = "dispatch_error"
	EventOpened            = "opened"
	EventClosed            = "closed"
)

// Event represents a manager lifecycle event.
// Minimal and stable: name + component ID and optional fields via key/values.
type Event struct {
	Name        string
	ComponentID string
	Fields      map[string]any
}

// EventPublisher receives events from the manager. Implementations should be
// lightweight and non-blocking; Publish must not panic. Worker events are
// published from the worker goroutine.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}
