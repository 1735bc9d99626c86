package manager

import (
	"time"

	"providerd/internal/dispatch"
	"providerd/internal/fragments"
	"providerd/internal/queue"
)

// Defaults applied when corresponding ManagerConfig fields are unset.
const (
	defaultIdleTimeout = queue.DefaultIdleTimeout
	defaultQueueName   = "automation-resources"
)

// ManagerConfig encapsulates all collaborators and tunables for Manager construction.
// Registries are applied in field order: ModuleTypes, Templates, Rules.
type ManagerConfig struct {
	Resolver    fragments.Resolver
	ModuleTypes dispatch.Registry
	Templates   dispatch.Registry
	Rules       dispatch.Registry
	// IdleTimeout bounds how long an idle worker waits before retiring.
	IdleTimeout time.Duration
	QueueName   string
	Publisher   EventPublisher
}

// NewWithConfig constructs a Manager from ManagerConfig. Resolver and the
// three registries are required.
func NewWithConfig(cfg ManagerConfig) *Manager {
	if cfg.Resolver == nil || cfg.ModuleTypes == nil || cfg.Templates == nil || cfg.Rules == nil {
		panic("manager: resolver and all three registries are required")
	}
	m := &Manager{
		state: StateLoading,
		pub:   noopPublisher{},
	}
	if cfg.Publisher != nil {
		m.pub = cfg.Publisher
	}
	// Apply defaults if unset
	idle := cfg.IdleTimeout
	if idle <= 0 {
		idle = defaultIdleTimeout
	}
	name := cfg.QueueName
	if name == "" {
		name = defaultQueueName
	}
	m.tracker = fragments.NewTracker(cfg.Resolver)
	m.dispatcher = dispatch.New(m.tracker, cfg.ModuleTypes, cfg.Templates, cfg.Rules,
		dispatch.WithErrorHandler(m.onDispatchError))
	m.queue = queue.New(m.dispatcher.Handle, queue.Options{
		Name:          name,
		IdleTimeout:   idle,
		OnWorkerStart: func() { m.publish(Event{Name: EventWorkerSpawned}) },
		OnWorkerStop: func(reason string) {
			m.publish(Event{Name: EventWorkerRetired, Fields: map[string]any{"reason": reason}})
		},
	})
	return m
}
