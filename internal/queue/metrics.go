package queue

import "github.com/prometheus/client_golang/prometheus"

var (
	eventsSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "providerd",
			Subsystem: "queue",
			Name:      "events_submitted_total",
			Help:      "Component events appended to the queue",
		},
		[]string{"queue", "kind"},
	)

	eventsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "providerd",
			Subsystem: "queue",
			Name:      "events_dropped_total",
			Help:      "Component events rejected because the queue was closed",
		},
		[]string{"queue"},
	)

	eventsDispatched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "providerd",
			Subsystem: "queue",
			Name:      "events_dispatched_total",
			Help:      "Component events handed to the dispatcher",
		},
		[]string{"queue", "kind"},
	)

	dispatchPanics = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "providerd",
			Subsystem: "queue",
			Name:      "dispatch_panics_total",
			Help:      "Event handler panics recovered by the worker",
		},
		[]string{"queue"},
	)

	workerSpawns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "providerd",
			Subsystem: "queue",
			Name:      "worker_spawns_total",
			Help:      "Workers started",
		},
		[]string{"queue"},
	)

	workerRetirements = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "providerd",
			Subsystem: "queue",
			Name:      "worker_retirements_total",
			Help:      "Workers stopped, by reason",
		},
		[]string{"queue", "reason"},
	)

	workerRunning = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "providerd",
			Subsystem: "queue",
			Name:      "worker_running",
			Help:      "1 while a worker is live",
		},
		[]string{"queue"},
	)

	pendingEvents = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "providerd",
			Subsystem: "queue",
			Name:      "pending_events",
			Help:      "Events in the live buffer",
		},
		[]string{"queue"},
	)
)

func init() {
	prometheus.MustRegister(
		eventsSubmitted,
		eventsDropped,
		eventsDispatched,
		dispatchPanics,
		workerSpawns,
		workerRetirements,
		workerRunning,
		pendingEvents,
	)
}
