// Package manager tracks components that provide automation resources and
// serializes their lifecycle changes onto a single background worker. It is
// structured into small files by concern:
//
//   - manager.go: core Manager type, Open/Close and simple getters.
//   - config.go: ManagerConfig and package defaults; NewWithConfig applies defaults.
//   - lifecycle.go: watcher entry points (AddingComponent, ModifiedComponent, RemovedComponent).
//   - types.go: manager state and the read-only Snapshot.
//   - errors.go: error types and helpers (IsNotReady, IsClosed).
//   - events.go, eventpub_memory.go: lifecycle event publishing.
//   - status_report.go: Status/Snapshot reporting helpers.
//
// The component watcher drives the manager; the manager consults the
// fragments.Tracker, appends to the queue.Queue and lets the worker hand each
// event to the dispatch.Dispatcher, which calls the consumer registries.
package manager
