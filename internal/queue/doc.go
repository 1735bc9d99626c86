// Package queue implements the coalescing event queue that serializes
// component lifecycle events onto a single background worker.
//
// Producers call Submit from any goroutine. Events are appended to a live
// buffer under a short-held lock. The worker takes the whole buffer, marks it
// shared and iterates it without the lock; a Submit that observes a shared
// buffer starts a fresh one instead of mutating it. After iterating, the worker
// clears the buffer only if no producer replaced it in the meantime.
//
// The worker is spawned by the first Submit after a NotRunning state and
// retires after two consecutive empty observations: one that triggers a
// bounded idle wait and one right after waking with still nothing queued.
// Close latches the queue shut and wakes the worker; events still buffered at
// that point are dropped.
package queue
