package manager

import (
	"providerd/pkg/types"
)

// Counter is implemented by registries that can report how many components
// they have processed.
type Counter interface {
	Count() int
}

// Snapshot returns a read-only view of the manager state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	state := m.state
	m.mu.RUnlock()
	return Snapshot{State: state, WorkerRunning: m.queue.Running(), Pending: m.queue.Len()}
}

// Status builds a detailed status response for /status.
func (m *Manager) Status() types.StatusResponse {
	s := m.Snapshot()
	resp := types.StatusResponse{
		State:         string(s.State),
		WorkerRunning: s.WorkerRunning,
		Pending:       s.Pending,
		Fragments:     m.tracker.Snapshot(),
	}
	for _, r := range m.dispatcher.Registries() {
		cs := types.ConsumerStatus{Name: r.Name(), Ready: r.Ready()}
		if c, ok := r.(Counter); ok {
			cs.Processed = c.Count()
		}
		resp.Consumers = append(resp.Consumers, cs)
	}
	return resp
}
