package manager

import (
	"providerd/pkg/types"
)

// AddingComponent is called when the watcher starts tracking c. It returns
// false when c is not tracked: the manager is not open or c declares no
// automation resources. A nil ev is synthesized from the phase of c.
//
// A fragment is enqueued only if it is not yet recorded under any of its
// hosts; the fragments of those hosts are then re-recorded. Any other
// component is enqueued and its own fragments recorded.
func (m *Manager) AddingComponent(c types.Component, ev *types.ComponentEvent) bool {
	if !m.accepting() || !c.ProvidesResources() {
		return false
	}
	if c.IsFragment() {
		hosts := m.tracker.HostsOf(c)
		if m.tracker.NeedsProcessing(c, hosts) {
			m.submit(c, ev)
			m.tracker.RecordFragmentsOfAll(hosts)
		}
		return true
	}
	m.submit(c, ev)
	m.tracker.RecordFragmentsOf(c)
	return true
}

// ModifiedComponent is called when a tracked component changed. Only updates
// and transitions into the resolved phase are enqueued. An enqueued fragment
// is recorded under its current hosts, a host re-records its fragments.
func (m *Manager) ModifiedComponent(c types.Component, ev *types.ComponentEvent) {
	if !m.accepting() {
		return
	}
	e := types.EventFromPhase(c)
	if ev != nil {
		e = *ev
	}
	if e.Kind != types.KindUpdated && e.Phase != types.PhaseResolved {
		return
	}
	m.submit(c, &e)
	if c.IsFragment() {
		m.tracker.RecordFragmentsOfAll(m.tracker.HostsOf(c))
		return
	}
	m.tracker.RecordFragmentsOf(c)
}

// RemovedComponent is called when the watcher stops tracking c. The removal
// is enqueued if any registry processed c. A removed fragment also re-records
// every tracked host it was attached to and enqueues an update for it; hosts
// the resolver no longer knows are dropped from the tracker instead.
func (m *Manager) RemovedComponent(c types.Component, ev *types.ComponentEvent) {
	if !m.accepting() {
		return
	}
	e := types.NewEvent(c, types.KindRemoved)
	if ev != nil {
		e = *ev
	}
	if m.dispatcher.AnyProcessed(c) {
		m.submit(c, &e)
	}
	if !c.IsFragment() {
		return
	}
	for _, id := range m.tracker.HostsContaining(c.ID) {
		host, ok := m.tracker.Current(id)
		if !ok {
			m.tracker.Forget(id)
			continue
		}
		m.tracker.RecordFragmentsOf(host)
		upd := types.NewEvent(host, types.KindUpdated)
		m.submit(host, &upd)
	}
}

func (m *Manager) submit(c types.Component, ev *types.ComponentEvent) {
	if !m.queue.Submit(c, ev) {
		return
	}
	kind := types.EventFromPhase(c).Kind
	if ev != nil {
		kind = ev.Kind
	}
	m.publish(Event{
		Name:        EventComponentEnqueued,
		ComponentID: c.ID,
		Fields:      map[string]any{"kind": kind.String()},
	})
}
