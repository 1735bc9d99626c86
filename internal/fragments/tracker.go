// Package fragments tracks which fragment components are attached to which
// host components. The tracker owns its map and guards it with its own lock;
// the host/fragment relationship itself is answered by an external Resolver.
package fragments

import (
	"slices"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"providerd/pkg/types"
)

// Resolver answers host/fragment relationships for components. Hosts and
// Fragments may return an empty slice for components with no such
// relationship. Current returns the component as it is known now, with the
// resources of attached fragments merged into a host, and false once the
// component is gone.
type Resolver interface {
	Hosts(fragment types.Component) ([]types.Component, error)
	Fragments(host types.Component) ([]types.Component, error)
	Current(id string) (types.Component, bool)
}

var zlog = zerolog.Nop()

// SetLogger installs the logger used for resolver warnings.
func SetLogger(l zerolog.Logger) { zlog = l }

// Tracker maps host component IDs to the fragment IDs last observed on them.
type Tracker struct {
	resolver Resolver

	mu    sync.Mutex
	hosts map[string][]string // host id -> fragment ids
}

// NewTracker returns an empty tracker backed by r.
func NewTracker(r Resolver) *Tracker {
	return &Tracker{resolver: r, hosts: make(map[string][]string)}
}

// RecordFragmentsOf replaces the tracked fragment list of host with the
// resolver's current answer. The previous list is discarded, not merged.
func (t *Tracker) RecordFragmentsOf(host types.Component) {
	frags, err := t.resolver.Fragments(host)
	if err != nil {
		zlog.Warn().Err(err).Str("host", host.ID).Msg("fragment lookup failed")
		frags = nil
	}
	ids := make([]string, 0, len(frags))
	for _, f := range frags {
		if !slices.Contains(ids, f.ID) {
			ids = append(ids, f.ID)
		}
	}
	t.mu.Lock()
	t.hosts[host.ID] = ids
	t.mu.Unlock()
}

// RecordFragmentsOfAll records every host in order.
func (t *Tracker) RecordFragmentsOfAll(hosts []types.Component) {
	for _, h := range hosts {
		t.RecordFragmentsOf(h)
	}
}

// HostsOf returns the hosts currently backing fragment. A resolver failure is
// logged and reported as no hosts.
func (t *Tracker) HostsOf(fragment types.Component) []types.Component {
	hosts, err := t.resolver.Hosts(fragment)
	if err != nil {
		zlog.Warn().Err(err).Str("fragment", fragment.ID).Msg("host lookup failed")
		return nil
	}
	return hosts
}

// NeedsProcessing reports whether a fragment notification is new: false when
// hosts is empty or when fragment is already tracked under any of hosts.
func (t *Tracker) NeedsProcessing(fragment types.Component, hosts []types.Component) bool {
	if len(hosts) == 0 {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, h := range hosts {
		if slices.Contains(t.hosts[h.ID], fragment.ID) {
			return false
		}
	}
	return true
}

// HostsContaining returns the IDs of tracked hosts whose fragment list
// contains fragmentID, sorted.
func (t *Tracker) HostsContaining(fragmentID string) []string {
	t.mu.Lock()
	var out []string
	for id, frags := range t.hosts {
		if slices.Contains(frags, fragmentID) {
			out = append(out, id)
		}
	}
	t.mu.Unlock()
	sort.Strings(out)
	return out
}

// Current returns the resolver's present view of id.
func (t *Tracker) Current(id string) (types.Component, bool) {
	return t.resolver.Current(id)
}

// Forget drops the entry for hostID.
func (t *Tracker) Forget(hostID string) {
	t.mu.Lock()
	delete(t.hosts, hostID)
	t.mu.Unlock()
}

// Fragments returns the tracked fragment IDs of hostID and whether the host is tracked.
func (t *Tracker) Fragments(hostID string) ([]string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	frags, ok := t.hosts[hostID]
	if !ok {
		return nil, false
	}
	return slices.Clone(frags), true
}

// Snapshot returns a copy of the host to fragments mapping.
func (t *Tracker) Snapshot() map[string][]string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string][]string, len(t.hosts))
	for id, frags := range t.hosts {
		out[id] = slices.Clone(frags)
	}
	return out
}
