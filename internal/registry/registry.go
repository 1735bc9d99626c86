// Package registry holds the set of known components and answers host and
// fragment relationships between them.
package registry

import (
	"reflect"
	"slices"
	"sort"
	"sync"

	"providerd/pkg/types"
)

// Diff is the result of replacing the component set. Removed holds the last
// known snapshot of each removed component.
type Diff struct {
	Added    []types.Component
	Modified []Change
	Removed  []types.Component
}

// Change pairs the previous and current snapshot of a component.
type Change struct {
	Old types.Component
	New types.Component
}

// ContentChanged reports whether resources or fragment hosts differ.
func (c Change) ContentChanged() bool {
	return c.Old.FragmentHost != c.New.FragmentHost || !reflect.DeepEqual(c.Old.Resources, c.New.Resources)
}

// Empty reports whether nothing changed.
func (d Diff) Empty() bool {
	return len(d.Added) == 0 && len(d.Modified) == 0 && len(d.Removed) == 0
}

// Registry is an in-memory, concurrency-safe component set.
type Registry struct {
	mu    sync.RWMutex
	comps map[string]types.Component
}

func New() *Registry {
	return &Registry{comps: make(map[string]types.Component)}
}

// Replace installs comps as the full component set and reports what changed.
// Added and Removed list hosts before fragments, then order by ID.
func (r *Registry) Replace(comps []types.Component) Diff {
	next := make(map[string]types.Component, len(comps))
	for _, c := range comps {
		next[c.ID] = c
	}
	r.mu.Lock()
	prev := r.comps
	r.comps = next
	r.mu.Unlock()

	var d Diff
	for id, c := range next {
		old, ok := prev[id]
		switch {
		case !ok:
			d.Added = append(d.Added, c)
		case !reflect.DeepEqual(old, c):
			d.Modified = append(d.Modified, Change{Old: old, New: c})
		}
	}
	for id, c := range prev {
		if _, ok := next[id]; !ok {
			d.Removed = append(d.Removed, c)
		}
	}
	sortHostsFirst(d.Added)
	sortHostsFirst(d.Removed)
	sort.Slice(d.Modified, func(i, j int) bool { return d.Modified[i].New.ID < d.Modified[j].New.ID })
	return d
}

func sortHostsFirst(cs []types.Component) {
	sort.Slice(cs, func(i, j int) bool {
		fi, fj := cs[i].IsFragment(), cs[j].IsFragment()
		if fi != fj {
			return !fi
		}
		return cs[i].ID < cs[j].ID
	})
}

// Get returns the component with id.
func (r *Registry) Get(id string) (types.Component, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.comps[id]
	return c, ok
}

// List returns all components ordered by ID.
func (r *Registry) List() []types.Component {
	r.mu.RLock()
	out := make([]types.Component, 0, len(r.comps))
	for _, c := range r.comps {
		out = append(out, c)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Hosts returns the known hosts named by fragment, in declaration order.
func (r *Registry) Hosts(fragment types.Component) ([]types.Component, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []types.Component
	for _, id := range fragment.HostIDs() {
		if h, ok := r.comps[id]; ok {
			out = append(out, h)
		}
	}
	return out, nil
}

// Fragments returns the known fragments attached to host, ordered by ID.
func (r *Registry) Fragments(host types.Component) ([]types.Component, error) {
	r.mu.RLock()
	var out []types.Component
	for _, c := range r.comps {
		if slices.Contains(c.HostIDs(), host.ID) {
			out = append(out, c)
		}
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Current returns the component with id as consumers should see it: a host
// carries the resources of its attached fragments appended to its own, in
// fragment ID order, with duplicate UIDs dropped. Fragments are returned as
// declared.
func (r *Registry) Current(id string) (types.Component, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.comps[id]
	if !ok {
		return types.Component{}, false
	}
	if c.IsFragment() {
		return c, true
	}
	var frags []types.Component
	for _, f := range r.comps {
		if slices.Contains(f.HostIDs(), id) {
			frags = append(frags, f)
		}
	}
	sort.Slice(frags, func(i, j int) bool { return frags[i].ID < frags[j].ID })
	c.Resources = mergeResources(c.Resources, frags)
	return c, true
}

func mergeResources(own types.Resources, frags []types.Component) types.Resources {
	out := types.Resources{
		ModuleTypes: slices.Clone(own.ModuleTypes),
		Templates:   slices.Clone(own.Templates),
		Rules:       slices.Clone(own.Rules),
	}
	for _, f := range frags {
		for _, uid := range f.Resources.ModuleTypes {
			if !slices.Contains(out.ModuleTypes, uid) {
				out.ModuleTypes = append(out.ModuleTypes, uid)
			}
		}
		for _, uid := range f.Resources.Templates {
			if !slices.Contains(out.Templates, uid) {
				out.Templates = append(out.Templates, uid)
			}
		}
		for _, rule := range f.Resources.Rules {
			if !slices.ContainsFunc(out.Rules, func(x types.RuleResource) bool { return x.UID == rule.UID }) {
				out.Rules = append(out.Rules, rule)
			}
		}
	}
	return out
}
