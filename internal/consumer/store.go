// Package consumer provides in-memory consumer registries for the three kinds
// of automation resources: module types, templates and rules.
package consumer

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"providerd/pkg/types"
)

// Store indexes resource UIDs by the component that declared them.
type Store struct {
	name     string
	extract  func(types.Component) []string
	validate func(types.Component) error

	ready atomic.Bool

	mu     sync.RWMutex
	owned  map[string][]string // component id -> uids
	owners map[string]string   // uid -> component id
}

func newStore(name string, extract func(types.Component) []string) *Store {
	s := &Store{
		name:    name,
		extract: extract,
		owned:   make(map[string][]string),
		owners:  make(map[string]string),
	}
	s.ready.Store(true)
	return s
}

// NewModuleTypes returns the module-type provider.
func NewModuleTypes() *Store {
	return newStore("module_types", func(c types.Component) []string { return c.Resources.ModuleTypes })
}

// NewTemplates returns the template provider.
func NewTemplates() *Store {
	return newStore("templates", func(c types.Component) []string { return c.Resources.Templates })
}

// NewRules returns the rule importer. A rule naming a template is rejected
// unless templates already holds that template.
func NewRules(templates *Store) *Store {
	s := newStore("rules", func(c types.Component) []string {
		uids := make([]string, 0, len(c.Resources.Rules))
		for _, r := range c.Resources.Rules {
			uids = append(uids, r.UID)
		}
		return uids
	})
	s.validate = func(c types.Component) error {
		for _, r := range c.Resources.Rules {
			if r.Template != "" && !templates.Has(r.Template) {
				return fmt.Errorf("rule %s: unknown template %s", r.UID, r.Template)
			}
		}
		return nil
	}
	return s
}

func (s *Store) Name() string { return s.name }

func (s *Store) Ready() bool { return s.ready.Load() }

// SetReady toggles readiness.
func (s *Store) SetReady(v bool) { s.ready.Store(v) }

func (s *Store) IsProcessed(c types.Component) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.owned[c.ID]
	return ok
}

// Process registers the resources of c. It fails without side effects when a
// UID is owned by another component or validation rejects c.
func (s *Store) Process(c types.Component) error {
	if s.validate != nil {
		if err := s.validate(c); err != nil {
			return err
		}
	}
	uids := s.extract(c)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, uid := range uids {
		if uid == "" {
			return fmt.Errorf("%s: empty uid in %s", s.name, c.ID)
		}
		if owner, ok := s.owners[uid]; ok && owner != c.ID {
			return fmt.Errorf("%s: %s already provided by %s", s.name, uid, owner)
		}
	}
	s.removeLocked(c.ID)
	for _, uid := range uids {
		s.owners[uid] = c.ID
	}
	s.owned[c.ID] = append([]string(nil), uids...)
	return nil
}

// Unprocess removes every resource registered for c.
func (s *Store) Unprocess(c types.Component) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.owned[c.ID]; !ok {
		return fmt.Errorf("%s: %s not processed", s.name, c.ID)
	}
	s.removeLocked(c.ID)
	return nil
}

func (s *Store) removeLocked(id string) {
	for _, uid := range s.owned[id] {
		if s.owners[uid] == id {
			delete(s.owners, uid)
		}
	}
	delete(s.owned, id)
}

// Has reports whether uid is currently provided.
func (s *Store) Has(uid string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.owners[uid]
	return ok
}

// Count returns the number of processed components.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.owned)
}

// UIDs returns all provided UIDs, sorted.
func (s *Store) UIDs() []string {
	s.mu.RLock()
	out := make([]string, 0, len(s.owners))
	for uid := range s.owners {
		out = append(out, uid)
	}
	s.mu.RUnlock()
	sort.Strings(out)
	return out
}
