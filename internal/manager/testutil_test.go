package manager

import (
	"sync"
	"testing"
	"time"

	"providerd/pkg/types"
)

// callLog is shared by the registries of one test so cross-registry order is visible.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(s string) {
	l.mu.Lock()
	l.calls = append(l.calls, s)
	l.mu.Unlock()
}

func (l *callLog) get() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

// recordingRegistry is a thread-safe registry fake that logs every call.
type recordingRegistry struct {
	name  string
	log   *callLog
	ready bool

	mu        sync.Mutex
	processed map[string]bool
}

func newRegistry(name string, log *callLog, processed ...string) *recordingRegistry {
	r := &recordingRegistry{name: name, log: log, ready: true, processed: map[string]bool{}}
	for _, id := range processed {
		r.processed[id] = true
	}
	return r
}

func (r *recordingRegistry) Name() string { return r.name }
func (r *recordingRegistry) Ready() bool  { return r.ready }

func (r *recordingRegistry) IsProcessed(c types.Component) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.processed[c.ID]
}

func (r *recordingRegistry) Process(c types.Component) error {
	r.log.add(r.name + ":process:" + c.ID)
	r.mu.Lock()
	r.processed[c.ID] = true
	r.mu.Unlock()
	return nil
}

func (r *recordingRegistry) Unprocess(c types.Component) error {
	r.log.add(r.name + ":unprocess:" + c.ID)
	r.mu.Lock()
	delete(r.processed, c.ID)
	r.mu.Unlock()
	return nil
}

func (r *recordingRegistry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.processed)
}

type fakeResolver struct {
	hosts     map[string][]types.Component
	fragments map[string][]types.Component
	known     map[string]types.Component
}

func (f fakeResolver) Current(id string) (types.Component, bool) {
	c, ok := f.known[id]
	return c, ok
}

// known indexes components by ID for fakeResolver.Current.
func known(cs ...types.Component) map[string]types.Component {
	m := make(map[string]types.Component, len(cs))
	for _, c := range cs {
		m[c.ID] = c
	}
	return m
}

func (f fakeResolver) Hosts(c types.Component) ([]types.Component, error) {
	return f.hosts[c.ID], nil
}

func (f fakeResolver) Fragments(c types.Component) ([]types.Component, error) {
	return f.fragments[c.ID], nil
}

type fixture struct {
	m                    *Manager
	log                  *callLog
	modules, tpls, rules *recordingRegistry
	pub                  *MemoryPublisher
}

func newFixture(t *testing.T, res fakeResolver) *fixture {
	t.Helper()
	log := &callLog{}
	f := &fixture{
		log:     log,
		modules: newRegistry("modules", log),
		tpls:    newRegistry("templates", log),
		rules:   newRegistry("rules", log),
		pub:     NewMemoryPublisher(),
	}
	f.m = NewWithConfig(ManagerConfig{
		Resolver:    res,
		ModuleTypes: f.modules,
		Templates:   f.tpls,
		Rules:       f.rules,
		IdleTimeout: 20 * time.Millisecond,
		Publisher:   f.pub,
	})
	t.Cleanup(func() { _ = f.m.Close() })
	return f
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, d time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", d)
}

func provider(id string) types.Component {
	return types.Component{
		ID:        id,
		Phase:     types.PhaseActive,
		Resources: types.Resources{Templates: []string{id + ".tpl"}},
	}
}

func fragment(id, host string) types.Component {
	c := provider(id)
	c.FragmentHost = host
	c.Phase = types.PhaseResolved
	return c
}
