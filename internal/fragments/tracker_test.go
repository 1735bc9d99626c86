package fragments

import (
	"errors"
	"reflect"
	"testing"

	"providerd/pkg/types"
)

// fakeResolver answers from static maps keyed by component ID.
type fakeResolver struct {
	hosts     map[string][]types.Component
	fragments map[string][]types.Component
	known     map[string]types.Component
	err       error
}

func (f *fakeResolver) Current(id string) (types.Component, bool) {
	c, ok := f.known[id]
	return c, ok
}

func (f *fakeResolver) Hosts(c types.Component) ([]types.Component, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.hosts[c.ID], nil
}

func (f *fakeResolver) Fragments(c types.Component) ([]types.Component, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.fragments[c.ID], nil
}

func comp(id string) types.Component { return types.Component{ID: id, Phase: types.PhaseActive} }

func TestRecordFragmentsOfReplacesEntry(t *testing.T) {
	r := &fakeResolver{fragments: map[string][]types.Component{
		"h": {comp("f1"), comp("f2"), comp("f1")},
	}}
	tr := NewTracker(r)
	tr.RecordFragmentsOf(comp("h"))
	got, ok := tr.Fragments("h")
	if !ok || !reflect.DeepEqual(got, []string{"f1", "f2"}) {
		t.Fatalf("fragments = %v, %v", got, ok)
	}

	r.fragments["h"] = []types.Component{comp("f3")}
	tr.RecordFragmentsOf(comp("h"))
	got, _ = tr.Fragments("h")
	if !reflect.DeepEqual(got, []string{"f3"}) {
		t.Fatalf("expected full replace, got %v", got)
	}
}

func TestNeedsProcessing(t *testing.T) {
	r := &fakeResolver{fragments: map[string][]types.Component{"h1": {comp("f")}}}
	tr := NewTracker(r)
	f := comp("f")

	if tr.NeedsProcessing(f, nil) {
		t.Fatalf("no hosts should not need processing")
	}
	if !tr.NeedsProcessing(f, []types.Component{comp("h1"), comp("h2")}) {
		t.Fatalf("untracked fragment should need processing")
	}
	tr.RecordFragmentsOf(comp("h1"))
	if tr.NeedsProcessing(f, []types.Component{comp("h2"), comp("h1")}) {
		t.Fatalf("fragment tracked under h1 should be a duplicate")
	}
}

func TestResolverFailureIsEmpty(t *testing.T) {
	r := &fakeResolver{err: errors.New("boom")}
	tr := NewTracker(r)
	if hosts := tr.HostsOf(comp("f")); len(hosts) != 0 {
		t.Fatalf("expected no hosts, got %v", hosts)
	}
	tr.RecordFragmentsOf(comp("h"))
	got, ok := tr.Fragments("h")
	if !ok || len(got) != 0 {
		t.Fatalf("expected empty tracked entry, got %v %v", got, ok)
	}
}

func TestHostsContainingAndForget(t *testing.T) {
	r := &fakeResolver{fragments: map[string][]types.Component{
		"h2": {comp("f")},
		"h1": {comp("f"), comp("g")},
		"h3": {comp("g")},
	}}
	tr := NewTracker(r)
	tr.RecordFragmentsOfAll([]types.Component{comp("h2"), comp("h1"), comp("h3")})

	if hosts := tr.HostsContaining("f"); !reflect.DeepEqual(hosts, []string{"h1", "h2"}) {
		t.Fatalf("unexpected hosts: %v", hosts)
	}
	tr.Forget("h1")
	if _, ok := tr.Fragments("h1"); ok {
		t.Fatalf("h1 should be forgotten")
	}
	snap := tr.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("snapshot size = %d", len(snap))
	}
}

func TestTrackerKeepsIDsAndResolvesCurrent(t *testing.T) {
	old := comp("h")
	old.Resources.Templates = []string{"tpl.old"}
	r := &fakeResolver{
		fragments: map[string][]types.Component{"h": {comp("f")}},
		known:     map[string]types.Component{"h": old},
	}
	tr := NewTracker(r)
	tr.RecordFragmentsOf(old)

	cur := comp("h")
	cur.Resources.Templates = []string{"tpl.new"}
	r.known["h"] = cur
	got, ok := tr.Current(tr.HostsContaining("f")[0])
	if !ok || !reflect.DeepEqual(got.Resources.Templates, []string{"tpl.new"}) {
		t.Fatalf("expected the resolver's current host, got %+v %v", got, ok)
	}

	delete(r.known, "h")
	if _, ok := tr.Current("h"); ok {
		t.Fatalf("removed host still resolves")
	}
}
