package types

import (
	"reflect"
	"testing"
)

func TestEventFromPhase(t *testing.T) {
	cases := map[Phase]EventKind{
		PhaseInstalled: KindAdded,
		PhaseResolved:  KindAdded,
		PhaseActive:    KindDefault,
	}
	for phase, want := range cases {
		ev := EventFromPhase(Component{ID: "c", Phase: phase})
		if ev.Kind != want || ev.Phase != phase {
			t.Fatalf("%s: got %+v", phase, ev)
		}
	}
}

func TestParsePhase(t *testing.T) {
	if ParsePhase(" Resolved ") != PhaseResolved || ParsePhase("started") != PhaseActive || ParsePhase("") != PhaseActive {
		t.Fatalf("unexpected phase parsing")
	}
	if ParsePhase("uninstalled") != PhaseUninstalled || ParsePhase("installed") != PhaseInstalled {
		t.Fatalf("unexpected phase parsing")
	}
}

func TestHostIDs(t *testing.T) {
	c := Component{ID: "f", FragmentHost: "h1, h2,,"}
	if got := c.HostIDs(); !reflect.DeepEqual(got, []string{"h1", "h2"}) {
		t.Fatalf("hosts = %v", got)
	}
	if (Component{}).HostIDs() != nil {
		t.Fatalf("expected nil hosts")
	}
}

func TestManifestComponent(t *testing.T) {
	m := Manifest{ID: " a ", Phase: "resolved", Resources: Resources{Templates: []string{"t"}}}
	c := m.Component("/x/a.yaml")
	if c.ID != "a" || c.Phase != PhaseResolved || !c.ProvidesResources() || c.Source != "/x/a.yaml" {
		t.Fatalf("unexpected component: %+v", c)
	}
	if KindRemoved.String() != "removed" || EventKind(99).String() != "default" {
		t.Fatalf("unexpected kind strings")
	}
}
