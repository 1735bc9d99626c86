package types

import "strings"

// Phase is the lifecycle phase of a component as reported by the component registry.
type Phase string

const (
	PhaseInstalled   Phase = "installed"
	PhaseResolved    Phase = "resolved"
	PhaseActive      Phase = "active"
	PhaseUninstalled Phase = "uninstalled"
)

// ParsePhase maps a manifest phase string to a Phase. Unknown or empty values
// are treated as active, which is how a component in service is reported.
func ParsePhase(s string) Phase {
	switch Phase(strings.ToLower(strings.TrimSpace(s))) {
	case PhaseInstalled:
		return PhaseInstalled
	case PhaseResolved:
		return PhaseResolved
	case PhaseUninstalled:
		return PhaseUninstalled
	case "started", PhaseActive:
		return PhaseActive
	default:
		return PhaseActive
	}
}

// EventKind classifies a component lifecycle change.
type EventKind int

const (
	// KindDefault is an observed transition that is neither an update nor a removal.
	KindDefault EventKind = iota
	KindAdded
	KindUpdated
	KindRemoved
)

func (k EventKind) String() string {
	switch k {
	case KindAdded:
		return "added"
	case KindUpdated:
		return "updated"
	case KindRemoved:
		return "removed"
	default:
		return "default"
	}
}

// RuleResource is a rule declared by a component. Template optionally names
// the template UID the rule is instantiated from.
type RuleResource struct {
	UID      string `json:"uid" yaml:"uid" toml:"uid"`
	Template string `json:"template,omitempty" yaml:"template,omitempty" toml:"template,omitempty"`
}

// Resources lists the automation resources a component declares.
type Resources struct {
	ModuleTypes []string       `json:"module_types,omitempty" yaml:"module_types,omitempty" toml:"module_types,omitempty"`
	Templates   []string       `json:"templates,omitempty" yaml:"templates,omitempty" toml:"templates,omitempty"`
	Rules       []RuleResource `json:"rules,omitempty" yaml:"rules,omitempty" toml:"rules,omitempty"`
}

// Empty reports whether no resources are declared.
func (r Resources) Empty() bool {
	return len(r.ModuleTypes) == 0 && len(r.Templates) == 0 && len(r.Rules) == 0
}

// Component is a snapshot of an installable unit tracked by the component registry.
// ID is stable across phase changes and is the identity used by all consumers.
type Component struct {
	ID    string `json:"id"`
	Phase Phase  `json:"phase"`
	// FragmentHost is non-empty when the component attaches to a host component.
	FragmentHost string    `json:"fragment_host,omitempty"`
	Resources    Resources `json:"resources"`
	// Source is the manifest file the component was read from, if any.
	Source string `json:"source,omitempty"`
}

// IsFragment reports whether the component declares a fragment host.
func (c Component) IsFragment() bool { return c.FragmentHost != "" }

// HostIDs returns the host IDs named by FragmentHost, which may list several
// hosts separated by commas.
func (c Component) HostIDs() []string {
	if c.FragmentHost == "" {
		return nil
	}
	var out []string
	for _, id := range strings.Split(c.FragmentHost, ",") {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}

// ProvidesResources reports whether the component declares automation resources.
func (c Component) ProvidesResources() bool { return !c.Resources.Empty() }

// ComponentEvent is an immutable record of one lifecycle change. Phase is the
// component phase observed when the event was built.
type ComponentEvent struct {
	Component Component
	Kind      EventKind
	Phase     Phase
}

// NewEvent builds an event of the given kind for c.
func NewEvent(c Component, kind EventKind) ComponentEvent {
	return ComponentEvent{Component: c, Kind: kind, Phase: c.Phase}
}

// EventFromPhase synthesizes an event from the component's current phase:
// installed and resolved components are added, anything else is a default transition.
func EventFromPhase(c Component) ComponentEvent {
	switch c.Phase {
	case PhaseInstalled, PhaseResolved:
		return NewEvent(c, KindAdded)
	default:
		return NewEvent(c, KindDefault)
	}
}

// Manifest is the on-disk description of a component (yaml, json or toml).
type Manifest struct {
	ID           string    `json:"id" yaml:"id" toml:"id"`
	Phase        string    `json:"phase,omitempty" yaml:"phase,omitempty" toml:"phase,omitempty"`
	FragmentHost string    `json:"fragment_host,omitempty" yaml:"fragment_host,omitempty" toml:"fragment_host,omitempty"`
	Resources    Resources `json:"resources" yaml:"resources" toml:"resources"`
}

// Component converts the manifest into a Component snapshot.
func (m Manifest) Component(source string) Component {
	return Component{
		ID:           strings.TrimSpace(m.ID),
		Phase:        ParsePhase(m.Phase),
		FragmentHost: strings.TrimSpace(m.FragmentHost),
		Resources:    m.Resources,
		Source:       source,
	}
}
