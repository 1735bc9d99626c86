// Package dispatch routes component events to the consumer registries.
package dispatch

import (
	"errors"
	"fmt"
	"slices"

	"github.com/rs/zerolog"

	"providerd/internal/fragments"
	"providerd/pkg/types"
)

// Registry is a consumer of automation resources declared by components.
// Calling Process twice for the same component is the registry's concern.
type Registry interface {
	Name() string
	Ready() bool
	IsProcessed(c types.Component) bool
	Process(c types.Component) error
	Unprocess(c types.Component) error
}

// Op names a registry call in errors and logs.
type Op string

const (
	OpProcess   Op = "process"
	OpUnprocess Op = "unprocess"
)

// Error is a failed registry call for one event.
type Error struct {
	Component string
	Kind      types.EventKind
	Registry  string
	Op        Op
	Err       error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s of %s (%s event): %v", e.Registry, e.Op, e.Component, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

var zlog = zerolog.Nop()

// SetLogger installs the logger used for dispatch failures.
func SetLogger(l zerolog.Logger) { zlog = l }

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithErrorHandler registers fn to observe every failed registry call.
func WithErrorHandler(fn func(*Error)) Option {
	return func(d *Dispatcher) { d.onError = fn }
}

// Dispatcher applies events to the registries in a fixed order: module types,
// templates, then rules, since later consumers may reference definitions
// published by earlier ones.
type Dispatcher struct {
	registries []Registry
	tracker    *fragments.Tracker
	onError    func(*Error)
}

// New returns a dispatcher over the three consumer registries.
func New(tracker *fragments.Tracker, moduleTypes, templates, rules Registry, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registries: []Registry{moduleTypes, templates, rules},
		tracker:    tracker,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Registries returns the registries in processing order.
func (d *Dispatcher) Registries() []Registry {
	out := make([]Registry, len(d.registries))
	copy(out, d.registries)
	return out
}

// Ready reports whether every registry is ready.
func (d *Dispatcher) Ready() bool {
	for _, r := range d.registries {
		if !r.Ready() {
			return false
		}
	}
	return true
}

// AnyProcessed reports whether any registry has processed c.
func (d *Dispatcher) AnyProcessed(c types.Component) bool {
	for _, r := range d.registries {
		if r.IsProcessed(c) {
			return true
		}
	}
	return false
}

// Handle is the queue handler. Fragment events are redirected to an update
// of every host backing the fragment, plus any tracked host it was last seen
// on; other events go to Route.
func (d *Dispatcher) Handle(ev types.ComponentEvent) {
	if ev.Component.IsFragment() {
		for _, host := range d.hostsFor(ev.Component) {
			_ = d.Route(types.NewEvent(host, types.KindUpdated))
		}
		return
	}
	_ = d.Route(ev)
}

func (d *Dispatcher) hostsFor(fragment types.Component) []types.Component {
	hosts := d.tracker.HostsOf(fragment)
	for _, id := range d.tracker.HostsContaining(fragment.ID) {
		if slices.ContainsFunc(hosts, func(h types.Component) bool { return h.ID == id }) {
			continue
		}
		if h, ok := d.tracker.Current(id); ok {
			hosts = append(hosts, h)
		}
	}
	return hosts
}

// Route applies ev to every registry. Except for removals, the component is
// re-resolved first so registries see its current merged view; a component
// the resolver no longer knows is skipped. Failures are logged and collected;
// they never stop the remaining registry calls.
func (d *Dispatcher) Route(ev types.ComponentEvent) error {
	c := ev.Component
	if ev.Kind != types.KindRemoved {
		cur, ok := d.tracker.Current(c.ID)
		if !ok {
			zlog.Debug().Str("component", c.ID).Stringer("kind", ev.Kind).Msg("component gone, event skipped")
			return nil
		}
		c = cur
	}
	var errs []error
	for _, r := range d.registries {
		switch ev.Kind {
		case types.KindUpdated:
			if r.IsProcessed(c) {
				errs = d.call(errs, ev.Kind, c, r, OpUnprocess)
			}
			errs = d.call(errs, ev.Kind, c, r, OpProcess)
		case types.KindRemoved:
			if r.IsProcessed(c) {
				errs = d.call(errs, ev.Kind, c, r, OpUnprocess)
			}
		default:
			if !r.IsProcessed(c) {
				errs = d.call(errs, ev.Kind, c, r, OpProcess)
			}
		}
	}
	if ev.Kind == types.KindRemoved {
		d.tracker.Forget(c.ID)
	}
	return errors.Join(errs...)
}

func (d *Dispatcher) call(errs []error, kind types.EventKind, c types.Component, r Registry, op Op) []error {
	err := invoke(r, op, c)
	if err == nil {
		return errs
	}
	de := &Error{Component: c.ID, Kind: kind, Registry: r.Name(), Op: op, Err: err}
	zlog.Error().
		Err(err).
		Str("component", de.Component).
		Stringer("kind", de.Kind).
		Str("registry", de.Registry).
		Str("op", string(op)).
		Msg("dispatch failed")
	dispatchFailures.WithLabelValues(de.Registry, string(op)).Inc()
	if d.onError != nil {
		d.onError(de)
	}
	return append(errs, de)
}

// invoke converts a registry panic into an error.
func invoke(r Registry, op Op, c types.Component) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	if op == OpUnprocess {
		return r.Unprocess(c)
	}
	return r.Process(c)
}
