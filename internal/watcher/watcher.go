package watcher

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"providerd/internal/common/fsutil"
	"providerd/internal/registry"
	"providerd/pkg/types"
)

const defaultDebounce = 200 * time.Millisecond

// Sink receives component lifecycle callbacks. A nil event asks the sink to
// derive one from the component phase.
type Sink interface {
	AddingComponent(c types.Component, ev *types.ComponentEvent) bool
	ModifiedComponent(c types.Component, ev *types.ComponentEvent)
	RemovedComponent(c types.Component, ev *types.ComponentEvent)
}

// Options configures a Watcher.
type Options struct {
	Dir      string
	Debounce time.Duration
	Logger   *zerolog.Logger
	// Load overrides directory scanning; used by tests.
	Load func(dir string) ([]types.Component, error)
}

// Watcher scans a components directory into a registry and reports changes to a sink.
type Watcher struct {
	dir      string
	debounce time.Duration
	reg      *registry.Registry
	sink     Sink
	logger   zerolog.Logger
	load     func(string) ([]types.Component, error)

	syncMu sync.Mutex // serializes Sync

	mutex  sync.Mutex
	closed bool
	done   chan struct{}
}

// New returns a watcher for opts.Dir. The directory must exist.
func New(reg *registry.Registry, sink Sink, opts Options) (*Watcher, error) {
	if reg == nil {
		return nil, errors.New("registry is nil")
	}
	if sink == nil {
		return nil, errors.New("sink is nil")
	}
	dir, err := fsutil.ResolveDir(opts.Dir)
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		dir:      dir,
		debounce: opts.Debounce,
		reg:      reg,
		sink:     sink,
		logger:   zerolog.Nop(),
		load:     opts.Load,
		done:     make(chan struct{}),
	}
	if w.debounce <= 0 {
		w.debounce = defaultDebounce
	}
	if opts.Logger != nil {
		w.logger = *opts.Logger
	}
	if w.load == nil {
		w.load = registry.LoadDir
	}
	return w, nil
}

// Dir returns the absolute directory being watched.
func (w *Watcher) Dir() string { return w.dir }

// Sync rescans the directory, replaces the registry contents and reports the
// diff. Hosts are reported before their fragments and removals last.
func (w *Watcher) Sync() (registry.Diff, error) {
	w.syncMu.Lock()
	defer w.syncMu.Unlock()
	comps, err := w.load(w.dir)
	if err != nil {
		return registry.Diff{}, err
	}
	d := w.reg.Replace(comps)
	w.report(d)
	return d, nil
}

func (w *Watcher) report(d registry.Diff) {
	for _, c := range d.Added {
		tracked := w.sink.AddingComponent(c, nil)
		w.logger.Debug().Str("component", c.ID).Bool("tracked", tracked).Msg("component added")
	}
	for _, ch := range d.Modified {
		var ev types.ComponentEvent
		if ch.ContentChanged() {
			ev = types.NewEvent(ch.New, types.KindUpdated)
		} else {
			ev = types.EventFromPhase(ch.New)
		}
		w.sink.ModifiedComponent(ch.New, &ev)
		w.logger.Debug().Str("component", ch.New.ID).Stringer("kind", ev.Kind).Msg("component modified")
	}
	for _, c := range d.Removed {
		ev := types.NewEvent(c, types.KindRemoved)
		w.sink.RemovedComponent(c, &ev)
		w.logger.Debug().Str("component", c.ID).Msg("component removed")
	}
}

// Run performs an initial Sync and then rescans after every burst of
// filesystem activity until ctx is done or Close is called.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()
	if err := fw.Add(w.dir); err != nil {
		return err
	}
	if _, err := w.Sync(); err != nil {
		w.logger.Warn().Err(err).Str("dir", w.dir).Msg("initial scan failed")
	}

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.done:
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !relevant(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn().Err(err).Str("dir", w.dir).Msg("watch error")
		case <-fire:
			fire = nil
			if _, err := w.Sync(); err != nil {
				w.logger.Warn().Err(err).Str("dir", w.dir).Msg("rescan failed")
			}
		}
	}
}

// Close stops Run. It is safe to call more than once.
func (w *Watcher) Close() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	close(w.done)
	return nil
}

func relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	return registry.IsManifest(event.Name)
}
