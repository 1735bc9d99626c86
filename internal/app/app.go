// Package app wires the registry, watcher, manager, consumers and HTTP
// surface into a runnable service.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"providerd/internal/consumer"
	"providerd/internal/httpapi"
	"providerd/internal/manager"
	"providerd/internal/registry"
	"providerd/internal/watcher"
	"providerd/pkg/types"
)

const shutdownTimeout = 5 * time.Second

// Options configures an App. Addr may be empty to skip the HTTP server.
type Options struct {
	Addr          string
	ComponentsDir string
	IdleTimeout   time.Duration
	Debounce      time.Duration
	Logger        *zerolog.Logger
	Publisher     manager.EventPublisher
}

// App is a wired providerd instance.
type App struct {
	opts Options
	log  zerolog.Logger

	Registry    *registry.Registry
	ModuleTypes *consumer.Store
	Templates   *consumer.Store
	Rules       *consumer.Store
	Manager     *manager.Manager
	Watcher     *watcher.Watcher
}

// New builds every component and opens the manager.
func New(opts Options) (*App, error) {
	a := &App{opts: opts, log: zerolog.Nop()}
	if opts.Logger != nil {
		a.log = *opts.Logger
	}
	a.Registry = registry.New()
	a.ModuleTypes = consumer.NewModuleTypes()
	a.Templates = consumer.NewTemplates()
	a.Rules = consumer.NewRules(a.Templates)
	a.Manager = manager.NewWithConfig(manager.ManagerConfig{
		Resolver:    a.Registry,
		ModuleTypes: a.ModuleTypes,
		Templates:   a.Templates,
		Rules:       a.Rules,
		IdleTimeout: opts.IdleTimeout,
		Publisher:   opts.Publisher,
	})
	w, err := watcher.New(a.Registry, a.Manager, watcher.Options{
		Dir:      opts.ComponentsDir,
		Debounce: opts.Debounce,
		Logger:   &a.log,
	})
	if err != nil {
		return nil, err
	}
	a.Watcher = w
	if err := a.Manager.Open(); err != nil {
		return nil, err
	}
	return a, nil
}

// Status implements httpapi.Service.
func (a *App) Status() types.StatusResponse { return a.Manager.Status() }

// Components implements httpapi.Service.
func (a *App) Components() []types.Component { return a.Registry.List() }

// Ready implements httpapi.Service.
func (a *App) Ready() bool { return a.Manager.Ready() }

// Run watches the components directory and serves HTTP until ctx is done,
// then shuts everything down.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.Watcher.Run(gctx) })

	if a.opts.Addr != "" {
		srv := &http.Server{
			Addr:              a.opts.Addr,
			Handler:           httpapi.NewMux(a),
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Go(func() error {
			a.log.Info().Str("addr", a.opts.Addr).Str("components_dir", a.Watcher.Dir()).Msg("providerd listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(sctx); err != nil {
				a.log.Warn().Err(err).Msg("graceful shutdown error")
			}
			return nil
		})
	}

	err := g.Wait()
	_ = a.Watcher.Close()
	_ = a.Manager.Close()
	return err
}
