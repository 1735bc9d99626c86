package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"providerd/internal/app"
	"providerd/internal/config"
	"providerd/internal/registry"
	"providerd/pkg/types"
)

const (
	defaultAddr          = ":8080"
	defaultComponentsDir = "~/.providerd/components"
)

type flags struct {
	configPath    string
	addr          string
	componentsDir string
	idleTimeout   string
	debounce      string
	logLevel      string
	logFormat     string
	corsOrigins   string
}

func newRootCmd() *cobra.Command {
	f := &flags{}
	root := &cobra.Command{
		Use:           "providerd",
		Short:         "Automation resource provider daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&f.configPath, "config", "", "Path to config file (yaml|json|toml)")
	root.PersistentFlags().StringVar(&f.componentsDir, "components-dir", "", "Directory to scan for component manifests (defaults PROVIDERD_COMPONENTS_DIR or "+defaultComponentsDir+")")
	root.PersistentFlags().StringVar(&f.logLevel, "log-level", "", "Log level: debug|info|warn|error (defaults PROVIDERD_LOG_LEVEL or info)")
	root.PersistentFlags().StringVar(&f.logFormat, "log-format", "", "Log format: console|json")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Watch the components directory and serve the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.resolve(cmd)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}
	serve.Flags().StringVar(&f.addr, "addr", "", "HTTP listen address (defaults PROVIDERD_ADDR or "+defaultAddr+")")
	serve.Flags().StringVar(&f.idleTimeout, "idle-timeout", "", "How long an idle queue worker waits before retiring, e.g. 3m")
	serve.Flags().StringVar(&f.debounce, "debounce", "", "Delay before rescanning after filesystem activity, e.g. 200ms")
	serve.Flags().StringVar(&f.corsOrigins, "cors-origins", "", "Comma-separated list of allowed CORS origins")

	scan := &cobra.Command{
		Use:     "scan",
		Short:   "Scan the components directory once and print what was found",
		Example: "  providerd scan --components-dir ./components",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.resolve(cmd)
			if err != nil {
				return err
			}
			return runScan(cmd, cfg.ComponentsDir)
		},
	}

	ver := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}

	root.AddCommand(serve, scan, ver)
	return root
}

// resolve merges the config file, environment and explicitly set flags, in
// increasing order of precedence, and fills defaults.
func (f *flags) resolve(cmd *cobra.Command) (config.Config, error) {
	var cfg config.Config
	if f.configPath != "" {
		c, err := config.Load(f.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
		cfg = c
	}
	set := func(name string, dst *string, v string) {
		if fl := cmd.Flags().Lookup(name); fl != nil && fl.Changed {
			*dst = v
		}
	}
	set("addr", &cfg.Addr, f.addr)
	set("components-dir", &cfg.ComponentsDir, f.componentsDir)
	set("idle-timeout", &cfg.IdleTimeout, f.idleTimeout)
	set("debounce", &cfg.Debounce, f.debounce)
	set("log-level", &cfg.LogLevel, f.logLevel)
	set("log-format", &cfg.LogFormat, f.logFormat)
	if fl := cmd.Flags().Lookup("cors-origins"); fl != nil && fl.Changed {
		cfg.CORSOrigins = splitCSV(f.corsOrigins)
	}
	config.ApplyEnv(&cfg)
	if cfg.Addr == "" {
		cfg.Addr = defaultAddr
	}
	if cfg.ComponentsDir == "" {
		cfg.ComponentsDir = defaultComponentsDir
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if _, err := cfg.IdleTimeoutDuration(); err != nil {
		return cfg, err
	}
	if _, err := cfg.DebounceDuration(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func runServe(ctx context.Context, cfg config.Config) error {
	logger, err := newLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err != nil {
		return err
	}
	installLogger(logger, cfg.CORSOrigins)

	idle, _ := cfg.IdleTimeoutDuration()
	debounce, _ := cfg.DebounceDuration()
	a, err := app.New(app.Options{
		Addr:          cfg.Addr,
		ComponentsDir: cfg.ComponentsDir,
		IdleTimeout:   idle,
		Debounce:      debounce,
		Logger:        &logger,
	})
	if err != nil {
		return err
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	start := time.Now()
	err = a.Run(ctx)
	logger.Info().Dur("uptime", time.Since(start)).Msg("providerd stopped")
	return err
}

type scanResult struct {
	Dir        string              `json:"dir"`
	Components []types.Component   `json:"components"`
	Fragments  map[string][]string `json:"fragments,omitempty"`
}

func runScan(cmd *cobra.Command, dir string) error {
	comps, err := registry.LoadDir(dir)
	if err != nil {
		return err
	}
	reg := registry.New()
	reg.Replace(comps)
	out := scanResult{Dir: dir, Components: reg.List(), Fragments: map[string][]string{}}
	for _, c := range out.Components {
		if c.IsFragment() {
			continue
		}
		frags, err := reg.Fragments(c)
		if err != nil {
			return err
		}
		for _, fr := range frags {
			out.Fragments[c.ID] = append(out.Fragments[c.ID], fr.ID)
		}
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// splitCSV splits a comma-separated list, trimming blanks and dropping empty items.
func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
