package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and will be replaced by defaults in main.
type Config struct {
	Addr          string   `json:"addr" yaml:"addr" toml:"addr"`
	ComponentsDir string   `json:"components_dir" yaml:"components_dir" toml:"components_dir"`
	IdleTimeout   string   `json:"idle_timeout" yaml:"idle_timeout" toml:"idle_timeout"`
	Debounce      string   `json:"debounce" yaml:"debounce" toml:"debounce"`
	LogLevel      string   `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFormat     string   `json:"log_format" yaml:"log_format" toml:"log_format"`
	CORSOrigins   []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil { return cfg, err }
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil { return cfg, err }
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil { return cfg, err }
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	if _, err := cfg.IdleTimeoutDuration(); err != nil {
		return cfg, err
	}
	if _, err := cfg.DebounceDuration(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Env variable names consulted by ApplyEnv.
const (
	EnvAddr          = "PROVIDERD_ADDR"
	EnvComponentsDir = "PROVIDERD_COMPONENTS_DIR"
	EnvLogLevel      = "PROVIDERD_LOG_LEVEL"
)

// ApplyEnv fills unset fields from the environment.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv(EnvAddr); v != "" && cfg.Addr == "" {
		cfg.Addr = v
	}
	if v := os.Getenv(EnvComponentsDir); v != "" && cfg.ComponentsDir == "" {
		cfg.ComponentsDir = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" && cfg.LogLevel == "" {
		cfg.LogLevel = v
	}
}

// IdleTimeoutDuration parses IdleTimeout; empty means zero (use default).
func (c Config) IdleTimeoutDuration() (time.Duration, error) {
	return parseDuration("idle_timeout", c.IdleTimeout)
}

// DebounceDuration parses Debounce; empty means zero (use default).
func (c Config) DebounceDuration() (time.Duration, error) {
	return parseDuration("debounce", c.Debounce)
}

func parseDuration(field, v string) (time.Duration, error) {
	if strings.TrimSpace(v) == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: negative duration %s", field, v)
	}
	return d, nil
}
