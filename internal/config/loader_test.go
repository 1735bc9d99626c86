package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestLoadYAML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.yaml", "addr: :9999\ncomponents_dir: /tmp\nidle_timeout: 90s\ndebounce: 50ms\nlog_level: debug\ncors_origins: [\"*\"]\n")
	cfg, err := Load(p)
	if err != nil { t.Fatalf("load: %v", err) }
	if cfg.Addr != ":9999" || cfg.ComponentsDir != "/tmp" || cfg.LogLevel != "debug" || len(cfg.CORSOrigins) != 1 {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if d, _ := cfg.IdleTimeoutDuration(); d != 90*time.Second {
		t.Fatalf("idle timeout = %s", d)
	}
	if d, _ := cfg.DebounceDuration(); d != 50*time.Millisecond {
		t.Fatalf("debounce = %s", d)
	}
}

func TestLoadJSON(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.json", `{"addr":":7070","components_dir":"/c","idle_timeout":"3m","log_format":"console"}`)
	cfg, err := Load(p)
	if err != nil { t.Fatalf("load: %v", err) }
	if cfg.Addr != ":7070" || cfg.ComponentsDir != "/c" || cfg.LogFormat != "console" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadTOML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.toml", "addr=\":8081\"\ncomponents_dir=\"/x\"\nidle_timeout=\"1m\"\n")
	cfg, err := Load(p)
	if err != nil { t.Fatalf("load: %v", err) }
	if cfg.Addr != ":8081" || cfg.ComponentsDir != "/x" || cfg.IdleTimeout != "1m" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(""); err == nil { t.Fatalf("expected error on empty path") }
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.txt", "not supported")
	if _, err := Load(p); err == nil { t.Fatalf("expected unsupported extension error") }
	p = writeTempFile(t, d, "dur.yaml", "idle_timeout: soon\n")
	if _, err := Load(p); err == nil { t.Fatalf("expected duration error") }
	p = writeTempFile(t, d, "neg.yaml", "debounce: -1s\n")
	if _, err := Load(p); err == nil { t.Fatalf("expected negative duration error") }
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvAddr, ":1234")
	t.Setenv(EnvComponentsDir, "/env")
	t.Setenv(EnvLogLevel, "warn")
	cfg := Config{Addr: ":1"}
	ApplyEnv(&cfg)
	if cfg.Addr != ":1" || cfg.ComponentsDir != "/env" || cfg.LogLevel != "warn" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadMalformed(t *testing.T) {
	d := t.TempDir()
	cases := map[string]string{
		"bad.yaml": "addr: :8080\n: broken\n",
		"bad.json": `{ "addr": ":8080", "components_dir": }`,
		"bad.toml": "addr=:8080\ncomponents_dir\n",
	}
	for name, content := range cases {
		p := writeTempFile(t, d, name, content)
		if _, err := Load(p); err == nil {
			t.Fatalf("%s: expected parse error", name)
		}
	}
	if _, err := Load(filepath.Join(d, "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
