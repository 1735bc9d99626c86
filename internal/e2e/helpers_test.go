package e2e

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"providerd/internal/app"
	"providerd/internal/manager"
)

type harness struct {
	app *app.App
	dir string
	pub *manager.MemoryPublisher
}

// startApp runs an App over a fresh components directory until the test ends.
func startApp(t *testing.T, files map[string]string) *harness {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		writeFile(t, dir, name, content)
	}
	pub := manager.NewMemoryPublisher()
	a, err := app.New(app.Options{
		ComponentsDir: dir,
		IdleTimeout:   20 * time.Millisecond,
		Debounce:      10 * time.Millisecond,
		Publisher:     pub,
	})
	if err != nil {
		t.Fatalf("app.New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Run: %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Errorf("Run did not return")
		}
	})
	return &harness{app: a, dir: dir, pub: pub}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func removeFile(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.Remove(filepath.Join(dir, name)); err != nil {
		t.Fatalf("remove %s: %v", name, err)
	}
}

// settle gives the watcher and the queue worker time to act on any late event.
func settle() { time.Sleep(150 * time.Millisecond) }
