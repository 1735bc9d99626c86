package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"providerd/internal/dispatch"
	"providerd/internal/fragments"
	"providerd/internal/httpapi"
	"providerd/internal/manager"
	"providerd/internal/queue"
)

// newLogger builds the process logger. format is "json" or "console" (default).
func newLogger(level, format string, w io.Writer) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("log level %q: %w", level, err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	switch strings.ToLower(format) {
	case "json":
	case "", "console", "text":
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	default:
		return zerolog.Nop(), fmt.Errorf("unsupported log format: %s", format)
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}

// installLogger hands l to every package that logs and applies HTTP settings.
// Package loggers are tagged with "pkg"; "component" is reserved for the
// component ID an entry is about.
func installLogger(l zerolog.Logger, corsOrigins []string) {
	queue.SetLogger(packageLogger(l, "queue"))
	dispatch.SetLogger(packageLogger(l, "dispatch"))
	fragments.SetLogger(packageLogger(l, "fragments"))
	manager.SetLogger(packageLogger(l, "manager"))
	httpapi.SetLogger(packageLogger(l, "httpapi"))
	httpapi.SetCORSOrigins(corsOrigins)
}

func packageLogger(l zerolog.Logger, pkg string) zerolog.Logger {
	return l.With().Str("pkg", pkg).Logger()
}
