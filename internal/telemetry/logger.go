// Package telemetry builds the structured logger and Prometheus
// registry every emberkv binary starts with: one logger, built once
// at process start and passed explicitly into every constructor that
// needs it — never a package-level global.
package telemetry

import (
	"log/slog"
	"os"
)

// NewLogger builds a slog.Logger. format "text" uses a human-readable
// handler for local development; anything else (including the empty
// string) defaults to JSON.
func NewLogger(level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var handler slog.Handler
	if format == "text" {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
