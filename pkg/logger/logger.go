// Package logger installs the process-wide slog default every Mycelium
// binary starts with: JSON in production for log aggregators, text at debug
// level everywhere else.
package logger

import (
	"log/slog"
	"os"
)

// Setup configures and installs the default logger for env, tagging every
// record with the emitting service name (gatewayd/webhookd/maild).
func Setup(env, service string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}

	var handler slog.Handler
	if env == "production" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler).With("service", service)
	slog.SetDefault(logger)
	return logger
}
