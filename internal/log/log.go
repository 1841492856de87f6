// Package log holds the process-wide structured logger.
//
// Operator-facing progress goes through internal/ui; this logger carries the
// diagnostic stream (executed commands, unresolved template tokens, skipped
// config files) and writes to stderr so it never mixes with rendered output.
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Base is a bare logger without attributes
var Base = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

var logger = Base.With("component", "slurm-gcp")

// Init replaces the logger. level is any slog level name (debug, info, warn,
// error), format is "text" or "json".
func Init(w io.Writer, level, format string) error {
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("failed to parse log level: %w", err)
	}

	options := slog.HandlerOptions{Level: logLevel}

	switch format {
	case "json":
		Base = slog.New(slog.NewJSONHandler(w, &options))
	case "text":
		Base = slog.New(slog.NewTextHandler(w, &options))
	default:
		return fmt.Errorf("unknown log format '%s'", format)
	}

	logger = Base.With("component", "slurm-gcp")
	return nil
}

// Proxies for slog.Logger methods

func Debug(msg string, args ...any) {
	logger.Debug(msg, args...)
}

func DebugContext(ctx context.Context, msg string, args ...any) {
	logger.DebugContext(ctx, msg, args...)
}

func Info(msg string, args ...any) {
	logger.Info(msg, args...)
}

func Warn(msg string, args ...any) {
	logger.Warn(msg, args...)
}

func Error(msg string, args ...any) {
	logger.Error(msg, args...)
}
