// Package observability configures structured logging (SPEC_FULL.md
// "Logging"): log/slog with a lumberjack.Logger rotating sink when a
// log file path is configured, otherwise stderr. Log lines are emitted
// at action boundaries (execute/undo/redo) and engine open/close, not
// on every internal step.
package observability

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the logger NewLogger builds.
type Options struct {
	// LogFile, if non-empty, routes output through a rotating
	// lumberjack.Logger instead of stderr.
	LogFile    string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Level      slog.Level
}

// NewLogger builds a slog.Logger per Options. Callers typically stash
// the result with slog.SetDefault so every package's package-level
// slog calls pick it up.
func NewLogger(opts Options) *slog.Logger {
	var w io.Writer = os.Stderr
	if opts.LogFile != "" {
		w = &lumberjack.Logger{
			Filename:   opts.LogFile,
			MaxSize:    orDefault(opts.MaxSizeMB, 50),
			MaxBackups: orDefault(opts.MaxBackups, 5),
			MaxAge:     orDefault(opts.MaxAgeDays, 28),
			Compress:   true,
		}
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: opts.Level})
	return slog.New(handler)
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// LevelFromString parses a log-level config value, defaulting to Info
// on anything unrecognized.
func LevelFromString(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
