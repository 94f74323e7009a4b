// Package logging builds the application's slog logger, optionally
// teeing output to a rotated log file.
package logging

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Config describes the desired logging configuration.
type Config struct {
	Level    string
	Format   string
	FilePath string
}

// New creates a logger from cfg. When a file path is set, output goes
// to both stdout and a size-rotated file; the returned closer releases
// the file writer and is safe to call when no file is configured.
func New(cfg Config) (*slog.Logger, func() error) {
	var writer io.Writer = os.Stdout
	closer := func() error { return nil }

	if cfg.FilePath != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     30,
		}
		writer = io.MultiWriter(os.Stdout, lj)
		closer = lj.Close
	}

	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(writer, opts)
	} else {
		handler = slog.NewTextHandler(writer, opts)
	}

	return slog.New(handler), closer
}

// ParseLevel converts a string to slog.Level, defaulting to Info.
func ParseLevel(s string) slog.Level {
	switch s {
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

// ValidLevel returns true if s is a recognized log level.
func ValidLevel(s string) bool {
	switch s {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}
