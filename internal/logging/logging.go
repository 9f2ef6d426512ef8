// Package logging provides structured logging built on log/slog.
//
// Configuration comes from the environment:
//   - PYSCOPE_LOG_LEVEL: debug, info, warn, error (default: info)
//   - PYSCOPE_LOG_FORMAT: text, json (default: text)
//
// Everything goes to stderr so stdout stays clean for command output
// consumed by editors.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config holds logging configuration.
type Config struct {
	Level  slog.Level
	Format string    // "text" or "json"
	Output io.Writer // defaults to os.Stderr
	Source string    // component name attached to every record
}

// DefaultConfig returns the defaults for the given component.
func DefaultConfig(source string) Config {
	return Config{
		Level:  slog.LevelInfo,
		Format: "text",
		Output: os.Stderr,
		Source: source,
	}
}

// FromEnv returns DefaultConfig with any overrides read from
// PYSCOPE_LOG_LEVEL and PYSCOPE_LOG_FORMAT.
func FromEnv(source string) Config {
	cfg := DefaultConfig(source)
	if level := os.Getenv("PYSCOPE_LOG_LEVEL"); level != "" {
		cfg.Level = ParseLevel(level)
	}
	if format := os.Getenv("PYSCOPE_LOG_FORMAT"); format != "" {
		cfg.Format = strings.ToLower(format)
	}
	return cfg
}

// ParseLevel maps a level name to a slog.Level, defaulting to info for
// anything unrecognized.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New creates a configured slog.Logger.
func New(cfg Config) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: cfg.Level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	logger := slog.New(handler)
	if cfg.Source != "" {
		logger = logger.With("source", cfg.Source)
	}
	return logger
}

// Default creates a logger for source with environment configuration.
func Default(source string) *slog.Logger {
	return New(FromEnv(source))
}
