// Package logger provides structured logging functionality
package logger

import (
	"io"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger for application-wide logging
type Logger struct {
	*slog.Logger
}

// Config holds logger configuration
type Config struct {
	Output io.Writer // defaults to os.Stdout
	Level  string    // debug, info, warn, error
	Format string    // text, json
}

// New creates a new structured logger
func New(cfg Config) *Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithComponent returns a logger with a component attribute
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		Logger: l.With("component", component),
	}
}

// WithEntry returns a logger with queue entry context attributes
func (l *Logger) WithEntry(entryID, trackName string) *Logger {
	return &Logger{
		Logger: l.With("entry_id", entryID, "track_name", trackName),
	}
}

// WithPrompt returns a logger tagged with a recommendation seed prompt
func (l *Logger) WithPrompt(prompt string) *Logger {
	return &Logger{
		Logger: l.With("prompt", prompt),
	}
}

// Default returns a default logger for quick usage
func Default() *Logger {
	return New(Config{
		Level:  "info",
		Format: "text",
	})
}

// Discard returns a logger that drops everything; handy in tests.
func Discard() *Logger {
	return New(Config{Output: io.Discard, Level: "error"})
}
