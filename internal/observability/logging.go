// Package observability provides logging and tracing for the client.
package observability

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger so call sites do not bind to the handler choice.
type Logger struct {
	*slog.Logger
}

// GlobalLogger is the default logger instance.
var GlobalLogger *Logger

func init() {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	GlobalLogger = &Logger{Logger: slog.New(handler)}
}

// NewLogger builds a logger writing JSON to stderr at the given level.
func NewLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return &Logger{Logger: slog.New(handler)}
}

// Component returns a child logger tagged with a component name.
func (l *Logger) Component(name string) *Logger {
	return &Logger{Logger: l.With("component", name)}
}
