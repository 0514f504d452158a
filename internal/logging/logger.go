// Package logging provides a common interface and setup for application-wide
// logging. It wraps log/slog behind a small interface so every janus-go
// component depends only on Logger, not on a concrete logging library.
// file: internal/logging/logger.go
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Logger defines the interface for logging within the application.
// This abstraction allows for different logger implementations while
// maintaining consistent logging conventions throughout the codebase.
type Logger interface {
	// Debug logs a debug-level message.
	Debug(msg string, args ...any)

	// Info logs an info-level message.
	Info(msg string, args ...any)

	// Warn logs a warning-level message.
	Warn(msg string, args ...any)

	// Error logs an error-level message.
	Error(msg string, args ...any)

	// WithContext returns a logger with context values.
	WithContext(ctx context.Context) Logger

	// WithField returns a logger with an additional field.
	WithField(key string, value any) Logger
}

// NoopLogger implements Logger but does nothing. Used as a fallback when no
// logger is provided.
type NoopLogger struct{}

// Debug implements Logger but performs no action.
func (l *NoopLogger) Debug(_ string, _ ...any) {}

// Info implements Logger but performs no action.
func (l *NoopLogger) Info(_ string, _ ...any) {}

// Warn implements Logger but performs no action.
func (l *NoopLogger) Warn(_ string, _ ...any) {}

// Error implements Logger but performs no action.
func (l *NoopLogger) Error(_ string, _ ...any) {}

// WithContext implements Logger, returning the NoopLogger itself.
func (l *NoopLogger) WithContext(_ context.Context) Logger { return l }

// WithField implements Logger, returning the NoopLogger itself.
func (l *NoopLogger) WithField(_ string, _ any) Logger { return l }

var noop = &NoopLogger{}

// GetNoopLogger returns the no-op logger instance.
func GetNoopLogger() Logger {
	return noop
}

// Level mirrors slog's severity levels under names the rest of the codebase
// uses (Debug/Info/Warn/Error) without exposing log/slog at call sites.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SlogLogger adapts an *slog.Logger to the Logger interface, rendering
// structured JSON records (one per line) to whatever writer InitLogging was
// given.
type SlogLogger struct {
	l *slog.Logger
}

// NewSlogLogger wraps l as a Logger.
func NewSlogLogger(l *slog.Logger) *SlogLogger {
	return &SlogLogger{l: l}
}

func (s *SlogLogger) Debug(msg string, args ...any) { s.l.Debug(msg, args...) }
func (s *SlogLogger) Info(msg string, args ...any)  { s.l.Info(msg, args...) }
func (s *SlogLogger) Warn(msg string, args ...any)  { s.l.Warn(msg, args...) }
func (s *SlogLogger) Error(msg string, args ...any) { s.l.Error(msg, args...) }

// WithContext returns s unchanged: ctx is not attached to later records, so
// this only satisfies the Logger interface.
func (s *SlogLogger) WithContext(_ context.Context) Logger { return s }

// WithField returns a logger with key permanently attached to every record.
func (s *SlogLogger) WithField(key string, value any) Logger {
	return &SlogLogger{l: s.l.With(key, value)}
}

var levelVar = new(slog.LevelVar)

// defaultLogger is the application's default logger instance, used by
// GetLogger. Until InitLogging is called (typically once, from a CLI's main)
// it is the stderr text logger installed by init below.
var defaultLogger Logger = GetNoopLogger()

// SetDefaultLogger sets the default logger for the application.
func SetDefaultLogger(logger Logger) {
	if logger != nil {
		defaultLogger = logger
	}
}

// InitLogging installs a JSON-structured default logger at the given level,
// writing to w. Call once at process startup (CLI main); library code
// should never call this itself.
func InitLogging(level Level, w io.Writer) {
	levelVar.Set(level.slogLevel())
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: levelVar})
	SetDefaultLogger(NewSlogLogger(slog.New(handler)))
}

// SetLevel adjusts the active level of the default logger. The level is
// shared by the stderr text logger installed by init and by any logger
// installed via InitLogging, so it takes effect before InitLogging too.
func SetLevel(level Level) {
	levelVar.Set(level.slogLevel())
}

// IsDebugEnabled reports whether the active level (set via InitLogging /
// SetLevel) would emit Debug-level records.
func IsDebugEnabled() bool {
	return levelVar.Level() <= slog.LevelDebug
}

// GetLogger returns a logger scoped to component, used by packages to get
// their own logger without importing a concrete implementation.
func GetLogger(component string) Logger {
	return defaultLogger.WithField("component", component)
}

// init gives GetLogger-before-InitLogging callers (e.g. package-level `var
// logger = logging.GetLogger(...)` initializers) something that at least
// writes somewhere sensible instead of silently discarding records; CLIs
// that want JSON/level control still call InitLogging explicitly.
func init() {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: levelVar})
	defaultLogger = NewSlogLogger(slog.New(handler))
}
