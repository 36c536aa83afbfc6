// Package log provides structured logging for apkfetch.
//
// It defines a small Logger interface backed by Go's stdlib slog so that
// the resolver, aggregator, and HTTP handlers can log through an injected
// dependency instead of a process-wide singleton. Request handlers derive
// per-request loggers with With(), carrying the request id through the
// resolution pipeline.
//
// Verbosity levels:
//   - ERROR (--quiet): errors only
//   - INFO (default): request/resolution milestones
//   - DEBUG (--debug): per-provider probe outcomes, hop-by-hop detail
package log

import (
	"io"
	"log/slog"
	"sync"
)

// Logger is the interface for structured logging.
// Methods match slog's signature for easy integration.
type Logger interface {
	// Debug logs at DEBUG level. Use for per-provider probe results,
	// individual hop transitions, and classification detail.
	Debug(msg string, args ...any)

	// Info logs at INFO level. Use for request milestones like
	// "candidate resolved" or "streaming artifact".
	Info(msg string, args ...any)

	// Warn logs at WARN level. Use for absorbed failures like a
	// provider timing out or a hop retry.
	Warn(msg string, args ...any)

	// Error logs at ERROR level. Use for failures surfaced to the caller.
	Error(msg string, args ...any)

	// With returns a Logger that includes the given key-value pairs
	// in all subsequent entries.
	With(args ...any) Logger
}

type slogLogger struct {
	l *slog.Logger
}

// New creates a Logger backed by slog with the given handler.
func New(h slog.Handler) Logger {
	return &slogLogger{l: slog.New(h)}
}

// NewText creates a Logger writing text-formatted entries at the given
// level to w. This is the handler used by the CLI.
func NewText(w io.Writer, level slog.Level) Logger {
	return New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func (s *slogLogger) Debug(msg string, args ...any) { s.l.Debug(msg, args...) }
func (s *slogLogger) Info(msg string, args ...any)  { s.l.Info(msg, args...) }
func (s *slogLogger) Warn(msg string, args ...any)  { s.l.Warn(msg, args...) }
func (s *slogLogger) Error(msg string, args ...any) { s.l.Error(msg, args...) }

func (s *slogLogger) With(args ...any) Logger {
	return &slogLogger{l: s.l.With(args...)}
}

// noopLogger discards all log output.
type noopLogger struct{}

// NewNoop returns a logger that discards all output.
// Useful for tests and for components constructed without a logger.
func NewNoop() Logger {
	return noopLogger{}
}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) With(...any) Logger   { return noopLogger{} }

var (
	defaultLogger Logger = noopLogger{}
	defaultMu     sync.RWMutex
)

// Default returns the global logger configured at startup.
// Returns a noop logger if SetDefault has not been called.
func Default() Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetDefault sets the global logger. Called once in main() after
// parsing verbosity flags.
func SetDefault(l Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = l
}
