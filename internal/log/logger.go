// Package log provides structured logging for tapgen.
//
// A small Logger interface backed by stdlib slog keeps the workflow
// packages testable: components receive a Logger and never write to
// stderr directly. Workflow results (counts, rendered paths) go to
// stdout via plain fmt in cmd/tapgen; everything diagnostic flows
// through here to stderr.
//
// Verbosity levels:
//   - ERROR (--quiet): errors only
//   - WARN (default): warnings and user output
//   - INFO (--verbose): operational context
//   - DEBUG (--debug): internal state and troubleshooting details
package log

import (
	"log/slog"
	"sync"
)

// Logger is the interface for structured logging.
// Methods match slog's signature so handlers plug in directly.
type Logger interface {
	// Debug logs at DEBUG level: cache decisions, asset filtering,
	// API pagination details.
	Debug(msg string, args ...any)

	// Info logs at INFO level: "hashing asset", "manifest saved".
	Info(msg string, args ...any)

	// Warn logs at WARN level: recoverable conditions like a corrupt
	// manifest being reset or a fallback record being used.
	Warn(msg string, args ...any)

	// Error logs at ERROR level: failures that stop an operation.
	Error(msg string, args ...any)

	// With returns a Logger that includes the given key-value pairs
	// in every subsequent entry.
	With(args ...any) Logger
}

type slogLogger struct {
	l *slog.Logger
}

// New creates a Logger backed by slog with the given handler.
func New(h slog.Handler) Logger {
	return &slogLogger{l: slog.New(h)}
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

// NewNoop returns a logger that discards all output. Used in tests
// and anywhere logging must stay silent.
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

// SetDefault sets the global logger. Called once from main() after
// the verbosity flags are parsed.
func SetDefault(l Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = l
}
