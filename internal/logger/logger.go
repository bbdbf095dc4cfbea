// Package logger provides a simple logging interface for patchctl components.
// It allows packages to log debug, info, warn, and error messages without
// being coupled to a specific logging implementation.
//
// The production implementation writes structured lines through zerolog to a
// log file, because the dashboard owns the terminal while it is running.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Logger defines the interface for logging operations.
// All methods accept a format string and arguments, similar to fmt.Printf.
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
}

// DebugEnv enables debug-level output when set to any non-empty value.
const DebugEnv = "PATCHCTL_DEBUG"

// Config controls where the base logger writes.
type Config struct {
	File  string // log file path; empty means stderr
	Level string // "debug", "info", "warn", "error"
}

var (
	baseMu     sync.RWMutex
	baseLogger = zerolog.New(os.Stderr).With().Timestamp().Logger().Level(levelFromEnv())
	baseCloser io.Closer
)

// Init points the base logger at the configured destination.
// The returned closer releases the log file; it is safe to call more than once.
func Init(cfg Config) (io.Closer, error) {
	var w io.Writer = os.Stderr
	var closer io.Closer = nopCloser{}

	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		w = f
		closer = &onceCloser{c: f}
	}

	zerolog.TimeFieldFormat = time.RFC3339

	level := parseLevel(cfg.Level)
	if os.Getenv(DebugEnv) != "" {
		level = zerolog.DebugLevel
	}

	baseMu.Lock()
	prev := baseCloser
	baseLogger = zerolog.New(w).With().Timestamp().Logger().Level(level)
	baseCloser = closer
	baseMu.Unlock()

	if prev != nil {
		_ = prev.Close()
	}
	return closer, nil
}

// zerologLogger adapts zerolog to the printf-style Logger interface.
type zerologLogger struct {
	prefix string
	zl     *zerolog.Logger // nil means "use the current base logger"
}

// NewEnvLogger creates a logger on top of the base logger configured by Init.
// The prefix (e.g., "[inventory]" or "[dispatch]") is recorded as the
// component field. Debug messages are only emitted when PATCHCTL_DEBUG is set
// or the configured level is debug.
func NewEnvLogger(prefix string) Logger {
	return &zerologLogger{prefix: prefix}
}

// New creates a logger writing to w, independent of the base logger.
func New(w io.Writer, prefix string, debug bool) Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zl := zerolog.New(w).With().Timestamp().Logger().Level(level)
	return &zerologLogger{prefix: prefix, zl: &zl}
}

func (l *zerologLogger) logger() *zerolog.Logger {
	if l.zl != nil {
		return l.zl
	}
	baseMu.RLock()
	defer baseMu.RUnlock()
	zl := baseLogger
	return &zl
}

func (l *zerologLogger) emit(ev *zerolog.Event, format string, args ...interface{}) {
	if ev == nil {
		return
	}
	if l.prefix != "" {
		ev = ev.Str("component", l.prefix)
	}
	ev.Msgf(format, args...)
}

func (l *zerologLogger) Debug(format string, args ...interface{}) {
	l.emit(l.logger().Debug(), format, args...)
}

func (l *zerologLogger) Info(format string, args ...interface{}) {
	l.emit(l.logger().Info(), format, args...)
}

func (l *zerologLogger) Warn(format string, args ...interface{}) {
	l.emit(l.logger().Warn(), format, args...)
}

func (l *zerologLogger) Error(format string, args ...interface{}) {
	l.emit(l.logger().Error(), format, args...)
}

func parseLevel(s string) zerolog.Level {
	switch s {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func levelFromEnv() zerolog.Level {
	if os.Getenv(DebugEnv) != "" {
		return zerolog.DebugLevel
	}
	return zerolog.InfoLevel
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

type onceCloser struct {
	once sync.Once
	c    io.Closer
	err  error
}

func (o *onceCloser) Close() error {
	o.once.Do(func() { o.err = o.c.Close() })
	return o.err
}

// noopLogger implements Logger but discards all messages.
type noopLogger struct{}

// Noop returns a logger that discards all messages.
func Noop() Logger {
	return &noopLogger{}
}

func (l *noopLogger) Debug(format string, args ...interface{}) {}
func (l *noopLogger) Info(format string, args ...interface{})  {}
func (l *noopLogger) Warn(format string, args ...interface{})  {}
func (l *noopLogger) Error(format string, args ...interface{}) {}

// LogMessage represents a captured log message.
type LogMessage struct {
	Level   string
	Message string
}

// BufferLogger captures log messages for testing.
// Safe for use from concurrent dispatch workers.
type BufferLogger struct {
	mu       sync.Mutex
	Messages []LogMessage
}

// NewBufferLogger creates a logger that captures messages for inspection.
func NewBufferLogger() *BufferLogger {
	return &BufferLogger{
		Messages: make([]LogMessage, 0),
	}
}

func (l *BufferLogger) add(level, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Messages = append(l.Messages, LogMessage{Level: level, Message: fmt.Sprintf(format, args...)})
}

func (l *BufferLogger) Debug(format string, args ...interface{}) { l.add("debug", format, args...) }
func (l *BufferLogger) Info(format string, args ...interface{})  { l.add("info", format, args...) }
func (l *BufferLogger) Warn(format string, args ...interface{})  { l.add("warn", format, args...) }
func (l *BufferLogger) Error(format string, args ...interface{}) { l.add("error", format, args...) }

// HasLevel returns true if any message was logged at the given level.
func (l *BufferLogger) HasLevel(level string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range l.Messages {
		if m.Level == level {
			return true
		}
	}
	return false
}

// Snapshot returns a copy of the captured messages.
func (l *BufferLogger) Snapshot() []LogMessage {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]LogMessage, len(l.Messages))
	copy(out, l.Messages)
	return out
}

// Clear removes all captured messages.
func (l *BufferLogger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Messages = l.Messages[:0]
}

var (
	defaultMu     sync.RWMutex
	defaultLogger = NewEnvLogger("")
)

// Default returns the default logger for the package.
func Default() Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetDefault sets the default logger for the package.
func SetDefault(l Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = l
}
