package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// LogLevel represents the available log levels
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// Logger wraps slog with component and intention helpers
type Logger struct {
	*slog.Logger
}

// ParseLevel maps a case-insensitive level name to a LogLevel, defaulting to info
func ParseLevel(s string) LogLevel {
	switch LogLevel(strings.ToLower(strings.TrimSpace(s))) {
	case LogLevelDebug:
		return LogLevelDebug
	case LogLevelWarn, "warning":
		return LogLevelWarn
	case LogLevelError:
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

func (l LogLevel) slogLevel() slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a logger writing to stderr and the relay log file
func NewLogger(level LogLevel) *Logger {
	return NewLoggerWithConsoleWriter(level, os.Stderr)
}

// NewLoggerWithConsoleWriter builds a logger that writes console output to the
// given writer and structured text to ~/.klein-relay/logs/relay.log
func NewLoggerWithConsoleWriter(level LogLevel, consoleWriter io.Writer) *Logger {
	if consoleWriter == nil {
		consoleWriter = os.Stderr
	}
	slogLevel := level.slogLevel()
	handler := newMultiHandler(
		newPlainHandler(consoleWriter, slogLevel),
		newFileTextHandler(slogLevel),
	)
	return &Logger{Logger: slog.New(handler)}
}

// NewConsoleLogger writes only to w, no log file. Used by tests and the local console.
func NewConsoleLogger(level LogLevel, w io.Writer) *Logger {
	return &Logger{Logger: slog.New(newPlainHandler(w, level.slogLevel()))}
}

// NewNopLogger discards everything
func NewNopLogger() *Logger {
	return NewConsoleLogger(LogLevelError, io.Discard)
}

// WithComponent creates a logger tagged with a component name
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{Logger: l.With("component", component)}
}

// WithEvent tags every line with the inbound event id
func (l *Logger) WithEvent(eventID string) *Logger {
	return &Logger{Logger: l.With("event_id", eventID)}
}

// LogWithIntention logs at the provided level with an intention attribute.
// The console handler turns the intention into an icon.
func (l *Logger) LogWithIntention(level slog.Level, intention Intention, msg string, args ...any) {
	kv := append([]any{"intention", string(intention)}, args...)
	l.Log(context.Background(), level, msg, kv...)
}

func (l *Logger) InfoWithIntention(intention Intention, msg string, args ...any) {
	l.LogWithIntention(slog.LevelInfo, intention, msg, args...)
}

func (l *Logger) DebugWithIntention(intention Intention, msg string, args ...any) {
	l.LogWithIntention(slog.LevelDebug, intention, msg, args...)
}

// Warnings and errors do not carry intentions; the level label is enough
func (l *Logger) WarnWithIntention(_ Intention, msg string, args ...any) {
	l.Warn(msg, args...)
}

func (l *Logger) ErrorWithIntention(_ Intention, msg string, args ...any) {
	l.Error(msg, args...)
}

// Default logger instance shared by NewComponentLogger
var Default = NewLogger(LogLevelInfo)

// SetGlobalLogLevel replaces the default logger with one at the given level
func SetGlobalLogLevel(level LogLevel) {
	Default = NewLogger(level)
}

// SetGlobalLoggerWithConsoleWriter replaces the default logger using the provided console writer
func SetGlobalLoggerWithConsoleWriter(level LogLevel, consoleWriter io.Writer) {
	Default = NewLoggerWithConsoleWriter(level, consoleWriter)
}

// NewComponentLogger creates a component logger from the default logger
func NewComponentLogger(component string) *Logger {
	return Default.WithComponent(component)
}

// LogDir returns ~/.klein-relay/logs
func LogDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".klein-relay", "logs")
}

// newFileTextHandler appends to ~/.klein-relay/logs/relay.log
func newFileTextHandler(level slog.Level) slog.Handler {
	base := LogDir()
	_ = os.MkdirAll(base, 0o755)
	path := filepath.Join(base, "relay.log")

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		// Read-only home (containers): console only
		return slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: level})
	}

	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{Key: "time", Value: slog.StringValue(a.Value.Time().Format("2006-01-02 15:04:05"))}
			}
			return a
		},
	}
	return slog.NewTextHandler(f, opts)
}
