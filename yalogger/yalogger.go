// Package yalogger is the structured logging facade of the module.
// Components depend on the Logger interface; the only backend is logrus.
package yalogger

import (
	"io"

	"github.com/google/uuid"
)

// Config defines the configuration options for the logger.
//
// BaseLoggerType: The type of logger to use (e.g., Logrus).
// Level: The minimum log level to output (e.g., Info).
// FullTimestamp: Whether to include the full timestamp in log messages.
// DisableTimestamp: Whether to disable timestamps in log messages.
// TimestampFormat: The format to use for timestamps in log messages.
// Output: Where to write log lines; stderr when nil.
type Config struct {
	BaseLoggerType   BaseLoggerType
	Level            Level
	FullTimestamp    bool
	DisableTimestamp bool
	TimestampFormat  string
	Output           io.Writer
}

// BaseLogger is an interface for creating new Logger instances.
type BaseLogger interface {
	// NewLogger creates a new Logger instance from the base logger.
	NewLogger() Logger
}

// Logger defines a structured logging interface with support for various log levels,
// formatting, and context-aware logging using key-value fields.
type Logger interface {
	// Info logs a message at the Info level.
	//
	// Example usage:
	//
	//   logger.Info("Keypair generated")
	Info(msg string)

	// Infof logs a formatted message at the Info level.
	//
	// Example usage:
	//
	//   logger.Infof("Listening on %s", addr)
	Infof(format string, args ...any)

	// Trace logs a message at the Trace level.
	Trace(msg string)

	// Tracef logs a formatted message at the Trace level.
	Tracef(format string, args ...any)

	// Error logs a message at the Error level.
	Error(msg string)

	// Errorf logs a formatted message at the Error level.
	Errorf(format string, args ...any)

	// Warn logs a message at the Warn level.
	Warn(msg string)

	// Warnf logs a formatted message at the Warn level.
	Warnf(format string, args ...any)

	// Debug logs a message at the Debug level.
	//
	// Example usage:
	//
	//   logger.Debug("Prime accepted")
	Debug(msg string)

	// Debugf logs a formatted message at the Debug level.
	//
	// Example usage:
	//
	//   logger.Debugf("Prime accepted after %d attempts", n)
	Debugf(format string, args ...any)

	// Fatal logs a message at the Fatal level and terminates the process.
	Fatal(msg string)

	// Fatalf logs a formatted message at the Fatal level and terminates the process.
	Fatalf(format string, args ...any)

	// WithField returns a logger with a single field added to the context.
	//
	// Example usage:
	//
	//   logger.WithField(yalogger.KeyKeyID, id)
	WithField(key string, value any) Logger

	// WithFields returns a logger with multiple fields added to the context.
	WithFields(fields map[string]any) Logger

	// WithRequestStringID returns a logger with a string request ID in the context.
	WithRequestStringID(id string) Logger

	// WithRequestUUID returns a logger with a UUID request ID in the context.
	WithRequestUUID(id uuid.UUID) Logger

	// WithRandomRequestID returns a logger with a freshly generated UUID request ID.
	WithRandomRequestID() Logger

	// GetFields returns a copy of the current log context fields.
	GetFields() map[string]any

	// GetField returns the value of a field from the current log context, or nil.
	GetField(key string) any
}

// NewDefaultLogger is a shorthand for NewBaseLogger(nil).NewLogger().
func NewDefaultLogger() Logger {
	return NewBaseLogger(nil).NewLogger()
}

// OrDefault lets constructors accept a nil Logger.
func OrDefault(log Logger) Logger {
	if log == nil {
		return NewDefaultLogger()
	}

	return log
}
