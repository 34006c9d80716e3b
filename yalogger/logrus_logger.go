package yalogger

import (
	"maps"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// logrusAdapter implements Logger on top of a logrus.Entry.
type logrusAdapter struct {
	entry *logrus.Entry
}

// baseLogrus holds the configured logrus.Logger every adapter derives from.
type baseLogrus struct {
	logger *logrus.Logger
}

// NewBaseLogger creates and configures a base logger.
//
// A nil config gives a logrus text logger at Info level without timestamps.
// Panics when the logger type is not supported.
func NewBaseLogger(config *Config) BaseLogger {
	if config == nil {
		config = &Config{
			BaseLoggerType:   Logrus,
			Level:            InfoLevel,
			TimestampFormat:  defaultTimestampFormat,
			DisableTimestamp: true,
		}
	}

	switch config.BaseLoggerType {
	case Logrus:
		base := logrus.New()
		base.SetLevel(logrus.Level(config.Level))
		base.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:    config.FullTimestamp,
			TimestampFormat:  config.TimestampFormat,
			DisableTimestamp: config.DisableTimestamp,
		})

		if config.Output != nil {
			base.SetOutput(config.Output)
		}

		return &baseLogrus{logger: base}
	default:
		panic("Unsupported logger type, you are a teapot!!!")
	}
}

// NewLogger wraps a fresh entry of the base logger.
func (b *baseLogrus) NewLogger() Logger {
	return &logrusAdapter{entry: logrus.NewEntry(b.logger)}
}

func (l *logrusAdapter) Info(msg string) {
	l.entry.Info(msg)
}

func (l *logrusAdapter) Infof(format string, args ...any) {
	l.entry.Infof(format, args...)
}

func (l *logrusAdapter) Error(msg string) {
	l.entry.Error(msg)
}

func (l *logrusAdapter) Errorf(format string, args ...any) {
	l.entry.Errorf(format, args...)
}

func (l *logrusAdapter) Warn(msg string) {
	l.entry.Warn(msg)
}

func (l *logrusAdapter) Warnf(format string, args ...any) {
	l.entry.Warnf(format, args...)
}

func (l *logrusAdapter) Debug(msg string) {
	l.entry.Debug(msg)
}

func (l *logrusAdapter) Debugf(format string, args ...any) {
	l.entry.Debugf(format, args...)
}

func (l *logrusAdapter) Fatal(msg string) {
	l.entry.Fatal(msg)
}

func (l *logrusAdapter) Fatalf(format string, args ...any) {
	l.entry.Fatalf(format, args...)
}

func (l *logrusAdapter) Trace(msg string) {
	l.entry.Trace(msg)
}

func (l *logrusAdapter) Tracef(format string, args ...any) {
	l.entry.Tracef(format, args...)
}

func (l *logrusAdapter) WithField(key string, value any) Logger {
	return &logrusAdapter{entry: l.entry.WithField(key, value)}
}

func (l *logrusAdapter) WithFields(fields map[string]any) Logger {
	return &logrusAdapter{entry: l.entry.WithFields(fields)}
}

func (l *logrusAdapter) WithRequestStringID(id string) Logger {
	return l.WithField(KeyRequestID, id)
}

func (l *logrusAdapter) WithRequestUUID(id uuid.UUID) Logger {
	return l.WithField(KeyRequestID, id.String())
}

func (l *logrusAdapter) WithRandomRequestID() Logger {
	return l.WithRequestUUID(uuid.New())
}

func (l *logrusAdapter) GetFields() map[string]any {
	return maps.Clone(map[string]any(l.entry.Data))
}

func (l *logrusAdapter) GetField(key string) any {
	val, ok := l.entry.Data[key]
	if !ok {
		return nil
	}

	return val
}
