package log

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

var (
	defaultLogger *Logger
	lock          sync.RWMutex
)

func init() {
	zerolog.MessageFieldName = "msg"
	defaultLogger = New(os.Stdout, LogLevelInfo)
}

type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
	LogLevelTrace
)

func (level LogLevel) String() string {
	switch level {
	case LogLevelError:
		return "error"
	case LogLevelWarn:
		return "warn"
	case LogLevelInfo:
		return "info"
	case LogLevelDebug:
		return "debug"
	case LogLevelTrace:
		return "trace"
	default:
		return "unknown"
	}
}

func (level LogLevel) zerologLevel() zerolog.Level {
	switch level {
	case LogLevelError:
		return zerolog.ErrorLevel
	case LogLevelWarn:
		return zerolog.WarnLevel
	case LogLevelInfo:
		return zerolog.InfoLevel
	case LogLevelDebug:
		return zerolog.DebugLevel
	default:
		return zerolog.TraceLevel
	}
}

// ParseLogLevel parses a log level string into a LogLevel.
// Valid log levels are: error, warn, info, debug, trace.
func ParseLogLevel(level string) (LogLevel, error) {
	switch level {
	case "error":
		return LogLevelError, nil
	case "warn":
		return LogLevelWarn, nil
	case "info":
		return LogLevelInfo, nil
	case "debug":
		return LogLevelDebug, nil
	case "trace":
		return LogLevelTrace, nil
	default:
		return LogLevelError, fmt.Errorf("unknown log level: %s", level)
	}
}

// SetDefaultLogger replaces the logger used by the package-level functions.
func SetDefaultLogger(logger *Logger) {
	lock.Lock()
	defer lock.Unlock()
	defaultLogger = logger
}

func getDefaultLogger() *Logger {
	lock.RLock()
	defer lock.RUnlock()
	return defaultLogger
}

// Logger writes one JSON object per entry with "level", "time" and "msg" fields.
type Logger struct {
	logger zerolog.Logger
}

func New(out io.Writer, level LogLevel) *Logger {
	return &Logger{
		logger: zerolog.New(out).Level(level.zerologLevel()).With().Timestamp().Logger(),
	}
}

// With returns a child logger that adds key=value to every entry.
func (l *Logger) With(key string, value string) *Logger {
	return &Logger{
		logger: l.logger.With().Str(key, value).Logger(),
	}
}

func (l *Logger) logf(level zerolog.Level, format string, args ...interface{}) {
	// WithLevel returns nil for disabled levels and Msgf on nil is a no-op
	l.logger.WithLevel(level).Msgf(format, args...)
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.logf(zerolog.ErrorLevel, format, args...)
}

func (l *Logger) Warn(format string, args ...interface{}) {
	l.logf(zerolog.WarnLevel, format, args...)
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.logf(zerolog.InfoLevel, format, args...)
}

func (l *Logger) Debug(format string, args ...interface{}) {
	l.logf(zerolog.DebugLevel, format, args...)
}

func (l *Logger) Trace(format string, args ...interface{}) {
	l.logf(zerolog.TraceLevel, format, args...)
}

func Info(format string, args ...interface{}) {
	getDefaultLogger().Info(format, args...)
}

func Error(format string, args ...interface{}) {
	getDefaultLogger().Error(format, args...)
}

func Warn(format string, args ...interface{}) {
	getDefaultLogger().Warn(format, args...)
}

func Debug(format string, args ...interface{}) {
	getDefaultLogger().Debug(format, args...)
}

func Trace(format string, args ...interface{}) {
	getDefaultLogger().Trace(format, args...)
}
