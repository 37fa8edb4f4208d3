// Package zaplog adapts go.uber.org/zap to the domain Logger interface.
package zaplog

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ochairo/reachstrap/internal/domain/interfaces"
)

// EnvLogLevel overrides the starting log level
const EnvLogLevel = "REACHSTRAP_LOG_LEVEL"

// Logger implements interfaces.Logger on top of a zap logger whose level
// can be raised at runtime.
type Logger struct {
	z     *zap.Logger
	level zap.AtomicLevel
}

// New builds a console logger. verbose starts it at debug level; otherwise
// REACHSTRAP_LOG_LEVEL or info applies.
func New(verbose bool) (*Logger, error) {
	config := zap.NewProductionConfig()
	config.Encoding = "console"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	config.DisableStacktrace = true

	lvl := zapcore.InfoLevel
	if parsed, ok := ParseLevel(os.Getenv(EnvLogLevel)); ok {
		lvl = parsed
	}
	if verbose {
		lvl = zapcore.DebugLevel
	}
	config.Level = zap.NewAtomicLevelAt(lvl)

	z, err := config.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{z: z, level: config.Level}, nil
}

// NewWithCore wraps an existing core; level must be the enabler the core checks.
func NewWithCore(core zapcore.Core, level zap.AtomicLevel) *Logger {
	return &Logger{z: zap.New(core), level: level}
}

// ParseLevel accepts the usual level names plus "trace" as debug
func ParseLevel(raw string) (zapcore.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "trace", "debug":
		return zapcore.DebugLevel, true
	case "info":
		return zapcore.InfoLevel, true
	case "warn", "warning":
		return zapcore.WarnLevel, true
	case "error":
		return zapcore.ErrorLevel, true
	default:
		return zapcore.InfoLevel, false
	}
}

// Debug logs debug-level messages
func (l *Logger) Debug(msg string, fields ...interfaces.Field) {
	l.z.Debug(msg, toZap(fields)...)
}

// Info logs informational messages
func (l *Logger) Info(msg string, fields ...interfaces.Field) {
	l.z.Info(msg, toZap(fields)...)
}

// Warn logs warning messages
func (l *Logger) Warn(msg string, fields ...interfaces.Field) {
	l.z.Warn(msg, toZap(fields)...)
}

// Error logs error messages
func (l *Logger) Error(msg string, fields ...interfaces.Field) {
	l.z.Error(msg, toZap(fields)...)
}

// With returns a child logger sharing the same level
func (l *Logger) With(fields ...interfaces.Field) interfaces.Logger {
	return &Logger{z: l.z.With(toZap(fields)...), level: l.level}
}

// EnableDebug switches the whole process to debug output
func (l *Logger) EnableDebug() {
	l.level.SetLevel(zapcore.DebugLevel)
}

// Level returns the current level
func (l *Logger) Level() zapcore.Level {
	return l.level.Level()
}

// Sync flushes buffered entries
func (l *Logger) Sync() error {
	return l.z.Sync()
}

func toZap(fields []interfaces.Field) []zap.Field {
	out := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		if err, ok := f.Value.(error); ok {
			out = append(out, zap.NamedError(f.Key, err))
			continue
		}
		out = append(out, zap.Any(f.Key, f.Value))
	}
	return out
}
