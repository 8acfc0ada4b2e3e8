package logger

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger implements the ports.Logger interface on top of zap. Used by the
// API server where structured JSON output matters.
type ZapLogger struct {
	logger *zap.Logger
}

// NewZapLogger builds a production zap logger at the given level. level is
// parsed the same way as ParseLevel; unrecognized values mean Info.
func NewZapLogger(level string) (*ZapLogger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel(ParseLevel(level)))
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	base, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, fmt.Errorf("build zap logger: %w", err)
	}
	return &ZapLogger{logger: base}, nil
}

func zapLevel(l LogLevel) zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Sync flushes any buffered log entries.
func (l *ZapLogger) Sync() error {
	return l.logger.Sync()
}

func zapFields(fields []map[string]interface{}) []zap.Field {
	merged := mergeFields(fields)
	if len(merged) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(merged))
	for k, v := range merged {
		out = append(out, zap.Any(k, v))
	}
	return out
}

// Debug logs a message at Debug level.
func (l *ZapLogger) Debug(_ context.Context, msg string, fields ...map[string]interface{}) {
	l.logger.Debug(msg, zapFields(fields)...)
}

// Info logs a message at Info level.
func (l *ZapLogger) Info(_ context.Context, msg string, fields ...map[string]interface{}) {
	l.logger.Info(msg, zapFields(fields)...)
}

// Warn logs a message at Warning level.
func (l *ZapLogger) Warn(_ context.Context, msg string, fields ...map[string]interface{}) {
	l.logger.Warn(msg, zapFields(fields)...)
}

// Error logs an error message at Error level.
func (l *ZapLogger) Error(_ context.Context, err error, msg string, fields ...map[string]interface{}) {
	fs := zapFields(fields)
	if err != nil {
		fs = append(fs, zap.Error(err))
	}
	l.logger.Error(msg, fs...)
}
