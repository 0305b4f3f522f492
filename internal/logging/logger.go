package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// SafeLogger wraps a zap logger and tolerates nil receivers, so components can
// hold a logger before InitLogger runs.
type SafeLogger struct {
	logger *zap.Logger
}

var (
	// Logger is the global logger instance. It starts as a nop logger.
	Logger = &SafeLogger{logger: zap.NewNop()}
)

// InitLogger initializes the global logger
func InitLogger() error {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	// Set log level from environment
	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		var level zapcore.Level
		if err := level.UnmarshalText([]byte(logLevel)); err == nil {
			config.Level = zap.NewAtomicLevelAt(level)
		}
	}

	zapLogger, err := config.Build(
		zap.AddCallerSkip(1),
		zap.Fields(
			zap.String("service", "copper-mobile-api"),
			zap.String("version", "v1"),
		),
	)
	if err != nil {
		return err
	}

	Logger = &SafeLogger{logger: zapLogger}
	zap.ReplaceGlobals(zapLogger)
	return nil
}

// New wraps an existing zap logger.
func New(logger *zap.Logger) *SafeLogger {
	return &SafeLogger{logger: logger}
}

// Debug logs at debug level
func (l *SafeLogger) Debug(msg string, fields ...zap.Field) {
	if l == nil || l.logger == nil {
		return
	}
	l.logger.Debug(msg, fields...)
}

// Info logs at info level
func (l *SafeLogger) Info(msg string, fields ...zap.Field) {
	if l == nil || l.logger == nil {
		return
	}
	l.logger.Info(msg, fields...)
}

// Warn logs at warn level
func (l *SafeLogger) Warn(msg string, fields ...zap.Field) {
	if l == nil || l.logger == nil {
		return
	}
	l.logger.Warn(msg, fields...)
}

// Error logs at error level
func (l *SafeLogger) Error(msg string, fields ...zap.Field) {
	if l == nil || l.logger == nil {
		return
	}
	l.logger.Error(msg, fields...)
}

// Fatal logs at fatal level and exits. A nil logger still exits.
func (l *SafeLogger) Fatal(msg string, fields ...zap.Field) {
	if l == nil || l.logger == nil {
		os.Exit(1)
	}
	l.logger.Fatal(msg, fields...)
}

// With returns a child logger carrying the given fields.
func (l *SafeLogger) With(fields ...zap.Field) *SafeLogger {
	if l == nil || l.logger == nil {
		return l
	}
	return &SafeLogger{logger: l.logger.With(fields...)}
}

// Unwrap returns the underlying zap logger, or a nop logger when unset.
func (l *SafeLogger) Unwrap() *zap.Logger {
	if l == nil || l.logger == nil {
		return zap.NewNop()
	}
	return l.logger
}

// Sync flushes buffered log entries.
func (l *SafeLogger) Sync() error {
	if l == nil || l.logger == nil {
		return nil
	}
	return l.logger.Sync()
}
