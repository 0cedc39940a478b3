// Package log builds zap loggers for hosts of channel_ive_go. The library
// itself logs through whatever *zap.Logger its channel.Runtime carries
// (a no-op by default); hand one of these to channel.WithLogger.
package log

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level re-exports zap's level type so callers need not import zapcore.
type Level = zapcore.Level

const (
	LevelDebug = zapcore.DebugLevel
	LevelInfo  = zapcore.InfoLevel
	LevelWarn  = zapcore.WarnLevel
	LevelError = zapcore.ErrorLevel
)

// NewConsole returns a human-readable logger writing to stdout at the given level.
func NewConsole(level Level) *zap.Logger {
	consoleCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.Lock(os.Stdout),
		level,
	)
	return zap.New(consoleCore)
}

// NewTest returns a debug-level console logger for tests.
func NewTest() *zap.Logger {
	return NewConsole(LevelDebug)
}

// NewProduction returns zap's production logger, falling back to a no-op
// logger when it cannot be built.
func NewProduction() *zap.Logger {
	logger, err := zap.NewProduction()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// Sync flushes logger, reporting failures through the logger itself.
func Sync(logger *zap.Logger) {
	if err := logger.Sync(); err != nil {
		logger.Warn("failed to sync logger", zap.Error(err))
	}
}
