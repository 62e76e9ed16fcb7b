// Package logger provides the engine's singleton structured logger. It
// wraps log/slog behind package-level functions so every layer — discovery,
// invocation, configure — can log without threading a logger through every
// call, mirroring the ambient logging convention used throughout the pack.
package logger

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
)

var singleton atomic.Pointer[slog.Logger]

func init() {
	singleton.Store(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))
}

// Initialize configures the singleton logger's level from DSC_TRACE_LEVEL
// (one of "trace", "debug", "info", "warn", "error"; default "info").
func Initialize() {
	level := slog.LevelInfo
	switch os.Getenv("DSC_TRACE_LEVEL") {
	case "trace", "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	singleton.Store(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// SetForTest swaps in a caller-supplied logger, returning a restore func.
func SetForTest(l *slog.Logger) (restore func()) {
	prev := singleton.Load()
	singleton.Store(l)
	return func() { singleton.Store(prev) }
}

func get() *slog.Logger { return singleton.Load() }

// Debug logs at debug level.
func Debug(msg string) { get().Debug(msg) }

// Debugf logs a formatted message at debug level.
func Debugf(format string, args ...any) { get().Debug(sprintf(format, args...)) }

// Debugw logs a message with structured key/value pairs at debug level.
func Debugw(msg string, kv ...any) { get().Log(context.Background(), slog.LevelDebug, msg, kv...) }

// Info logs at info level.
func Info(msg string) { get().Info(msg) }

// Infof logs a formatted message at info level.
func Infof(format string, args ...any) { get().Info(sprintf(format, args...)) }

// Infow logs a message with structured key/value pairs at info level.
func Infow(msg string, kv ...any) { get().Log(context.Background(), slog.LevelInfo, msg, kv...) }

// Warn logs at warn level.
func Warn(msg string) { get().Warn(msg) }

// Warnf logs a formatted message at warn level.
func Warnf(format string, args ...any) { get().Warn(sprintf(format, args...)) }

// Warnw logs a message with structured key/value pairs at warn level.
func Warnw(msg string, kv ...any) { get().Log(context.Background(), slog.LevelWarn, msg, kv...) }

// Error logs at error level.
func Error(msg string) { get().Error(msg) }

// Errorf logs a formatted message at error level.
func Errorf(format string, args ...any) { get().Error(sprintf(format, args...)) }

// Errorw logs a message with structured key/value pairs at error level.
func Errorw(msg string, kv ...any) { get().Log(context.Background(), slog.LevelError, msg, kv...) }

func sprintf(format string, args ...any) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
