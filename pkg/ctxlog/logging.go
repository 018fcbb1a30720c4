package ctxlog

import (
	"context"
	"log/slog"
	"os"

	"github.com/go-logr/logr"
)

// defaultLogger is used by the package-level Debug/Info/Warn/Error
// helpers until SetLogger overrides it.
var defaultLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

// SetLogger overrides the logger used by the package-level helpers.
// Typically called once at test-suite setup to raise the level to
// Debug when diagnosing a stubbing/verification mismatch.
func SetLogger(l *slog.Logger) {
	if l == nil {
		return
	}
	defaultLogger = l
}

// Debug logs a debug-level trace, tagged with subsystem "ctxmock".
func Debug(msg string, args ...any) {
	defaultLogger.Log(context.Background(), slog.LevelDebug, msg, append([]any{"subsystem", "ctxmock"}, args...)...)
}

// Info logs an info-level message, tagged with subsystem "ctxmock".
func Info(msg string, args ...any) {
	defaultLogger.Log(context.Background(), slog.LevelInfo, msg, append([]any{"subsystem", "ctxmock"}, args...)...)
}

// Warn logs a warn-level message, tagged with subsystem "ctxmock".
func Warn(msg string, args ...any) {
	defaultLogger.Log(context.Background(), slog.LevelWarn, msg, append([]any{"subsystem", "ctxmock"}, args...)...)
}

// Error logs an error-level message with err attached, tagged with
// subsystem "ctxmock".
func Error(err error, msg string, args ...any) {
	attrs := append([]any{"subsystem", "ctxmock"}, args...)
	if err != nil {
		attrs = append(attrs, "error", err.Error())
	}
	defaultLogger.Log(context.Background(), slog.LevelError, msg, attrs...)
}

// Logr adapts the current default logger to a logr.Logger, for host
// test harnesses that standardized on go-logr instead of slog
// directly - the same bridging role the teacher's pkg/logging gives
// controller-runtime, minus the Kubernetes-specific wiring this module
// has no use for.
func Logr() logr.Logger {
	return logr.FromSlogHandler(defaultLogger.Handler())
}
