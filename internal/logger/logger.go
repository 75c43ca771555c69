// Package logger provides the process-wide structured logger for stayscout.
//
// All packages log through the functions here so the CLI can switch level and
// format once at startup.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
)

var (
	current *slog.Logger
	mu      sync.RWMutex
)

func init() {
	current = newLogger(os.Stderr, slog.LevelInfo, false)
}

// Options configures the logger.
type Options struct {
	Debug  bool         // Enable debug level logging
	Quiet  bool         // Only show errors; wins over Debug
	JSON   bool         // Emit JSON records instead of text
	Output io.Writer    // Destination (default: stderr)
	Logger *slog.Logger // Use this logger as-is, ignoring the other fields
}

// Init replaces the process logger according to opts.
func Init(opts Options) {
	l := opts.Logger
	if l == nil {
		out := opts.Output
		if out == nil {
			out = os.Stderr
		}
		l = newLogger(out, levelFor(opts), opts.JSON)
	}

	mu.Lock()
	current = l
	mu.Unlock()
}

// SetLogger installs an application-provided logger.
func SetLogger(l *slog.Logger) {
	Init(Options{Logger: l})
}

func levelFor(opts Options) slog.Level {
	switch {
	case opts.Quiet:
		return slog.LevelError
	case opts.Debug:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

func newLogger(w io.Writer, level slog.Level, asJSON bool) *slog.Logger {
	hopts := &slog.HandlerOptions{Level: level}
	if asJSON {
		return slog.New(slog.NewJSONHandler(w, hopts))
	}
	return slog.New(slog.NewTextHandler(w, hopts))
}

func get() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Debug logs at debug level.
func Debug(msg string, args ...any) { get().Debug(msg, args...) }

// Info logs at info level.
func Info(msg string, args ...any) { get().Info(msg, args...) }

// Warn logs at warn level. Per-item degradations (dropped images, skipped
// listings) are reported here.
func Warn(msg string, args ...any) { get().Warn(msg, args...) }

// Error logs at error level.
func Error(msg string, args ...any) { get().Error(msg, args...) }

// With returns a child logger carrying the given attributes.
func With(args ...any) *slog.Logger { return get().With(args...) }

// Enabled reports whether records at level would be emitted.
func Enabled(ctx context.Context, level slog.Level) bool {
	return get().Enabled(ctx, level)
}

func DebugContext(ctx context.Context, msg string, args ...any) { get().DebugContext(ctx, msg, args...) }

func InfoContext(ctx context.Context, msg string, args ...any) { get().InfoContext(ctx, msg, args...) }

func WarnContext(ctx context.Context, msg string, args ...any) { get().WarnContext(ctx, msg, args...) }

func ErrorContext(ctx context.Context, msg string, args ...any) { get().ErrorContext(ctx, msg, args...) }
