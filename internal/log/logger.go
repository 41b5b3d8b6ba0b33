// Package log provides the process-wide leveled logger used by scout.
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

// Verbosity levels
const (
	LevelQuiet = iota // Default: only errors and warnings
	LevelInfo         // -v: searches, cache hits, page loads
	LevelDebug        // -vv: upstream calls, enrichment tasks, dedup decisions
	LevelTrace        // -vvv: full request parameters and payload sizes
)

const slogLevelTrace = slog.Level(-8)

var (
	mu         sync.Mutex
	verbosity  int
	logger     *slog.Logger
	output     io.Writer
	inProgress bool // an unterminated progress line is on screen
)

// Initialize sets up the global logger with the specified verbosity level
func Initialize(level int, w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	verbosity = level
	output = w

	var slogLevel slog.Level
	switch {
	case level >= LevelTrace:
		slogLevel = slogLevelTrace
	case level >= LevelDebug:
		slogLevel = slog.LevelDebug
	case level >= LevelInfo:
		slogLevel = slog.LevelInfo
	default:
		slogLevel = slog.LevelWarn
	}

	logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: slogLevel,
	}))
}

// Info logs at info level (-v)
func Info(msg string, args ...any) {
	if Verbosity() >= LevelInfo {
		emit(slog.LevelInfo, msg, args)
	}
}

// Debug logs at debug level (-vv)
func Debug(msg string, args ...any) {
	if Verbosity() >= LevelDebug {
		emit(slog.LevelDebug, msg, args)
	}
}

// Trace logs at trace level (-vvv)
func Trace(msg string, args ...any) {
	if Verbosity() >= LevelTrace {
		emit(slogLevelTrace, msg, args)
	}
}

// Warn logs at warn level (always visible)
func Warn(msg string, args ...any) {
	emit(slog.LevelWarn, msg, args)
}

// Error logs at error level (always visible)
func Error(msg string, args ...any) {
	emit(slog.LevelError, msg, args)
}

func emit(level slog.Level, msg string, args []any) {
	mu.Lock()
	clearProgress()
	l := logger
	mu.Unlock()
	l.Log(context.Background(), level, msg, args...)
}

// Progress prints a progress message with carriage return (no newline).
// Only shown at info level or higher.
func Progress(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if verbosity >= LevelInfo {
		inProgress = true
		_, _ = fmt.Fprintf(output, "\r"+format, args...)
	}
}

// ProgressDone completes a progress line with "done" and newline
func ProgressDone() {
	mu.Lock()
	defer mu.Unlock()
	if verbosity >= LevelInfo && inProgress {
		_, _ = fmt.Fprintln(output, " done")
		inProgress = false
	}
}

// clearProgress ensures we don't write over a progress line. Callers hold mu.
func clearProgress() {
	if inProgress {
		_, _ = fmt.Fprintln(output)
		inProgress = false
	}
}

// IsDebug returns true if debug-level logging is enabled
func IsDebug() bool {
	return Verbosity() >= LevelDebug
}

// Verbosity returns the current verbosity level
func Verbosity() int {
	mu.Lock()
	defer mu.Unlock()
	return verbosity
}

// Logger returns the underlying slog logger for components that take one,
// such as HTTP request logging.
func Logger() *slog.Logger {
	mu.Lock()
	defer mu.Unlock()
	return logger
}

func init() {
	output = os.Stderr
	verbosity = LevelQuiet
	logger = slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}
