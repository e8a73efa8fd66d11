// Package logger holds the process-wide structured logger.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// L is the global logger instance. It discards output until Init is called.
var L = slog.New(slog.NewTextHandler(io.Discard, nil))

// closer is the log file opened by Init, if any.
var closer io.Closer

// Options configures the logger initialization.
type Options struct {
	Writer io.Writer  // text output when File is empty; default os.Stderr
	File   string     // JSON log file, appended to
	Level  slog.Level // minimum level
}

// Init configures logging. Call from main before any log calls.
func Init(opts Options) error {
	Close()

	hopts := &slog.HandlerOptions{Level: opts.Level}

	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		closer = f
		L = slog.New(slog.NewJSONHandler(f, hopts))
		return nil
	}

	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	L = slog.New(slog.NewTextHandler(w, hopts))

	return nil
}

// Close releases the log file opened by Init.
func Close() {
	if closer != nil {
		_ = closer.Close()
		closer = nil
	}
}

// ParseLevel parses debug, info, warn or error.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// Debug logs a debug message with optional key-value pairs.
func Debug(msg string, args ...any) { L.Debug(msg, args...) }

// Info logs an info message with optional key-value pairs.
func Info(msg string, args ...any) { L.Info(msg, args...) }

// Warn logs a warning message with optional key-value pairs.
func Warn(msg string, args ...any) { L.Warn(msg, args...) }

// Error logs an error message with optional key-value pairs.
func Error(msg string, args ...any) { L.Error(msg, args...) }
