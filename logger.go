package fluogo

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with fluogo-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	}))
}

// WithFile adds the blob name field to the logger.
func (l *Logger) WithFile(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("file", name),
	}
}

// WithChannel adds a detector channel field to the logger.
func (l *Logger) WithChannel(ch uint8) *Logger {
	return &Logger{
		Logger: l.Logger.With("channel", ch),
	}
}

// LogCorrelate logs the correlation of one photon stream.
// Scope the logger with WithFile to name the stream.
func (l *Logger) LogCorrelate(ctx context.Context, photons, curves int, took time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "correlate failed",
			"photons", photons,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "correlate completed",
			"photons", photons,
			"curves", curves,
			"duration", took,
		)
	}
}

// LogBatch logs a batch correlation run.
func (l *Logger) LogBatch(ctx context.Context, files, failed, written int, took time.Duration) {
	if failed > 0 {
		l.WarnContext(ctx, "batch completed with failures",
			"total", files,
			"failed", failed,
			"success", files-failed,
			"written", written,
		)
	} else {
		l.InfoContext(ctx, "batch completed",
			"files", files,
			"written", written,
			"duration", took,
		)
	}
}

// LogCorrection logs an artifact correction of the file and channel the
// logger is scoped to.
func (l *Logger) LogCorrection(ctx context.Context, method string, artifacts, removed int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "correction failed",
			"method", method,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "correction applied",
			"method", method,
			"artifact_bins", artifacts,
			"removed", removed,
		)
	}
}
