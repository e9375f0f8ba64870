package pyrite

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with consistent field names for save and load
// operations.
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
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithRoot adds the root region name to the logger.
func (l *Logger) WithRoot(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("root", name),
	}
}

// LogSave logs a save operation.
func (l *Logger) LogSave(ctx context.Context, root string, bytes int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "save failed",
			"root", root,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "save completed",
			"root", root,
			"bytes", bytes,
		)
	}
}

// LogLoad logs a load operation.
func (l *Logger) LogLoad(ctx context.Context, root string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "load failed",
			"root", root,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "load completed",
			"root", root,
		)
	}
}
