package logger

import (
	"context"
	"log/slog"
)

// loggerContextKey is the private type used for the logger context key to
// avoid collisions with keys from other packages.
type loggerContextKey struct{}

// WithLogger returns a new context carrying the provided logger.
// Handlers attach request-scoped loggers (e.g. with a trace ID) so that
// downstream services log with the same correlation attributes.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey{}, logger)
}

// FromContext retrieves the logger from the context.
// If no logger is present, the process-wide default logger is returned,
// so callers never need to nil-check.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerContextKey{}).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return slog.Default()
}

// FromContextOrDefault retrieves the logger from the context, falling back to
// the provided logger (rather than the global default) when none is present.
func FromContextOrDefault(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if logger, ok := ctx.Value(loggerContextKey{}).(*slog.Logger); ok && logger != nil {
		return logger
	}
	if fallback != nil {
		return fallback
	}
	return slog.Default()
}
