package http

import (
	"context"
	"log/slog"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

// handlerLogger prefers the request-scoped logger installed by RequestLogger,
// which already carries the request ID, and tags it with the handler, the
// operation and the acting principal.
func handlerLogger(ctx context.Context, fallback *slog.Logger, handler, operation string, attrs ...any) *slog.Logger {
	logger := LoggerFromContext(ctx)
	if logger == nil {
		logger = defaultLogger(fallback)
		if id := RequestIDFromContext(ctx); id != "" {
			logger = logger.With("request_id", id)
		}
	}

	pairs := make([]any, 0, 6+len(attrs))
	pairs = append(pairs, "handler", handler)
	if operation != "" {
		pairs = append(pairs, "operation", operation)
	}
	if principal, ok := PrincipalFromContext(ctx); ok && principal.Username != "" {
		pairs = append(pairs, "principal", principal.Username)
	}
	return logger.With(append(pairs, attrs...)...)
}
