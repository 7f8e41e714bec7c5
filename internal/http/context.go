package http

import (
	"context"
	"log/slog"

	"github.com/example/appointments-planner/internal/application"
	"github.com/example/appointments-planner/internal/logging"
)

type contextKey string

const (
	principalContextKey contextKey = "principal"
	requestIDContextKey contextKey = "request_id"
	transportContextKey contextKey = "auth_transport"
)

// ContextWithPrincipal returns a derived context containing the authorized principal.
func ContextWithPrincipal(ctx context.Context, principal application.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}

// PrincipalFromContext extracts the principal placed by RequireBearer or RequireCookie.
func PrincipalFromContext(ctx context.Context) (application.Principal, bool) {
	principal, ok := ctx.Value(principalContextKey).(application.Principal)
	return principal, ok
}

// contextWithAuthorized records a principal that passed a gate check over transport.
func contextWithAuthorized(ctx context.Context, transport Transport, principal application.Principal) context.Context {
	return context.WithValue(ContextWithPrincipal(ctx, principal), transportContextKey, transport)
}

// authorizedPrincipal returns the principal an enclosing guard already
// resolved over the same transport.
func authorizedPrincipal(ctx context.Context, transport Transport) (application.Principal, bool) {
	seen, ok := ctx.Value(transportContextKey).(Transport)
	if !ok || seen != transport {
		return application.Principal{}, false
	}
	return PrincipalFromContext(ctx)
}

// ContextWithRequestID stores the request identifier assigned by RequestID.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, id)
}

// RequestIDFromContext returns the request identifier, or "" outside a request.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDContextKey).(string)
	return id
}

// ContextWithLogger attaches a request-scoped logger.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return logging.ContextWithLogger(ctx, logger)
}

// LoggerFromContext returns the request-scoped logger, if any.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx)
}
