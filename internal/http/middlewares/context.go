package middlewares

import (
	"context"

	"github.com/somahq/soma/internal/jwt"
)

// =================================================================================
// CONTEXT KEYS
// =================================================================================

type ctxKey string

const (
	// ctxClaimsKey guarda las claims del bearer token del dashboard
	ctxClaimsKey ctxKey = "claims"
	// ctxRequestIDKey guarda el request ID
	ctxRequestIDKey ctxKey = "request_id"
)

// WithClaims inyecta claims en el contexto
func WithClaims(ctx context.Context, claims *jwt.DashboardClaims) context.Context {
	return context.WithValue(ctx, ctxClaimsKey, claims)
}

func setRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxRequestIDKey, requestID)
}

// GetClaims obtiene las claims del contexto.
// Retorna nil si la ruta no pasó por RequireAuth.
func GetClaims(ctx context.Context) *jwt.DashboardClaims {
	if c, ok := ctx.Value(ctxClaimsKey).(*jwt.DashboardClaims); ok {
		return c
	}
	return nil
}

// GetRequestID obtiene el request ID del contexto.
func GetRequestID(ctx context.Context) string {
	if v, ok := ctx.Value(ctxRequestIDKey).(string); ok {
		return v
	}
	return ""
}
