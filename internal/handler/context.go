package handlers

import (
	"context"

	"tesatiki/internal/security"
)

type contextKey string

const claimsKey contextKey = "claims"

// WithClaims stores verified token claims on the request context.
func WithClaims(ctx context.Context, claims *security.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// ClaimsFromContext returns the claims set by the auth middleware, or nil.
func ClaimsFromContext(ctx context.Context) *security.Claims {
	claims, _ := ctx.Value(claimsKey).(*security.Claims)
	return claims
}
