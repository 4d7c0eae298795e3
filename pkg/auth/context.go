package auth

import (
	"context"
)

type contextKey string

const claimsKey contextKey = "jwt_claims"

// AddClaimsToContext stores validated session claims in the context.
func AddClaimsToContext(ctx context.Context, claims *SessionClaims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// ClaimsFromContext returns the claims stored by RequireToken.
func ClaimsFromContext(ctx context.Context) (*SessionClaims, bool) {
	claims, ok := ctx.Value(claimsKey).(*SessionClaims)
	return claims, ok && claims != nil
}
