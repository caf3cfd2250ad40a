// Package authguard lets downstream services authenticate requests against
// the auth service without holding the token signing secret.
//
// A Verifier resolves a bearer token to a user id. Middleware and
// UnaryServerInterceptor reject requests whose token does not resolve and
// put the user id into the request context for the rest.
package authguard

import (
	"context"
	"strings"

	authv1 "github.com/ledgerly/ledgerly/api/auth/v1"
	apperrors "github.com/ledgerly/ledgerly/internal/platform/errors"
)

// Verifier resolves a session token to the user it was issued for.
type Verifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// reasonError maps a rejection reason reported by the auth service to a
// domain error.
func reasonError(reason string) error {
	switch strings.TrimSpace(reason) {
	case authv1.ReasonTokenExpired:
		return apperrors.New(apperrors.CodeTokenExpired, "token is expired")
	default:
		return apperrors.New(apperrors.CodeTokenInvalid, "token rejected: "+reason)
	}
}

func missingToken() error {
	return apperrors.New(apperrors.CodeTokenMissing, "bearer token is required")
}
