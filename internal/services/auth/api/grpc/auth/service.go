// Package auth serves the token verification RPC used by downstream
// services.
package auth

import (
	"context"
	"strings"

	authv1 "github.com/ledgerly/ledgerly/api/auth/v1"
	apperrors "github.com/ledgerly/ledgerly/internal/platform/errors"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// TokenVerifier validates session tokens.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// TokenService implements the auth.v1.TokenService gRPC API.
//
// Rejected tokens are a normal response carrying an error reason; only
// failures of the auth service itself surface as gRPC errors.
type TokenService struct {
	authv1.UnimplementedTokenServiceServer
	verifier TokenVerifier
	logf     func(string, ...any)
}

// NewTokenService builds the RPC server around a token verifier.
func NewTokenService(verifier TokenVerifier, logf func(string, ...any)) *TokenService {
	if logf == nil {
		logf = func(string, ...any) {}
	}
	return &TokenService{verifier: verifier, logf: logf}
}

// VerifyToken returns the token's user id or the reason it was rejected.
func (s *TokenService) VerifyToken(ctx context.Context, in *authv1.VerifyTokenRequest) (*authv1.VerifyTokenResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "verify token request is required")
	}
	if s.verifier == nil {
		return nil, status.Error(codes.Internal, "token verifier is not configured")
	}
	token := strings.TrimSpace(in.GetToken())
	if token == "" {
		return &authv1.VerifyTokenResponse{ErrorReason: authv1.ReasonTokenInvalid}, nil
	}

	userID, err := s.verifier.Verify(ctx, token)
	if err == nil {
		return &authv1.VerifyTokenResponse{UserID: userID}, nil
	}
	switch apperrors.GetCode(err) {
	case apperrors.CodeTokenExpired:
		return &authv1.VerifyTokenResponse{ErrorReason: authv1.ReasonTokenExpired}, nil
	case apperrors.CodeTokenInvalid:
		return &authv1.VerifyTokenResponse{ErrorReason: authv1.ReasonTokenInvalid}, nil
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		s.logf("verify token: %v (trace %s)", err, sc.TraceID())
	} else {
		s.logf("verify token: %v", err)
	}
	return nil, apperrors.HandleError(err, apperrors.DefaultLocale)
}
