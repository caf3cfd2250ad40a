package authguard

import (
	"context"
	"strings"

	authv1 "github.com/ledgerly/ledgerly/api/auth/v1"
	apperrors "github.com/ledgerly/ledgerly/internal/platform/errors"
	"github.com/ledgerly/ledgerly/internal/platform/requestctx"
	"github.com/ledgerly/ledgerly/internal/platform/timeouts"
	"github.com/ledgerly/ledgerly/internal/services/shared/grpcauthctx"
	"google.golang.org/grpc"
)

// GRPCVerifier asks the auth service's VerifyToken RPC.
type GRPCVerifier struct {
	client authv1.TokenServiceClient
}

// NewGRPCVerifier builds a verifier on a shared connection to the auth
// service.
func NewGRPCVerifier(conn grpc.ClientConnInterface) *GRPCVerifier {
	return &GRPCVerifier{client: authv1.NewTokenServiceClient(conn)}
}

// Verify implements Verifier.
func (v *GRPCVerifier) Verify(ctx context.Context, token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", missingToken()
	}
	callCtx, cancel := context.WithTimeout(ctx, timeouts.GRPCRequest)
	defer cancel()

	resp, err := v.client.VerifyToken(callCtx, &authv1.VerifyTokenRequest{Token: token})
	if err != nil {
		return "", apperrors.FromTransport("verify token", err)
	}
	if reason := resp.GetErrorReason(); reason != "" {
		return "", reasonError(reason)
	}
	userID := strings.TrimSpace(resp.GetUserID())
	if userID == "" {
		return "", reasonError(authv1.ReasonTokenInvalid)
	}
	return userID, nil
}

// UnaryServerInterceptor authenticates every unary call except the listed
// full method names, which usually include the health service.
func UnaryServerInterceptor(verifier Verifier, public ...string) grpc.UnaryServerInterceptor {
	skip := make(map[string]struct{}, len(public))
	for _, method := range public {
		skip[method] = struct{}{}
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if _, ok := skip[info.FullMethod]; ok {
			return handler(ctx, req)
		}
		token, ok := grpcauthctx.BearerTokenFromIncoming(ctx)
		if !ok {
			return nil, apperrors.HandleError(missingToken(), apperrors.DefaultLocale)
		}
		userID, err := verifier.Verify(ctx, token)
		if err != nil {
			return nil, apperrors.HandleError(err, apperrors.DefaultLocale)
		}
		return handler(requestctx.WithUserID(ctx, userID), req)
	}
}
