// Package grpcauthctx moves caller identity through gRPC metadata.
package grpcauthctx

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

const (
	// AuthorizationHeader carries the bearer session token.
	AuthorizationHeader = "authorization"
	// UserIDHeader carries an identity already verified by the caller.
	UserIDHeader = "x-ledgerly-user-id"

	bearerPrefix = "bearer "
)

// WithBearerToken returns a context whose outgoing metadata carries token as
// a bearer credential when token is non-empty.
func WithBearerToken(ctx context.Context, token string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, AuthorizationHeader, "Bearer "+token)
}

// WithUserID returns a context with user-id gRPC metadata when userID is non-empty.
func WithUserID(ctx context.Context, userID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, UserIDHeader, userID)
}

// BearerTokenFromIncoming extracts the bearer token from incoming metadata.
func BearerTokenFromIncoming(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", false
	}
	for _, value := range md.Get(AuthorizationHeader) {
		if token, ok := ParseBearer(value); ok {
			return token, true
		}
	}
	return "", false
}

// ParseBearer returns the token of an "Authorization: Bearer <token>" value.
// The scheme is matched case-insensitively.
func ParseBearer(value string) (string, bool) {
	value = strings.TrimSpace(value)
	if len(value) <= len(bearerPrefix) || !strings.EqualFold(value[:len(bearerPrefix)], bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(value[len(bearerPrefix):])
	return token, token != ""
}

// BearerUnaryClientInterceptor attaches the token returned by tokenFor to
// every unary call.
func BearerUnaryClientInterceptor(tokenFor func(context.Context) string) grpc.UnaryClientInterceptor {
	return func(
		ctx context.Context,
		method string,
		req any,
		reply any,
		cc *grpc.ClientConn,
		invoker grpc.UnaryInvoker,
		opts ...grpc.CallOption,
	) error {
		if tokenFor != nil {
			ctx = WithBearerToken(ctx, tokenFor(ctx))
		}
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}
