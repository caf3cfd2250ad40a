// Package authv1 is the wire contract of the token verification service.
//
// Messages travel with the JSON codec registered by internal/platform/grpc;
// the client selects it on every call.
package authv1

import (
	"context"

	platformgrpc "github.com/ledgerly/ledgerly/internal/platform/grpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ServiceName is the fully qualified service name, also used for health.
const ServiceName = "ledgerly.auth.v1.TokenService"

const TokenService_VerifyToken_FullMethodName = "/" + ServiceName + "/VerifyToken"

// Error reasons returned in VerifyTokenResponse.ErrorReason.
const (
	ReasonTokenExpired = "TOKEN_EXPIRED"
	ReasonTokenInvalid = "TOKEN_INVALID"
)

type VerifyTokenRequest struct {
	Token string `json:"token"`
}

func (x *VerifyTokenRequest) GetToken() string {
	if x != nil {
		return x.Token
	}
	return ""
}

// VerifyTokenResponse carries exactly one of UserID or ErrorReason.
type VerifyTokenResponse struct {
	UserID      string `json:"user_id,omitempty"`
	ErrorReason string `json:"error_reason,omitempty"`
}

func (x *VerifyTokenResponse) GetUserID() string {
	if x != nil {
		return x.UserID
	}
	return ""
}

func (x *VerifyTokenResponse) GetErrorReason() string {
	if x != nil {
		return x.ErrorReason
	}
	return ""
}

// TokenServiceClient is the client API for TokenService.
type TokenServiceClient interface {
	VerifyToken(ctx context.Context, in *VerifyTokenRequest, opts ...grpc.CallOption) (*VerifyTokenResponse, error)
}

type tokenServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewTokenServiceClient(cc grpc.ClientConnInterface) TokenServiceClient {
	return &tokenServiceClient{cc}
}

func (c *tokenServiceClient) VerifyToken(ctx context.Context, in *VerifyTokenRequest, opts ...grpc.CallOption) (*VerifyTokenResponse, error) {
	callOpts := append([]grpc.CallOption{grpc.CallContentSubtype(platformgrpc.JSONCodecName)}, opts...)
	out := new(VerifyTokenResponse)
	if err := c.cc.Invoke(ctx, TokenService_VerifyToken_FullMethodName, in, out, callOpts...); err != nil {
		return nil, err
	}
	return out, nil
}

// TokenServiceServer is the server API for TokenService.
type TokenServiceServer interface {
	VerifyToken(context.Context, *VerifyTokenRequest) (*VerifyTokenResponse, error)
}

// UnimplementedTokenServiceServer can be embedded for forward compatibility.
type UnimplementedTokenServiceServer struct{}

func (UnimplementedTokenServiceServer) VerifyToken(context.Context, *VerifyTokenRequest) (*VerifyTokenResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method VerifyToken not implemented")
}

func RegisterTokenServiceServer(s grpc.ServiceRegistrar, srv TokenServiceServer) {
	s.RegisterService(&TokenService_ServiceDesc, srv)
}

func _TokenService_VerifyToken_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(VerifyTokenRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TokenServiceServer).VerifyToken(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: TokenService_VerifyToken_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(TokenServiceServer).VerifyToken(ctx, req.(*VerifyTokenRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// TokenService_ServiceDesc is the grpc.ServiceDesc for TokenService.
var TokenService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TokenServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "VerifyToken",
			Handler:    _TokenService_VerifyToken_Handler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "auth/v1/token.proto",
}
