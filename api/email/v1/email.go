// Package emailv1 is the wire contract of the email collaborator service.
package emailv1

import (
	"context"

	platformgrpc "github.com/ledgerly/ledgerly/internal/platform/grpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ServiceName is the fully qualified service name, also used for health.
const ServiceName = "ledgerly.email.v1.EmailService"

const (
	EmailService_SendActivationEmail_FullMethodName    = "/" + ServiceName + "/SendActivationEmail"
	EmailService_SendPasswordResetEmail_FullMethodName = "/" + ServiceName + "/SendPasswordResetEmail"
)

// SendEmailRequest addresses a templated email to one recipient.
type SendEmailRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Link     string `json:"link"`
	Locale   string `json:"locale,omitempty"`
}

type SendEmailResponse struct{}

// EmailServiceClient is the client API for EmailService.
type EmailServiceClient interface {
	SendActivationEmail(ctx context.Context, in *SendEmailRequest, opts ...grpc.CallOption) (*SendEmailResponse, error)
	SendPasswordResetEmail(ctx context.Context, in *SendEmailRequest, opts ...grpc.CallOption) (*SendEmailResponse, error)
}

type emailServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewEmailServiceClient(cc grpc.ClientConnInterface) EmailServiceClient {
	return &emailServiceClient{cc}
}

func (c *emailServiceClient) SendActivationEmail(ctx context.Context, in *SendEmailRequest, opts ...grpc.CallOption) (*SendEmailResponse, error) {
	return c.invoke(ctx, EmailService_SendActivationEmail_FullMethodName, in, opts)
}

func (c *emailServiceClient) SendPasswordResetEmail(ctx context.Context, in *SendEmailRequest, opts ...grpc.CallOption) (*SendEmailResponse, error) {
	return c.invoke(ctx, EmailService_SendPasswordResetEmail_FullMethodName, in, opts)
}

func (c *emailServiceClient) invoke(ctx context.Context, method string, in *SendEmailRequest, opts []grpc.CallOption) (*SendEmailResponse, error) {
	callOpts := append([]grpc.CallOption{grpc.CallContentSubtype(platformgrpc.JSONCodecName)}, opts...)
	out := new(SendEmailResponse)
	if err := c.cc.Invoke(ctx, method, in, out, callOpts...); err != nil {
		return nil, err
	}
	return out, nil
}

// EmailServiceServer is the server API for EmailService.
type EmailServiceServer interface {
	SendActivationEmail(context.Context, *SendEmailRequest) (*SendEmailResponse, error)
	SendPasswordResetEmail(context.Context, *SendEmailRequest) (*SendEmailResponse, error)
}

// UnimplementedEmailServiceServer can be embedded for forward compatibility.
type UnimplementedEmailServiceServer struct{}

func (UnimplementedEmailServiceServer) SendActivationEmail(context.Context, *SendEmailRequest) (*SendEmailResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SendActivationEmail not implemented")
}

func (UnimplementedEmailServiceServer) SendPasswordResetEmail(context.Context, *SendEmailRequest) (*SendEmailResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SendPasswordResetEmail not implemented")
}

func RegisterEmailServiceServer(s grpc.ServiceRegistrar, srv EmailServiceServer) {
	s.RegisterService(&EmailService_ServiceDesc, srv)
}

func unaryHandler(method string, call func(EmailServiceServer, context.Context, *SendEmailRequest) (*SendEmailResponse, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(SendEmailRequest)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(EmailServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(EmailServiceServer), ctx, req.(*SendEmailRequest))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// EmailService_ServiceDesc is the grpc.ServiceDesc for EmailService.
var EmailService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*EmailServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "SendActivationEmail",
			Handler: unaryHandler(EmailService_SendActivationEmail_FullMethodName,
				EmailServiceServer.SendActivationEmail),
		},
		{
			MethodName: "SendPasswordResetEmail",
			Handler: unaryHandler(EmailService_SendPasswordResetEmail_FullMethodName,
				EmailServiceServer.SendPasswordResetEmail),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "email/v1/email.proto",
}
