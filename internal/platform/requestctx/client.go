package requestctx

import "context"

// Client describes the caller of a request as seen at the edge.
type Client struct {
	IP        string
	UserAgent string
}

type clientContextKey struct{}

// WithClient stores caller details in context.
func WithClient(ctx context.Context, client Client) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, clientContextKey{}, client)
}

// ClientFromContext returns the caller details stored in context.
func ClientFromContext(ctx context.Context) Client {
	if ctx == nil {
		return Client{}
	}
	value, _ := ctx.Value(clientContextKey{}).(Client)
	return value
}
