package goAuthClient

import (
	"context"

	"github.com/MrEthical07/goAuthClient/api"
)

// WithRequestID attaches a correlation id to ctx. It is sent as
// X-Request-ID on the gateway call and recorded on audit events; without
// it every call gets a fresh id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return api.WithRequestID(ctx, id)
}

func requestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	return api.RequestIDFromContext(ctx)
}
