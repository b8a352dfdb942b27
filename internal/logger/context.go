package logger

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey string

const requestIDKey ctxKey = "request_id"

// WithRequestID stores the id minted by RequestIDMiddleware so downstream
// services and repositories log under the same correlation id.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func RequestIDFrom(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// FromCtx returns the global logger tagged with the request id, when one
// is present, so bid/order/cashout log lines correlate with the access log.
func FromCtx(ctx context.Context) *zap.Logger {
	if reqID := RequestIDFrom(ctx); reqID != "" {
		return L().With(zap.String("request_id", reqID))
	}
	return L()
}
