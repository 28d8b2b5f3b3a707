// Package requestid carries the inbound request id across goroutines so
// background work can log it.
package requestid

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey struct{}

func WithID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, id)
}

func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// Logger returns logger annotated with the request id from ctx, if any.
func Logger(ctx context.Context, logger *zap.Logger) *zap.Logger {
	if id := FromContext(ctx); id != "" {
		return logger.With(zap.String("request_id", id))
	}
	return logger
}
