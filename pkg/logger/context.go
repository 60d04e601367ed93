package logger

import (
	"context"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type contextKey string

// ctxKey carries the logger inside a context.Context; EchoKey is its echo
// counterpart, shared with Middleware which stores the request-scoped
// logger under it.
const (
	ctxKey  contextKey = "logger"
	EchoKey            = "logger"
)

// WithContext returns a context carrying l
func WithContext(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey, l)
}

// FromContext returns the context's logger, falling back to the global one
// so callers never receive nil
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(ctxKey).(*zap.Logger); ok {
		return l
	}
	return GetLogger()
}

// FromEcho returns the request-scoped logger set by Middleware, falling
// back to the global one for routes outside the middleware chain
func FromEcho(c echo.Context) *zap.Logger {
	if l, ok := c.Get(EchoKey).(*zap.Logger); ok {
		return l
	}
	return GetLogger()
}
