package logger

import (
	"context"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type ctxKey struct{}

// echoKey is where request-scoped loggers live in the echo context
const echoKey = "logger"

// WithLogger returns a copy of ctx carrying l
func WithLogger(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromCtx returns the logger carried by ctx, or the global one
func FromCtx(ctx context.Context) *zap.Logger {
	return FromCtxOr(ctx, GetLogger())
}

// FromCtxOr returns the logger carried by ctx, or fallback
func FromCtxOr(ctx context.Context, fallback *zap.Logger) *zap.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok {
		return l
	}
	return fallback
}

// Bind stores l as the request logger in both the echo context and the
// request's Go context, so services called with c.Request().Context() log
// with the same fields.
func Bind(c echo.Context, l *zap.Logger) {
	c.Set(echoKey, l)
	c.SetRequest(c.Request().WithContext(WithLogger(c.Request().Context(), l)))
}

// FromContext returns the request logger of an echo handler
func FromContext(c echo.Context) *zap.Logger {
	if l, ok := c.Get(echoKey).(*zap.Logger); ok {
		return l
	}
	return FromCtx(c.Request().Context())
}
