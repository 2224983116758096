package httpapi

import (
	"context"
	"errors"

	"scoutpulse-platform/internal/session"
)

type ctxKey int

const (
	ctxUser ctxKey = iota
	ctxSession
)

// WithIdentity stores the resolved user and session on the request context.
func WithIdentity(ctx context.Context, u *session.User, s *session.Session) context.Context {
	ctx = context.WithValue(ctx, ctxUser, u)
	ctx = context.WithValue(ctx, ctxSession, s)
	return ctx
}

// UserFrom returns the authenticated user placed by the middleware.
func UserFrom(ctx context.Context) (*session.User, error) {
	if u, ok := ctx.Value(ctxUser).(*session.User); ok && u != nil {
		return u, nil
	}
	return nil, errors.New("user not in context")
}

// SessionFrom returns the resolved session placed by the middleware.
func SessionFrom(ctx context.Context) (*session.Session, error) {
	if s, ok := ctx.Value(ctxSession).(*session.Session); ok && s != nil {
		return s, nil
	}
	return nil, errors.New("session not in context")
}
