package middleware

import (
	"context"

	"github.com/google/uuid"
	"github.com/pmorrison-au/teashop-backend/pkg/session"
)

type contextKey string

const (
	ctxSessionToken contextKey = "session_token"
	ctxSessionState contextKey = "session_state"
	ctxUserID       contextKey = "user_id"
)

// SessionTokenFromContext returns the visitor token seeded by Session.
func SessionTokenFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxSessionToken).(string); ok {
		return v
	}
	return ""
}

// SessionStateFromContext returns the mutable session record seeded by
// Session. Handlers mutate it in place; the middleware persists it after
// the handler returns.
func SessionStateFromContext(ctx context.Context) *session.State {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxSessionState).(*session.State); ok {
		return v
	}
	return nil
}

// UserIDFromContext returns the authenticated customer id, or nil for
// anonymous visitors.
func UserIDFromContext(ctx context.Context) *uuid.UUID {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxUserID).(*uuid.UUID); ok {
		return v
	}
	return nil
}

// WithSessionToken injects the visitor token into the context.
func WithSessionToken(ctx context.Context, token string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxSessionToken, token)
}

// WithSessionState injects the session record into the context.
func WithSessionState(ctx context.Context, state *session.State) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxSessionState, state)
}

// WithUserID injects the authenticated customer id into the context.
func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUserID, &userID)
}
