package httpx

import (
	"context"

	domainauth "github.com/yoohoo-guru/yoohoo-api/internal/domain/auth"
)

// sessionKey is an unexported context key type to avoid collisions across packages.
type sessionKey struct{}

// SetSessionInContext returns a child context that carries the verified session.
// If session is nil, the original ctx is returned unchanged.
func SetSessionInContext(ctx context.Context, session *domainauth.SessionContext) context.Context {
	if session == nil {
		return ctx
	}
	return context.WithValue(ctx, sessionKey{}, session)
}

// GetSessionFromContext returns the verified session, or nil for anonymous requests.
func GetSessionFromContext(ctx context.Context) *domainauth.SessionContext {
	if s, ok := ctx.Value(sessionKey{}).(*domainauth.SessionContext); ok {
		return s
	}
	return nil
}

type requestIDKey struct{}

// RequestIDFromContext returns the request id assigned by Logging, if any.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// requestLog is placed on the context by Logging so middleware running
// inside it can contribute fields to the access log line.
type requestLog struct {
	userID string
}

type requestLogKey struct{}

func noteUserID(ctx context.Context, id string) {
	if rl, ok := ctx.Value(requestLogKey{}).(*requestLog); ok {
		rl.userID = id
	}
}
