package httputil

import (
	"context"
	"net/http"
)

type contextKey string

const (
	userIDKey   contextKey = "userID"
	identityKey contextKey = "identity"
)

// Identity is filled in by WithUserID for middleware that runs outside the
// auth middleware and only sees the outer request context.
type Identity struct {
	UserID string
}

// WithIdentity returns ctx carrying an empty Identity slot
func WithIdentity(ctx context.Context) (context.Context, *Identity) {
	id := &Identity{}
	return context.WithValue(ctx, identityKey, id), id
}

// WithUserID returns ctx carrying the authenticated user ID. It also records
// the ID in the Identity slot, if one was attached.
func WithUserID(ctx context.Context, userID string) context.Context {
	if id, ok := ctx.Value(identityKey).(*Identity); ok {
		id.UserID = userID
	}
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the authenticated user ID, or "" when the request
// carried no identity
func UserIDFromContext(ctx context.Context) string {
	userID, _ := ctx.Value(userIDKey).(string)
	return userID
}

// GetUserID is UserIDFromContext for a request
func GetUserID(r *http.Request) string {
	return UserIDFromContext(r.Context())
}
