package auth

import (
	"context"

	"github.com/screenlog/screenlog-be/internal/models"
)

type contextKey string

// userKey is the context key under which the authenticated user is stored.
const userKey = contextKey("authenticatedUser")

// WithUser returns a context carrying the authenticated user.
func WithUser(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFrom extracts the authenticated user from the context.
func UserFrom(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(userKey).(models.User)
	return user, ok
}
