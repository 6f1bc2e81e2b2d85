package auth

import (
	"context"
	"errors"
)

type contextKey string

const userContextKey contextKey = "user"

// ErrNoUserInContext is returned when a handler runs without authentication
var ErrNoUserInContext = errors.New("no authenticated user in context")

// UserContext represents the authenticated caller
type UserContext struct {
	UserID string
	Email  string
	Role   string
}

// SetUserInContext adds the user to the context
func SetUserInContext(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// GetUserFromContext extracts the user from the context
func GetUserFromContext(ctx context.Context) (*UserContext, error) {
	user, ok := ctx.Value(userContextKey).(*UserContext)
	if !ok || user == nil {
		return nil, ErrNoUserInContext
	}
	return user, nil
}
