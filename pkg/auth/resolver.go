// Package auth resolves bearer credentials to verified user identities.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/supabase-community/supabase-go"
)

// IdentityResolver turns a bearer token into a verified user.
type IdentityResolver interface {
	Resolve(ctx context.Context, token string) (*UserContext, error)
}

// SupabaseResolver asks Supabase Auth who owns the token.
type SupabaseResolver struct {
	client *supabase.Client
}

// NewSupabaseResolver creates a resolver backed by Supabase Auth
func NewSupabaseResolver(client *supabase.Client) *SupabaseResolver {
	return &SupabaseResolver{client: client}
}

// Resolve implements IdentityResolver. The Supabase client has no context
// support, so ctx is only checked before the call.
func (r *SupabaseResolver) Resolve(ctx context.Context, token string) (*UserContext, error) {
	if token == "" {
		return nil, ErrMissingToken
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	user, err := r.client.Auth.WithToken(token).GetUser()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if user == nil || user.ID == uuid.Nil {
		return nil, errors.Join(ErrInvalidClaims, errors.New("no user for token"))
	}

	return &UserContext{
		UserID: user.ID.String(),
		Email:  user.Email,
		Role:   user.Role,
	}, nil
}
