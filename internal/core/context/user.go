// Package context carries the caller and trace of a request through ctx.
package context

import (
	"context"
	"slices"
)

// UserContext is the caller resolved from a bearer token.
type UserContext struct {
	UserID   string
	TenantID string
	Email    string
	Roles    []string
}

// HasAnyRole reports whether u holds at least one of roles.
func (u *UserContext) HasAnyRole(roles ...string) bool {
	if u == nil {
		return false
	}
	return slices.ContainsFunc(roles, func(r string) bool {
		return slices.Contains(u.Roles, r)
	})
}

type userContextKey struct{}

func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// GetUser returns the caller stored in ctx, or nil for anonymous calls.
func GetUser(ctx context.Context) *UserContext {
	user, _ := ctx.Value(userContextKey{}).(*UserContext)
	return user
}

// GetUserID returns the caller's ID or "".
func GetUserID(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.UserID
	}
	return ""
}
