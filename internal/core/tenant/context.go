// Package tenant carries the active tenant through request contexts.
//
// Every numbering call is scoped to exactly one tenant. The id is attached once
// at the edge (HTTP middleware, CLI flag) and read by the registry and counter
// stores; there is no ambient per-goroutine tenant state.
package tenant

import (
	"context"
	"errors"
	"strings"

	"policyhub/internal/core/apperror"
)

type ctxKey int

const (
	tenantKey ctxKey = iota
)

// ErrNoTenantInContext is returned when a tenant-scoped call runs without a tenant.
var ErrNoTenantInContext = errors.New("tenant not found in context")

// WithID stores the tenant id in context.
func WithID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantKey, strings.TrimSpace(tenantID))
}

// GetID returns tenant ID or empty string.
func GetID(ctx context.Context) string {
	id, _ := ctx.Value(tenantKey).(string)
	return id
}

// RequireID returns the tenant id or an UNAUTHORIZED error when it is missing.
func RequireID(ctx context.Context) (string, error) {
	id := GetID(ctx)
	if id == "" {
		return "", apperror.NewUnauthorized("tenant is required").WithCause(ErrNoTenantInContext)
	}
	return id, nil
}
