// Package auth identifies the caller of a mutating operation.
package auth

import (
	"context"
	"fmt"

	"github.com/LeJamon/goOracled/internal/core/feed"
)

type callerKey struct{}

// WithCaller attaches the authenticated caller to ctx.
func WithCaller(ctx context.Context, caller string) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// CallerFrom returns the caller attached to ctx.
func CallerFrom(ctx context.Context) (string, bool) {
	caller, ok := ctx.Value(callerKey{}).(string)
	return caller, ok && caller != ""
}

// AdminAuthorizer admits a single configured administrator.
type AdminAuthorizer struct {
	admin string
}

func NewAdminAuthorizer(admin string) *AdminAuthorizer {
	return &AdminAuthorizer{admin: admin}
}

// Admin returns the configured administrator.
func (a *AdminAuthorizer) Admin() string {
	return a.admin
}

// RequireAdmin fails unless the caller in ctx is the administrator.
func (a *AdminAuthorizer) RequireAdmin(ctx context.Context) error {
	caller, ok := CallerFrom(ctx)
	if !ok {
		return fmt.Errorf("%w: no caller", feed.ErrUnauthorized)
	}
	if a.admin == "" || caller != a.admin {
		return fmt.Errorf("%w: %s is not the administrator", feed.ErrUnauthorized, caller)
	}
	return nil
}
