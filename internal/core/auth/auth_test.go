package auth

import (
	"context"
	"testing"

	"github.com/LeJamon/goOracled/internal/core/feed"
	"github.com/stretchr/testify/assert"
)

func TestRequireAdmin(t *testing.T) {
	a := NewAdminAuthorizer("operator")
	ctx := context.Background()

	assert.ErrorIs(t, a.RequireAdmin(ctx), feed.ErrUnauthorized)
	assert.ErrorIs(t, a.RequireAdmin(WithCaller(ctx, "intruder")), feed.ErrUnauthorized)
	assert.NoError(t, a.RequireAdmin(WithCaller(ctx, "operator")))

	empty := NewAdminAuthorizer("")
	assert.ErrorIs(t, empty.RequireAdmin(WithCaller(ctx, "")), feed.ErrUnauthorized)
}

func TestCallerFrom(t *testing.T) {
	_, ok := CallerFrom(context.Background())
	assert.False(t, ok)

	c, ok := CallerFrom(WithCaller(context.Background(), "alice"))
	assert.True(t, ok)
	assert.Equal(t, "alice", c)
}
