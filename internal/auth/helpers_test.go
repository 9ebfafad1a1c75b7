package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequireAuth(t *testing.T) {
	t.Run("returns error when no identity in context", func(t *testing.T) {
		identity, err := RequireAuth(context.Background())
		assert.Nil(t, identity)
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("returns identity when present in context", func(t *testing.T) {
		expected := &Identity{ID: "user-123", Email: "test@example.com"}
		ctx := WithIdentity(context.Background(), expected)

		identity, err := RequireAuth(ctx)
		require.NoError(t, err)
		assert.Equal(t, expected.ID, identity.ID)
		assert.Equal(t, expected.Email, identity.Email)
	})
}

func TestRequireUserAccess(t *testing.T) {
	t.Run("returns error when no identity in context", func(t *testing.T) {
		identity, err := RequireUserAccess(context.Background(), "user-123")
		assert.Nil(t, identity)
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("returns error when user ID does not match", func(t *testing.T) {
		ctx := WithIdentity(context.Background(), &Identity{ID: "user-123"})

		identity, err := RequireUserAccess(ctx, "user-456")
		assert.Nil(t, identity)
		assert.ErrorIs(t, err, ErrPermissionDenied)
	})

	t.Run("no bound user is denied", func(t *testing.T) {
		ctx := WithIdentity(context.Background(), &Identity{ID: "user-123"})

		_, err := RequireUserAccess(ctx, "")
		assert.ErrorIs(t, err, ErrPermissionDenied)
	})

	t.Run("returns identity when user ID matches", func(t *testing.T) {
		ctx := WithIdentity(context.Background(), &Identity{ID: "user-123"})

		identity, err := RequireUserAccess(ctx, "user-123")
		require.NoError(t, err)
		assert.Equal(t, "user-123", identity.ID)
	})
}
