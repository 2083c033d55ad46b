package user

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/themehub/themehub-api/internal/api/auth"
	"github.com/themehub/themehub-api/internal/types"
)

func strPtr(s string) *string { return &s }

func newTestService(t *testing.T) (*UserServiceImpl, int64) {
	t.Helper()
	repo := auth.NewMemAuthRepo()
	u, err := repo.CreateUser(context.Background(), types.CreateUserParams{
		Username:     "alice",
		Email:        strPtr("alice@example.com"),
		PasswordHash: "hash",
	})
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewUserService(repo, logger), u.ID
}

func TestGetProfile(t *testing.T) {
	ctx := context.Background()
	svc, userID := newTestService(t)

	user, err := svc.GetProfile(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	_, err = svc.GetProfile(ctx, 999)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("nil fields keep their value", func(t *testing.T) {
		svc, userID := newTestService(t)

		updated, err := svc.UpdateProfile(ctx, userID, types.UpdateProfileParams{
			DisplayName: strPtr("Alice A."),
		})
		require.NoError(t, err)
		require.NotNil(t, updated.DisplayName)
		assert.Equal(t, "Alice A.", *updated.DisplayName)
		require.NotNil(t, updated.Email)
		assert.Equal(t, "alice@example.com", *updated.Email)
	})

	t.Run("invalid email rejected", func(t *testing.T) {
		svc, userID := newTestService(t)
		_, err := svc.UpdateProfile(ctx, userID, types.UpdateProfileParams{
			Email: strPtr("not-an-email"),
		})
		assert.ErrorIs(t, err, types.ErrBadRequest)
	})

	t.Run("unknown user maps to not found", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.UpdateProfile(ctx, 999, types.UpdateProfileParams{
			Bio: strPtr("hello"),
		})
		assert.ErrorIs(t, err, types.ErrNotFound)
	})
}
