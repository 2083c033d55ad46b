package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/themehub/themehub-api/config"
	"github.com/themehub/themehub-api/internal/types"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Auth.JWTSecretKey = "test-secret-key"
	cfg.Auth.JWTIssuer = "themehub-test"
	cfg.Auth.JWTExpiry = 15 * time.Minute
	cfg.Auth.SessionExpiry = 7 * 24 * time.Hour
	cfg.Auth.SessionCookie = "themehub_session"
	return cfg
}

func newTestService() (*AuthServiceImpl, *MemAuthRepo) {
	repo := NewMemAuthRepo()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewAuthService(repo, testConfig(), logger), repo
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("success hashes the password", func(t *testing.T) {
		svc, _ := newTestService()
		user, err := svc.Register(ctx, RegisterRequest{Username: "alice", Password: "hunter2hunter2"})
		require.NoError(t, err)
		assert.Equal(t, "alice", user.Username)
		assert.NotEqual(t, "hunter2hunter2", user.PasswordHash)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("hunter2hunter2")))
	})

	t.Run("email is optional", func(t *testing.T) {
		svc, _ := newTestService()
		user, err := svc.Register(ctx, RegisterRequest{Username: "bob", Password: "longenoughpw"})
		require.NoError(t, err)
		assert.Nil(t, user.Email)
	})

	t.Run("short password rejected", func(t *testing.T) {
		svc, _ := newTestService()
		_, err := svc.Register(ctx, RegisterRequest{Username: "carol", Password: "short"})
		assert.ErrorIs(t, err, types.ErrBadRequest)
	})

	t.Run("duplicate username rejected", func(t *testing.T) {
		svc, _ := newTestService()
		_, err := svc.Register(ctx, RegisterRequest{Username: "dave", Password: "longenoughpw"})
		require.NoError(t, err)
		_, err = svc.Register(ctx, RegisterRequest{Username: "dave", Password: "anotherlongpw"})
		assert.ErrorIs(t, err, types.ErrConflict)
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("success issues session and access token", func(t *testing.T) {
		svc, repo := newTestService()
		_, err := svc.Register(ctx, RegisterRequest{Username: "alice", Password: "hunter2hunter2"})
		require.NoError(t, err)

		result, err := svc.Login(ctx, "alice", "hunter2hunter2")
		require.NoError(t, err)
		assert.Equal(t, "alice", result.User.Username)
		assert.NotEqual(t, uuid.Nil, result.Session.Token)
		assert.True(t, result.Session.ExpiresAt.After(time.Now()))

		stored, err := repo.GetSession(ctx, result.Session.Token)
		require.NoError(t, err)
		assert.Equal(t, result.User.ID, stored.UserID)

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(result.AccessToken, claims, func(*jwt.Token) (interface{}, error) {
			return []byte("test-secret-key"), nil
		})
		require.NoError(t, err)
		assert.True(t, token.Valid)
		assert.Equal(t, result.User.ID, claims.UserID)
	})

	t.Run("email works as identifier", func(t *testing.T) {
		svc, _ := newTestService()
		_, err := svc.Register(ctx, RegisterRequest{Username: "bob", Email: "bob@example.com", Password: "longenoughpw"})
		require.NoError(t, err)

		result, err := svc.Login(ctx, "bob@example.com", "longenoughpw")
		require.NoError(t, err)
		assert.Equal(t, "bob", result.User.Username)
	})

	t.Run("unknown user and wrong password are indistinguishable", func(t *testing.T) {
		svc, _ := newTestService()
		_, err := svc.Register(ctx, RegisterRequest{Username: "carol", Password: "longenoughpw"})
		require.NoError(t, err)

		_, errUnknown := svc.Login(ctx, "nobody", "whateverwhatever")
		_, errWrongPw := svc.Login(ctx, "carol", "wrongpassword")

		assert.ErrorIs(t, errUnknown, types.ErrInvalidCredentials)
		assert.ErrorIs(t, errWrongPw, types.ErrInvalidCredentials)
		assert.Equal(t, errUnknown.Error(), errWrongPw.Error())
	})

	t.Run("records last login", func(t *testing.T) {
		svc, repo := newTestService()
		user, err := svc.Register(ctx, RegisterRequest{Username: "dave", Password: "longenoughpw"})
		require.NoError(t, err)

		_, err = svc.Login(ctx, "dave", "longenoughpw")
		require.NoError(t, err)

		stored, err := repo.GetUserByID(ctx, user.ID)
		require.NoError(t, err)
		assert.NotNil(t, stored.LastLoginAt)
	})
}

func TestResolveSession(t *testing.T) {
	ctx := context.Background()

	t.Run("valid session resolves to its user", func(t *testing.T) {
		svc, _ := newTestService()
		_, err := svc.Register(ctx, RegisterRequest{Username: "alice", Password: "hunter2hunter2"})
		require.NoError(t, err)
		result, err := svc.Login(ctx, "alice", "hunter2hunter2")
		require.NoError(t, err)

		user, err := svc.ResolveSession(ctx, result.Session.Token)
		require.NoError(t, err)
		assert.Equal(t, "alice", user.Username)
	})

	t.Run("unknown token fails closed", func(t *testing.T) {
		svc, _ := newTestService()
		_, err := svc.ResolveSession(ctx, uuid.New())
		assert.ErrorIs(t, err, types.ErrUnauthenticated)
	})

	t.Run("expired session fails closed and is purged", func(t *testing.T) {
		svc, repo := newTestService()
		user, err := svc.Register(ctx, RegisterRequest{Username: "bob", Password: "longenoughpw"})
		require.NoError(t, err)

		session := &types.Session{
			Token:     uuid.New(),
			UserID:    user.ID,
			ExpiresAt: time.Now().Add(-time.Minute),
			CreatedAt: time.Now().Add(-time.Hour),
		}
		require.NoError(t, repo.CreateSession(ctx, session))

		_, err = svc.ResolveSession(ctx, session.Token)
		assert.ErrorIs(t, err, types.ErrUnauthenticated)

		_, err = repo.GetSession(ctx, session.Token)
		assert.ErrorIs(t, err, types.ErrNotFound)
	})
}

func TestResolveAccessToken(t *testing.T) {
	ctx := context.Background()

	t.Run("valid token resolves to its user", func(t *testing.T) {
		svc, _ := newTestService()
		_, err := svc.Register(ctx, RegisterRequest{Username: "alice", Password: "hunter2hunter2"})
		require.NoError(t, err)
		result, err := svc.Login(ctx, "alice", "hunter2hunter2")
		require.NoError(t, err)

		user, err := svc.ResolveAccessToken(ctx, result.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "alice", user.Username)
	})

	t.Run("garbage token fails closed", func(t *testing.T) {
		svc, _ := newTestService()
		_, err := svc.ResolveAccessToken(ctx, "not-a-jwt")
		assert.ErrorIs(t, err, types.ErrUnauthenticated)
	})

	t.Run("token signed with another key fails closed", func(t *testing.T) {
		svc, _ := newTestService()
		user, err := svc.Register(ctx, RegisterRequest{Username: "bob", Password: "longenoughpw"})
		require.NoError(t, err)

		forged := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
			UserID: user.ID,
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "themehub-test",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		})
		signed, err := forged.SignedString([]byte("wrong-key"))
		require.NoError(t, err)

		_, err = svc.ResolveAccessToken(ctx, signed)
		assert.ErrorIs(t, err, types.ErrUnauthenticated)
	})
}

func TestLogout(t *testing.T) {
	ctx := context.Background()

	svc, repo := newTestService()
	_, err := svc.Register(ctx, RegisterRequest{Username: "alice", Password: "hunter2hunter2"})
	require.NoError(t, err)
	result, err := svc.Login(ctx, "alice", "hunter2hunter2")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, result.Session.Token))
	_, err = repo.GetSession(ctx, result.Session.Token)
	assert.ErrorIs(t, err, types.ErrNotFound)

	// repeating the call is harmless
	assert.NoError(t, svc.Logout(ctx, result.Session.Token))
}
