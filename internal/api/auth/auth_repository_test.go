package auth

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/themehub/themehub-api/internal/types"
)

func newMockRepo(t *testing.T) (*PostgresAuthRepo, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewPostgresAuthRepo(mock, logger), mock
}

func userRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "username", "email", "password_hash", "display_name",
		"avatar_url", "bio", "is_premium", "created_at", "last_login_at",
	})
}

func TestPostgresAuthRepo_CreateUser(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the inserted row", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		now := time.Now()
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
			WithArgs("alice", (*string)(nil), "hash", (*string)(nil)).
			WillReturnRows(userRows().AddRow(
				int64(1), "alice", nil, "hash", nil, nil, nil, false, now, nil))

		user, err := repo.CreateUser(ctx, types.CreateUserParams{Username: "alice", PasswordHash: "hash"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), user.ID)
		assert.Equal(t, "alice", user.Username)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps unique violation to conflict", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
			WithArgs("alice", (*string)(nil), "hash", (*string)(nil)).
			WillReturnError(&pgconn.PgError{Code: "23505"})

		_, err := repo.CreateUser(ctx, types.CreateUserParams{Username: "alice", PasswordHash: "hash"})
		assert.ErrorIs(t, err, types.ErrConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresAuthRepo_GetUserByUsername(t *testing.T) {
	ctx := context.Background()

	t.Run("miss maps to not found", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT")).
			WithArgs("ghost").
			WillReturnRows(userRows())

		_, err := repo.GetUserByUsername(ctx, "ghost")
		assert.ErrorIs(t, err, types.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresAuthRepo_DeleteSession(t *testing.T) {
	ctx := context.Background()

	t.Run("absent session is not an error", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		token := uuid.New()
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM sessions WHERE token = $1")).
			WithArgs(token).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))

		assert.NoError(t, repo.DeleteSession(ctx, token))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
