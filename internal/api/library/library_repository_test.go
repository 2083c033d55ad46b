package library

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/themehub/themehub-api/internal/types"
)

func newMockRepo(t *testing.T) (*PostgresLibraryRepo, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewPostgresLibraryRepo(mock, logger), mock
}

func TestPostgresLibraryRepo_RecordDownload(t *testing.T) {
	ctx := context.Background()

	t.Run("increments counter and upserts row in one transaction", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("UPDATE themes")).
			WithArgs(int64(7)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO user_downloads")).
			WithArgs(int64(1), int64(7)).
			WillReturnResult(pgxmock.NewResult("INSERT", 0)) // row already present
		mock.ExpectCommit()

		require.NoError(t, repo.RecordDownload(ctx, 1, 7))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown theme rolls back", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("UPDATE themes")).
			WithArgs(int64(999)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))
		mock.ExpectRollback()

		err := repo.RecordDownload(ctx, 1, 999)
		assert.ErrorIs(t, err, types.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresLibraryRepo_PurchaseTheme(t *testing.T) {
	ctx := context.Background()

	t.Run("duplicate purchase maps to conflict", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO user_purchases")).
			WithArgs(int64(1), int64(7), 2.99).
			WillReturnError(&pgconn.PgError{Code: "23505"})
		mock.ExpectRollback()

		_, err := repo.PurchaseTheme(ctx, 1, 7, 2.99)
		assert.ErrorIs(t, err, types.ErrConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresLibraryRepo_AddFavorite(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown theme maps to not found", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO user_favorites")).
			WithArgs(int64(1), int64(999)).
			WillReturnError(&pgconn.PgError{Code: "23503"})

		err := repo.AddFavorite(ctx, 1, 999)
		assert.ErrorIs(t, err, types.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
