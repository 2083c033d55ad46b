package library

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	database "github.com/themehub/themehub-api/app/db"
	"github.com/themehub/themehub-api/internal/types"
)

var _ LibraryRepo = (*PostgresLibraryRepo)(nil)

// LibraryRepo defines the contract for per-user theme relationships.
type LibraryRepo interface {
	// AddFavorite is idempotent; favoriting an already-favorited theme
	// succeeds without effect. Unknown themes map to types.ErrNotFound.
	AddFavorite(ctx context.Context, userID, themeID int64) error
	// RemoveFavorite is idempotent; removing an absent favorite succeeds.
	RemoveFavorite(ctx context.Context, userID, themeID int64) error
	// ListFavoriteThemeIDs returns theme ids in the order they were favorited.
	ListFavoriteThemeIDs(ctx context.Context, userID int64) ([]int64, error)

	// RecordDownload inserts the (user, theme) download row if absent and
	// increments the theme's global download counter unconditionally, in one
	// transaction. Repeat downloads keep one row but keep counting.
	RecordDownload(ctx context.Context, userID, themeID int64) error
	ListDownloadThemeIDs(ctx context.Context, userID int64) ([]int64, error)

	// PurchaseTheme appends a ledger row recording the price paid and records
	// the accompanying download, in one transaction. A second purchase of the
	// same theme maps to types.ErrConflict.
	PurchaseTheme(ctx context.Context, userID, themeID int64, pricePaid float64) (*types.Purchase, error)
	ListPurchases(ctx context.Context, userID int64) ([]types.Purchase, error)
}

type PostgresLibraryRepo struct {
	logger *slog.Logger
	pgpool database.PGXPool
}

func NewPostgresLibraryRepo(pgxpool database.PGXPool, logger *slog.Logger) *PostgresLibraryRepo {
	return &PostgresLibraryRepo{
		logger: logger,
		pgpool: pgxpool,
	}
}

// AddFavorite implements LibraryRepo.
func (r *PostgresLibraryRepo) AddFavorite(ctx context.Context, userID, themeID int64) error {
	ctx, span := otel.Tracer("LibraryRepo").Start(ctx, "AddFavorite", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "user_favorites"),
		attribute.Int64("user.id", userID),
		attribute.Int64("theme.id", themeID),
	))
	defer span.End()

	_, err := r.pgpool.Exec(ctx, `
        INSERT INTO user_favorites (user_id, theme_id)
        VALUES ($1, $2)
        ON CONFLICT (user_id, theme_id) DO NOTHING`, userID, themeID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" { // foreign key violation
			span.SetStatus(codes.Error, "FK violation")
			return fmt.Errorf("theme or user not found: %w", types.ErrNotFound)
		}
		r.logger.ErrorContext(ctx, "Failed to insert favorite", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB INSERT failed")
		return fmt.Errorf("database error adding favorite: %w", err)
	}

	span.SetStatus(codes.Ok, "Favorite added or already present")
	return nil
}

// RemoveFavorite implements LibraryRepo.
func (r *PostgresLibraryRepo) RemoveFavorite(ctx context.Context, userID, themeID int64) error {
	ctx, span := otel.Tracer("LibraryRepo").Start(ctx, "RemoveFavorite", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "DELETE"),
		attribute.String("db.sql.table", "user_favorites"),
	))
	defer span.End()

	tag, err := r.pgpool.Exec(ctx,
		"DELETE FROM user_favorites WHERE user_id = $1 AND theme_id = $2", userID, themeID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB DELETE failed")
		return fmt.Errorf("database error removing favorite: %w", err)
	}
	if tag.RowsAffected() == 0 {
		r.logger.DebugContext(ctx, "Favorite already absent on delete",
			slog.Int64("userID", userID), slog.Int64("themeID", themeID))
	}

	span.SetStatus(codes.Ok, "Favorite removed or already absent")
	return nil
}

// ListFavoriteThemeIDs implements LibraryRepo.
func (r *PostgresLibraryRepo) ListFavoriteThemeIDs(ctx context.Context, userID int64) ([]int64, error) {
	return r.listThemeIDs(ctx, "ListFavoriteThemeIDs",
		`SELECT theme_id FROM user_favorites WHERE user_id = $1 ORDER BY created_at, theme_id`, userID)
}

// ListDownloadThemeIDs implements LibraryRepo.
func (r *PostgresLibraryRepo) ListDownloadThemeIDs(ctx context.Context, userID int64) ([]int64, error) {
	return r.listThemeIDs(ctx, "ListDownloadThemeIDs",
		`SELECT theme_id FROM user_downloads WHERE user_id = $1 ORDER BY downloaded_at, theme_id`, userID)
}

func (r *PostgresLibraryRepo) listThemeIDs(ctx context.Context, spanName, query string, userID int64) ([]int64, error) {
	ctx, span := otel.Tracer("LibraryRepo").Start(ctx, spanName, trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.Int64("user.id", userID),
	))
	defer span.End()

	rows, err := r.pgpool.Query(ctx, query, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error listing theme ids: %w", err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Row scan failed")
			return nil, fmt.Errorf("database error scanning theme id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Row iteration failed")
		return nil, fmt.Errorf("database error iterating theme ids: %w", err)
	}

	span.SetAttributes(attribute.Int("db.result.count", len(ids)))
	span.SetStatus(codes.Ok, "Theme ids listed")
	return ids, nil
}

// RecordDownload implements LibraryRepo.
func (r *PostgresLibraryRepo) RecordDownload(ctx context.Context, userID, themeID int64) error {
	ctx, span := otel.Tracer("LibraryRepo").Start(ctx, "RecordDownload", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.Int64("user.id", userID),
		attribute.Int64("theme.id", themeID),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "RecordDownload"),
		slog.Int64("userID", userID), slog.Int64("themeID", themeID))

	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Begin failed")
		return fmt.Errorf("database error starting transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := recordDownloadTx(ctx, tx, userID, themeID); err != nil {
		if !errors.Is(err, types.ErrNotFound) {
			l.ErrorContext(ctx, "Failed to record download", slog.Any("error", err))
			span.RecordError(err)
		}
		span.SetStatus(codes.Error, "Download recording failed")
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Commit failed")
		return fmt.Errorf("database error committing download: %w", err)
	}

	span.SetStatus(codes.Ok, "Download recorded")
	return nil
}

// recordDownloadTx performs the row upsert and the counter increment inside
// the caller's transaction. The counter moves on every call; the row is
// written at most once.
func recordDownloadTx(ctx context.Context, tx pgx.Tx, userID, themeID int64) error {
	tag, err := tx.Exec(ctx, `
        UPDATE themes
        SET download_count = download_count + 1, updated_at = NOW()
        WHERE id = $1`, themeID)
	if err != nil {
		return fmt.Errorf("database error incrementing download count: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("theme not found: %w", types.ErrNotFound)
	}

	_, err = tx.Exec(ctx, `
        INSERT INTO user_downloads (user_id, theme_id)
        VALUES ($1, $2)
        ON CONFLICT (user_id, theme_id) DO NOTHING`, userID, themeID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" { // foreign key violation
			return fmt.Errorf("user not found: %w", types.ErrNotFound)
		}
		return fmt.Errorf("database error recording download: %w", err)
	}
	return nil
}

// PurchaseTheme implements LibraryRepo.
func (r *PostgresLibraryRepo) PurchaseTheme(ctx context.Context, userID, themeID int64, pricePaid float64) (*types.Purchase, error) {
	ctx, span := otel.Tracer("LibraryRepo").Start(ctx, "PurchaseTheme", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "user_purchases"),
		attribute.Int64("user.id", userID),
		attribute.Int64("theme.id", themeID),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "PurchaseTheme"),
		slog.Int64("userID", userID), slog.Int64("themeID", themeID))

	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Begin failed")
		return nil, fmt.Errorf("database error starting transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var purchase types.Purchase
	purchase.UserID = userID
	purchase.ThemeID = themeID
	err = tx.QueryRow(ctx, `
        INSERT INTO user_purchases (user_id, theme_id, price_paid)
        VALUES ($1, $2, $3)
        RETURNING price_paid, purchased_at`, userID, themeID, pricePaid).
		Scan(&purchase.PricePaid, &purchase.PurchasedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505": // unique violation
				l.WarnContext(ctx, "Theme already purchased")
				span.SetStatus(codes.Error, "Already purchased")
				return nil, fmt.Errorf("theme already purchased: %w", types.ErrConflict)
			case "23503": // foreign key violation
				span.SetStatus(codes.Error, "FK violation")
				return nil, fmt.Errorf("theme or user not found: %w", types.ErrNotFound)
			}
		}
		l.ErrorContext(ctx, "Failed to insert purchase", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB INSERT failed")
		return nil, fmt.Errorf("database error recording purchase: %w", err)
	}

	// a purchase always counts as a download of the theme
	if err := recordDownloadTx(ctx, tx, userID, themeID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Download recording failed")
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Commit failed")
		return nil, fmt.Errorf("database error committing purchase: %w", err)
	}

	l.InfoContext(ctx, "Purchase recorded", slog.Float64("pricePaid", purchase.PricePaid))
	span.SetStatus(codes.Ok, "Purchase recorded")
	return &purchase, nil
}

// ListPurchases implements LibraryRepo.
func (r *PostgresLibraryRepo) ListPurchases(ctx context.Context, userID int64) ([]types.Purchase, error) {
	ctx, span := otel.Tracer("LibraryRepo").Start(ctx, "ListPurchases", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "user_purchases"),
		attribute.Int64("user.id", userID),
	))
	defer span.End()

	rows, err := r.pgpool.Query(ctx, `
        SELECT user_id, theme_id, price_paid, purchased_at
        FROM user_purchases WHERE user_id = $1
        ORDER BY purchased_at, theme_id`, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error listing purchases: %w", err)
	}
	defer rows.Close()

	purchases := make([]types.Purchase, 0)
	for rows.Next() {
		var p types.Purchase
		if err := rows.Scan(&p.UserID, &p.ThemeID, &p.PricePaid, &p.PurchasedAt); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Row scan failed")
			return nil, fmt.Errorf("database error scanning purchase: %w", err)
		}
		purchases = append(purchases, p)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Row iteration failed")
		return nil, fmt.Errorf("database error iterating purchases: %w", err)
	}

	span.SetStatus(codes.Ok, "Purchases listed")
	return purchases, nil
}
