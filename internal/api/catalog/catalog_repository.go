package catalog

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

var _ CatalogRepo = (*PostgresCatalogRepo)(nil)

// CatalogRepo defines the contract for theme and category persistence.
// All list operations return an empty slice, never nil results with errors,
// when nothing matches.
type CatalogRepo interface {
	GetAllThemes(ctx context.Context) ([]types.Theme, error)
	// GetThemeByID returns types.ErrNotFound for an unknown id.
	GetThemeByID(ctx context.Context, id int64) (*types.Theme, error)
	// GetThemesByIDs preserves the input order and silently drops ids that
	// do not resolve to a theme.
	GetThemesByIDs(ctx context.Context, ids []int64) ([]types.Theme, error)
	// GetThemesByCategory returns every theme when categoryID names the
	// reserved "all" category, and an empty slice for an unknown category.
	GetThemesByCategory(ctx context.Context, categoryID int64) ([]types.Theme, error)
	GetFeaturedThemes(ctx context.Context) ([]types.Theme, error)
	// GetTopRatedThemes orders by rating descending, id ascending on ties.
	GetTopRatedThemes(ctx context.Context, limit int) ([]types.Theme, error)
	GetNewReleases(ctx context.Context, limit int) ([]types.Theme, error)
	GetTrendingThemes(ctx context.Context, limit int) ([]types.Theme, error)
	// SearchThemes matches the query case-insensitively against name,
	// description and author.
	SearchThemes(ctx context.Context, query string) ([]types.Theme, error)
	CreateTheme(ctx context.Context, params types.CreateThemeParams) (*types.Theme, error)

	GetAllCategories(ctx context.Context) ([]types.Category, error)
	GetCategoryByID(ctx context.Context, id int64) (*types.Category, error)
	CreateCategory(ctx context.Context, params types.CreateCategoryParams) (*types.Category, error)
	CountCategories(ctx context.Context) (int64, error)
}

type PostgresCatalogRepo struct {
	logger *slog.Logger
	pgpool database.PGXPool
}

func NewPostgresCatalogRepo(pgxpool database.PGXPool, logger *slog.Logger) *PostgresCatalogRepo {
	return &PostgresCatalogRepo{
		logger: logger,
		pgpool: pgxpool,
	}
}

const themeColumns = `id, name, description, author, price, is_free, image_url, thumbnail_url,
	preview_images, rating, rating_count, download_count, is_featured, is_top_rated,
	is_trending, version, file_size, style, release_date, category_id, created_at, updated_at`

func scanTheme(row pgx.Row) (*types.Theme, error) {
	var t types.Theme
	err := row.Scan(
		&t.ID, &t.Name, &t.Description, &t.Author, &t.Price, &t.IsFree, &t.ImageURL,
		&t.ThumbnailURL, &t.PreviewImages, &t.Rating, &t.RatingCount, &t.DownloadCount,
		&t.IsFeatured, &t.IsTopRated, &t.IsTrending, &t.Version, &t.FileSize, &t.Style,
		&t.ReleaseDate, &t.CategoryID, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *PostgresCatalogRepo) queryThemes(ctx context.Context, spanName, query string, args ...any) ([]types.Theme, error) {
	ctx, span := otel.Tracer("CatalogRepo").Start(ctx, spanName, trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "themes"),
	))
	defer span.End()

	rows, err := r.pgpool.Query(ctx, query, args...)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query themes", slog.String("method", spanName), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error fetching themes: %w", err)
	}
	defer rows.Close()

	themes := make([]types.Theme, 0)
	for rows.Next() {
		t, err := scanTheme(rows)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Row scan failed")
			return nil, fmt.Errorf("database error scanning theme: %w", err)
		}
		themes = append(themes, *t)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Row iteration failed")
		return nil, fmt.Errorf("database error iterating themes: %w", err)
	}

	span.SetAttributes(attribute.Int("db.result.count", len(themes)))
	span.SetStatus(codes.Ok, "Themes fetched")
	return themes, nil
}

// GetAllThemes implements CatalogRepo.
func (r *PostgresCatalogRepo) GetAllThemes(ctx context.Context) ([]types.Theme, error) {
	return r.queryThemes(ctx, "GetAllThemes",
		`SELECT `+themeColumns+` FROM themes ORDER BY id`)
}

// GetThemeByID implements CatalogRepo.
func (r *PostgresCatalogRepo) GetThemeByID(ctx context.Context, id int64) (*types.Theme, error) {
	ctx, span := otel.Tracer("CatalogRepo").Start(ctx, "GetThemeByID", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "themes"),
		attribute.Int64("theme.id", id),
	))
	defer span.End()

	theme, err := scanTheme(r.pgpool.QueryRow(ctx,
		`SELECT `+themeColumns+` FROM themes WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Ok, "Theme not found")
			return nil, fmt.Errorf("theme not found: %w", types.ErrNotFound)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error fetching theme: %w", err)
	}

	span.SetStatus(codes.Ok, "Theme fetched")
	return theme, nil
}

// GetThemesByIDs implements CatalogRepo. Input order is preserved through the
// unnest ordinality; unknown ids simply produce no row.
func (r *PostgresCatalogRepo) GetThemesByIDs(ctx context.Context, ids []int64) ([]types.Theme, error) {
	if len(ids) == 0 {
		return []types.Theme{}, nil
	}
	return r.queryThemes(ctx, "GetThemesByIDs",
		`SELECT t.id, t.name, t.description, t.author, t.price, t.is_free, t.image_url, t.thumbnail_url,
			t.preview_images, t.rating, t.rating_count, t.download_count, t.is_featured, t.is_top_rated,
			t.is_trending, t.version, t.file_size, t.style, t.release_date, t.category_id, t.created_at, t.updated_at
		FROM themes t
		JOIN unnest($1::bigint[]) WITH ORDINALITY AS u(id, ord) ON t.id = u.id
		ORDER BY u.ord`, ids)
}

// GetThemesByCategory implements CatalogRepo. The reserved "all" category is
// resolved by slug inside the query so the bypass costs no extra round trip.
func (r *PostgresCatalogRepo) GetThemesByCategory(ctx context.Context, categoryID int64) ([]types.Theme, error) {
	return r.queryThemes(ctx, "GetThemesByCategory",
		`SELECT `+themeColumns+` FROM themes
		WHERE category_id = $1
		   OR EXISTS (SELECT 1 FROM categories c WHERE c.id = $1 AND c.slug = '`+types.AllCategorySlug+`')
		ORDER BY id`, categoryID)
}

// GetFeaturedThemes implements CatalogRepo.
func (r *PostgresCatalogRepo) GetFeaturedThemes(ctx context.Context) ([]types.Theme, error) {
	return r.queryThemes(ctx, "GetFeaturedThemes",
		`SELECT `+themeColumns+` FROM themes WHERE is_featured ORDER BY id`)
}

// GetTopRatedThemes implements CatalogRepo.
func (r *PostgresCatalogRepo) GetTopRatedThemes(ctx context.Context, limit int) ([]types.Theme, error) {
	return r.queryThemes(ctx, "GetTopRatedThemes",
		`SELECT `+themeColumns+` FROM themes WHERE is_top_rated
		ORDER BY rating DESC, id ASC LIMIT $1`, limit)
}

// GetNewReleases implements CatalogRepo.
func (r *PostgresCatalogRepo) GetNewReleases(ctx context.Context, limit int) ([]types.Theme, error) {
	return r.queryThemes(ctx, "GetNewReleases",
		`SELECT `+themeColumns+` FROM themes
		ORDER BY release_date DESC, id ASC LIMIT $1`, limit)
}

// GetTrendingThemes implements CatalogRepo.
func (r *PostgresCatalogRepo) GetTrendingThemes(ctx context.Context, limit int) ([]types.Theme, error) {
	return r.queryThemes(ctx, "GetTrendingThemes",
		`SELECT `+themeColumns+` FROM themes WHERE is_trending
		ORDER BY download_count DESC, id ASC LIMIT $1`, limit)
}

// SearchThemes implements CatalogRepo. An empty query matches everything.
func (r *PostgresCatalogRepo) SearchThemes(ctx context.Context, query string) ([]types.Theme, error) {
	pattern := "%" + query + "%"
	return r.queryThemes(ctx, "SearchThemes",
		`SELECT `+themeColumns+` FROM themes
		WHERE name ILIKE $1 OR description ILIKE $1 OR author ILIKE $1
		ORDER BY id`, pattern)
}

// CreateTheme implements CatalogRepo.
func (r *PostgresCatalogRepo) CreateTheme(ctx context.Context, params types.CreateThemeParams) (*types.Theme, error) {
	ctx, span := otel.Tracer("CatalogRepo").Start(ctx, "CreateTheme", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "themes"),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "CreateTheme"), slog.String("name", params.Name))

	query := `
        INSERT INTO themes (name, description, author, price, is_free, image_url, thumbnail_url,
            preview_images, rating, rating_count, is_featured, is_top_rated, is_trending,
            version, file_size, style, release_date, category_id)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
        RETURNING ` + themeColumns

	theme, err := scanTheme(r.pgpool.QueryRow(ctx, query,
		params.Name, params.Description, params.Author, params.Price, params.IsFree,
		params.ImageURL, params.ThumbnailURL, params.PreviewImages, params.Rating,
		params.RatingCount, params.IsFeatured, params.IsTopRated, params.IsTrending,
		params.Version, params.FileSize, params.Style, params.ReleaseDate, params.CategoryID))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23503": // foreign key violation
				l.WarnContext(ctx, "Theme references unknown category", slog.Int64("categoryID", params.CategoryID))
				span.SetStatus(codes.Error, "FK violation")
				return nil, fmt.Errorf("category does not exist: %w", types.ErrBadRequest)
			case "23514": // check violation
				span.SetStatus(codes.Error, "Check violation")
				return nil, fmt.Errorf("theme violates pricing constraints: %w", types.ErrBadRequest)
			}
		}
		l.ErrorContext(ctx, "Failed to insert theme", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB INSERT failed")
		return nil, fmt.Errorf("database error creating theme: %w", err)
	}

	l.InfoContext(ctx, "Theme created", slog.Int64("themeID", theme.ID))
	span.SetStatus(codes.Ok, "Theme created")
	return theme, nil
}

// GetAllCategories implements CatalogRepo.
func (r *PostgresCatalogRepo) GetAllCategories(ctx context.Context) ([]types.Category, error) {
	ctx, span := otel.Tracer("CatalogRepo").Start(ctx, "GetAllCategories", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "categories"),
	))
	defer span.End()

	rows, err := r.pgpool.Query(ctx,
		`SELECT id, name, slug, description, icon, color, display_order
		FROM categories ORDER BY display_order, id`)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error fetching categories: %w", err)
	}
	defer rows.Close()

	categories := make([]types.Category, 0)
	for rows.Next() {
		var c types.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.Icon, &c.Color, &c.DisplayOrder); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Row scan failed")
			return nil, fmt.Errorf("database error scanning category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Row iteration failed")
		return nil, fmt.Errorf("database error iterating categories: %w", err)
	}

	span.SetStatus(codes.Ok, "Categories fetched")
	return categories, nil
}

// GetCategoryByID implements CatalogRepo.
func (r *PostgresCatalogRepo) GetCategoryByID(ctx context.Context, id int64) (*types.Category, error) {
	ctx, span := otel.Tracer("CatalogRepo").Start(ctx, "GetCategoryByID", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "categories"),
	))
	defer span.End()

	var c types.Category
	err := r.pgpool.QueryRow(ctx,
		`SELECT id, name, slug, description, icon, color, display_order
		FROM categories WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.Icon, &c.Color, &c.DisplayOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Ok, "Category not found")
			return nil, fmt.Errorf("category not found: %w", types.ErrNotFound)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error fetching category: %w", err)
	}

	span.SetStatus(codes.Ok, "Category fetched")
	return &c, nil
}

// CreateCategory implements CatalogRepo.
func (r *PostgresCatalogRepo) CreateCategory(ctx context.Context, params types.CreateCategoryParams) (*types.Category, error) {
	ctx, span := otel.Tracer("CatalogRepo").Start(ctx, "CreateCategory", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "categories"),
	))
	defer span.End()

	var c types.Category
	err := r.pgpool.QueryRow(ctx, `
        INSERT INTO categories (name, slug, description, icon, color, display_order)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, name, slug, description, icon, color, display_order`,
		params.Name, params.Slug, params.Description, params.Icon, params.Color, params.DisplayOrder).
		Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.Icon, &c.Color, &c.DisplayOrder)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique violation
			span.SetStatus(codes.Error, "Unique violation")
			return nil, fmt.Errorf("category slug already exists: %w", types.ErrConflict)
		}
		r.logger.ErrorContext(ctx, "Failed to insert category", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB INSERT failed")
		return nil, fmt.Errorf("database error creating category: %w", err)
	}

	span.SetStatus(codes.Ok, "Category created")
	return &c, nil
}

// CountCategories implements CatalogRepo.
func (r *PostgresCatalogRepo) CountCategories(ctx context.Context) (int64, error) {
	ctx, span := otel.Tracer("CatalogRepo").Start(ctx, "CountCategories", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "categories"),
	))
	defer span.End()

	var count int64
	if err := r.pgpool.QueryRow(ctx, "SELECT COUNT(*) FROM categories").Scan(&count); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return 0, fmt.Errorf("database error counting categories: %w", err)
	}

	span.SetStatus(codes.Ok, "Categories counted")
	return count, nil
}
