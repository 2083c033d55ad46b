package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/themehub/themehub-api/app/observability/metrics"
	"github.com/themehub/themehub-api/config"
	"github.com/themehub/themehub-api/internal/types"
)

var _ CatalogService = (*CatalogServiceImpl)(nil)

// CatalogService defines the business logic contract for browsing and
// administering the theme catalog.
type CatalogService interface {
	GetAllThemes(ctx context.Context) ([]types.Theme, error)
	GetThemeByID(ctx context.Context, id int64) (*types.Theme, error)
	GetThemesByIDs(ctx context.Context, ids []int64) ([]types.Theme, error)
	GetThemesByCategory(ctx context.Context, categoryID int64) ([]types.Theme, error)
	GetFeaturedThemes(ctx context.Context) ([]types.Theme, error)
	GetTopRatedThemes(ctx context.Context, limit int) ([]types.Theme, error)
	GetNewReleases(ctx context.Context, limit int) ([]types.Theme, error)
	GetTrendingThemes(ctx context.Context, limit int) ([]types.Theme, error)
	SearchThemes(ctx context.Context, query string) ([]types.Theme, error)
	CreateTheme(ctx context.Context, params types.CreateThemeParams) (*types.Theme, error)

	GetAllCategories(ctx context.Context) ([]types.Category, error)
	CreateCategory(ctx context.Context, params types.CreateCategoryParams) (*types.Category, error)
}

type CatalogServiceImpl struct {
	logger *slog.Logger
	repo   CatalogRepo
	cache  *cache.Cache
}

func NewCatalogService(repo CatalogRepo, cfg *config.Config, logger *slog.Logger) *CatalogServiceImpl {
	return &CatalogServiceImpl{
		logger: logger,
		repo:   repo,
		cache:  cache.New(cfg.Catalog.CacheTTL, 2*cfg.Catalog.CacheTTL),
	}
}

// cachedThemes serves a fixed catalog view through the TTL cache. Writes to
// the catalog flush the cache, so staleness is bounded by the TTL.
func (s *CatalogServiceImpl) cachedThemes(ctx context.Context, key string, fetch func(context.Context) ([]types.Theme, error)) ([]types.Theme, error) {
	if cached, found := s.cache.Get(key); found {
		metrics.Get().CatalogCacheHitsTotal.Add(ctx, 1,
			metric.WithAttributes(attribute.String("view", key)))
		return cached.([]types.Theme), nil
	}

	themes, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.SetDefault(key, themes)
	return themes, nil
}

// GetAllThemes implements CatalogService.
func (s *CatalogServiceImpl) GetAllThemes(ctx context.Context) ([]types.Theme, error) {
	return s.cachedThemes(ctx, "themes:all", s.repo.GetAllThemes)
}

// GetThemeByID implements CatalogService. Not cached; single-row reads must
// observe download counter changes immediately.
func (s *CatalogServiceImpl) GetThemeByID(ctx context.Context, id int64) (*types.Theme, error) {
	return s.repo.GetThemeByID(ctx, id)
}

// GetThemesByIDs implements CatalogService.
func (s *CatalogServiceImpl) GetThemesByIDs(ctx context.Context, ids []int64) ([]types.Theme, error) {
	return s.repo.GetThemesByIDs(ctx, ids)
}

// GetThemesByCategory implements CatalogService.
func (s *CatalogServiceImpl) GetThemesByCategory(ctx context.Context, categoryID int64) ([]types.Theme, error) {
	key := fmt.Sprintf("themes:category:%d", categoryID)
	return s.cachedThemes(ctx, key, func(ctx context.Context) ([]types.Theme, error) {
		return s.repo.GetThemesByCategory(ctx, categoryID)
	})
}

// GetFeaturedThemes implements CatalogService.
func (s *CatalogServiceImpl) GetFeaturedThemes(ctx context.Context) ([]types.Theme, error) {
	return s.cachedThemes(ctx, "themes:featured", s.repo.GetFeaturedThemes)
}

// GetTopRatedThemes implements CatalogService.
func (s *CatalogServiceImpl) GetTopRatedThemes(ctx context.Context, limit int) ([]types.Theme, error) {
	key := fmt.Sprintf("themes:top-rated:%d", limit)
	return s.cachedThemes(ctx, key, func(ctx context.Context) ([]types.Theme, error) {
		return s.repo.GetTopRatedThemes(ctx, limit)
	})
}

// GetNewReleases implements CatalogService.
func (s *CatalogServiceImpl) GetNewReleases(ctx context.Context, limit int) ([]types.Theme, error) {
	key := fmt.Sprintf("themes:new-releases:%d", limit)
	return s.cachedThemes(ctx, key, func(ctx context.Context) ([]types.Theme, error) {
		return s.repo.GetNewReleases(ctx, limit)
	})
}

// GetTrendingThemes implements CatalogService.
func (s *CatalogServiceImpl) GetTrendingThemes(ctx context.Context, limit int) ([]types.Theme, error) {
	key := fmt.Sprintf("themes:trending:%d", limit)
	return s.cachedThemes(ctx, key, func(ctx context.Context) ([]types.Theme, error) {
		return s.repo.GetTrendingThemes(ctx, limit)
	})
}

// SearchThemes implements CatalogService. Search results are not cached; the
// key space is unbounded.
func (s *CatalogServiceImpl) SearchThemes(ctx context.Context, query string) ([]types.Theme, error) {
	return s.repo.SearchThemes(ctx, query)
}

// CreateTheme implements CatalogService.
func (s *CatalogServiceImpl) CreateTheme(ctx context.Context, params types.CreateThemeParams) (*types.Theme, error) {
	ctx, span := otel.Tracer("CatalogService").Start(ctx, "CreateTheme")
	defer span.End()

	l := s.logger.With(slog.String("method", "CreateTheme"), slog.String("name", params.Name))

	if params.Name == "" || params.Author == "" {
		return nil, fmt.Errorf("name and author are required: %w", types.ErrBadRequest)
	}
	if params.Price < 0 {
		return nil, fmt.Errorf("price must not be negative: %w", types.ErrBadRequest)
	}
	if params.Price > 0 && params.IsFree {
		return nil, fmt.Errorf("a priced theme cannot be marked free: %w", types.ErrBadRequest)
	}

	theme, err := s.repo.CreateTheme(ctx, params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Theme creation failed")
		return nil, err
	}

	s.cache.Flush()
	l.InfoContext(ctx, "Theme added to catalog", slog.Int64("themeID", theme.ID))
	span.SetStatus(codes.Ok, "Theme created")
	return theme, nil
}

// GetAllCategories implements CatalogService.
func (s *CatalogServiceImpl) GetAllCategories(ctx context.Context) ([]types.Category, error) {
	return s.repo.GetAllCategories(ctx)
}

// CreateCategory implements CatalogService.
func (s *CatalogServiceImpl) CreateCategory(ctx context.Context, params types.CreateCategoryParams) (*types.Category, error) {
	ctx, span := otel.Tracer("CatalogService").Start(ctx, "CreateCategory")
	defer span.End()

	if params.Name == "" || params.Slug == "" {
		return nil, fmt.Errorf("name and slug are required: %w", types.ErrBadRequest)
	}

	category, err := s.repo.CreateCategory(ctx, params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Category creation failed")
		return nil, err
	}

	s.cache.Flush()
	span.SetStatus(codes.Ok, "Category created")
	return category, nil
}
