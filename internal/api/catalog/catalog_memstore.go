package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/themehub/themehub-api/internal/types"
)

var _ CatalogRepo = (*MemCatalogRepo)(nil)

// MemCatalogRepo is a map-backed CatalogRepo with the same semantics as the
// Postgres implementation. Used by tests and the "memory" storage backend.
type MemCatalogRepo struct {
	mu             sync.RWMutex
	themes         map[int64]*types.Theme
	categories     map[int64]*types.Category
	nextThemeID    int64
	nextCategoryID int64
}

func NewMemCatalogRepo() *MemCatalogRepo {
	return &MemCatalogRepo{
		themes:         make(map[int64]*types.Theme),
		categories:     make(map[int64]*types.Category),
		nextThemeID:    1,
		nextCategoryID: 1,
	}
}

// sortedThemes returns copies of all themes in id order. Caller must hold mu.
func (r *MemCatalogRepo) sortedThemes() []types.Theme {
	out := make([]types.Theme, 0, len(r.themes))
	for _, t := range r.themes {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// GetAllThemes implements CatalogRepo.
func (r *MemCatalogRepo) GetAllThemes(_ context.Context) ([]types.Theme, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedThemes(), nil
}

// GetThemeByID implements CatalogRepo.
func (r *MemCatalogRepo) GetThemeByID(_ context.Context, id int64) (*types.Theme, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.themes[id]
	if !ok {
		return nil, fmt.Errorf("theme not found: %w", types.ErrNotFound)
	}
	cp := *t
	return &cp, nil
}

// GetThemesByIDs implements CatalogRepo.
func (r *MemCatalogRepo) GetThemesByIDs(_ context.Context, ids []int64) ([]types.Theme, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]types.Theme, 0, len(ids))
	for _, id := range ids {
		if t, ok := r.themes[id]; ok {
			out = append(out, *t)
		}
	}
	return out, nil
}

// GetThemesByCategory implements CatalogRepo.
func (r *MemCatalogRepo) GetThemesByCategory(_ context.Context, categoryID int64) ([]types.Theme, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if c, ok := r.categories[categoryID]; ok && c.Slug == types.AllCategorySlug {
		return r.sortedThemes(), nil
	}

	out := make([]types.Theme, 0)
	for _, t := range r.sortedThemes() {
		if t.CategoryID == categoryID {
			out = append(out, t)
		}
	}
	return out, nil
}

// GetFeaturedThemes implements CatalogRepo.
func (r *MemCatalogRepo) GetFeaturedThemes(_ context.Context) ([]types.Theme, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]types.Theme, 0)
	for _, t := range r.sortedThemes() {
		if t.IsFeatured {
			out = append(out, t)
		}
	}
	return out, nil
}

// GetTopRatedThemes implements CatalogRepo.
func (r *MemCatalogRepo) GetTopRatedThemes(_ context.Context, limit int) ([]types.Theme, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]types.Theme, 0)
	for _, t := range r.sortedThemes() {
		if t.IsTopRated {
			out = append(out, t)
		}
	}
	// id ascending already holds from sortedThemes; stable sort keeps it on ties
	sort.SliceStable(out, func(i, j int) bool { return out[i].Rating > out[j].Rating })
	return clampLimit(out, limit), nil
}

// GetNewReleases implements CatalogRepo.
func (r *MemCatalogRepo) GetNewReleases(_ context.Context, limit int) ([]types.Theme, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := r.sortedThemes()
	sort.SliceStable(out, func(i, j int) bool { return out[i].ReleaseDate.After(out[j].ReleaseDate) })
	return clampLimit(out, limit), nil
}

// GetTrendingThemes implements CatalogRepo.
func (r *MemCatalogRepo) GetTrendingThemes(_ context.Context, limit int) ([]types.Theme, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]types.Theme, 0)
	for _, t := range r.sortedThemes() {
		if t.IsTrending {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DownloadCount > out[j].DownloadCount })
	return clampLimit(out, limit), nil
}

// SearchThemes implements CatalogRepo.
func (r *MemCatalogRepo) SearchThemes(_ context.Context, query string) ([]types.Theme, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	q := strings.ToLower(query)
	out := make([]types.Theme, 0)
	for _, t := range r.sortedThemes() {
		if strings.Contains(strings.ToLower(t.Name), q) ||
			strings.Contains(strings.ToLower(t.Description), q) ||
			strings.Contains(strings.ToLower(t.Author), q) {
			out = append(out, t)
		}
	}
	return out, nil
}

// CreateTheme implements CatalogRepo.
func (r *MemCatalogRepo) CreateTheme(_ context.Context, params types.CreateThemeParams) (*types.Theme, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if params.Price > 0 && params.IsFree {
		return nil, fmt.Errorf("theme violates pricing constraints: %w", types.ErrBadRequest)
	}
	if _, ok := r.categories[params.CategoryID]; !ok {
		return nil, fmt.Errorf("category does not exist: %w", types.ErrBadRequest)
	}

	now := time.Now()
	theme := &types.Theme{
		ID:            r.nextThemeID,
		Name:          params.Name,
		Description:   params.Description,
		Author:        params.Author,
		Price:         params.Price,
		IsFree:        params.IsFree,
		ImageURL:      params.ImageURL,
		ThumbnailURL:  params.ThumbnailURL,
		PreviewImages: append([]string(nil), params.PreviewImages...),
		Rating:        params.Rating,
		RatingCount:   params.RatingCount,
		IsFeatured:    params.IsFeatured,
		IsTopRated:    params.IsTopRated,
		IsTrending:    params.IsTrending,
		Version:       params.Version,
		FileSize:      params.FileSize,
		Style:         params.Style,
		ReleaseDate:   params.ReleaseDate,
		CategoryID:    params.CategoryID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	r.nextThemeID++
	r.themes[theme.ID] = theme

	cp := *theme
	return &cp, nil
}

// IncrementDownloadCount bumps a theme's global download counter. It backs
// the library feature package when the memory backend is selected.
func (r *MemCatalogRepo) IncrementDownloadCount(_ context.Context, themeID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.themes[themeID]
	if !ok {
		return fmt.Errorf("theme not found: %w", types.ErrNotFound)
	}
	t.DownloadCount++
	t.UpdatedAt = time.Now()
	return nil
}

// GetAllCategories implements CatalogRepo.
func (r *MemCatalogRepo) GetAllCategories(_ context.Context) ([]types.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]types.Category, 0, len(r.categories))
	for _, c := range r.categories {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayOrder != out[j].DisplayOrder {
			return out[i].DisplayOrder < out[j].DisplayOrder
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// GetCategoryByID implements CatalogRepo.
func (r *MemCatalogRepo) GetCategoryByID(_ context.Context, id int64) (*types.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.categories[id]
	if !ok {
		return nil, fmt.Errorf("category not found: %w", types.ErrNotFound)
	}
	cp := *c
	return &cp, nil
}

// CreateCategory implements CatalogRepo.
func (r *MemCatalogRepo) CreateCategory(_ context.Context, params types.CreateCategoryParams) (*types.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.categories {
		if c.Slug == params.Slug {
			return nil, fmt.Errorf("category slug already exists: %w", types.ErrConflict)
		}
	}

	category := &types.Category{
		ID:           r.nextCategoryID,
		Name:         params.Name,
		Slug:         params.Slug,
		Description:  params.Description,
		Icon:         params.Icon,
		Color:        params.Color,
		DisplayOrder: params.DisplayOrder,
	}
	r.nextCategoryID++
	r.categories[category.ID] = category

	cp := *category
	return &cp, nil
}

// CountCategories implements CatalogRepo.
func (r *MemCatalogRepo) CountCategories(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.categories)), nil
}

func clampLimit(themes []types.Theme, limit int) []types.Theme {
	if limit > 0 && limit < len(themes) {
		return themes[:limit]
	}
	return themes
}
