package catalog

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/themehub/themehub-api/app/observability/metrics"
	"github.com/themehub/themehub-api/config"
	"github.com/themehub/themehub-api/internal/types"
)

func TestMain(m *testing.M) {
	metrics.InitAppMetrics()
	m.Run()
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(t *testing.T) (*CatalogServiceImpl, *MemCatalogRepo) {
	t.Helper()
	repo := NewMemCatalogRepo()
	cfg := &config.Config{}
	cfg.Catalog.CacheTTL = time.Minute
	return NewCatalogService(repo, cfg, testLogger()), repo
}

func mustCategory(t *testing.T, repo *MemCatalogRepo, name, slug string) types.Category {
	t.Helper()
	c, err := repo.CreateCategory(context.Background(), types.CreateCategoryParams{Name: name, Slug: slug})
	require.NoError(t, err)
	return *c
}

func mustTheme(t *testing.T, repo *MemCatalogRepo, params types.CreateThemeParams) types.Theme {
	t.Helper()
	if params.Author == "" {
		params.Author = "Test Author"
	}
	theme, err := repo.CreateTheme(context.Background(), params)
	require.NoError(t, err)
	return *theme
}

func themeNames(themes []types.Theme) []string {
	names := make([]string, len(themes))
	for i, t := range themes {
		names[i] = t.Name
	}
	return names
}

func TestGetThemesByCategory(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)

	all := mustCategory(t, repo, "All", types.AllCategorySlug)
	dark := mustCategory(t, repo, "Dark", "dark")
	neon := mustCategory(t, repo, "Neon", "neon")

	mustTheme(t, repo, types.CreateThemeParams{Name: "Shadow", IsFree: true, CategoryID: dark.ID})
	mustTheme(t, repo, types.CreateThemeParams{Name: "Glow", IsFree: true, CategoryID: neon.ID})
	mustTheme(t, repo, types.CreateThemeParams{Name: "Midnight", IsFree: true, CategoryID: dark.ID})

	t.Run("filters by category", func(t *testing.T) {
		themes, err := svc.GetThemesByCategory(ctx, dark.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"Shadow", "Midnight"}, themeNames(themes))
	})

	t.Run("reserved all category bypasses filtering", func(t *testing.T) {
		themes, err := svc.GetThemesByCategory(ctx, all.ID)
		require.NoError(t, err)
		assert.Len(t, themes, 3)
	})

	t.Run("unknown category yields empty, not error", func(t *testing.T) {
		themes, err := svc.GetThemesByCategory(ctx, 999)
		require.NoError(t, err)
		assert.Empty(t, themes)
	})
}

func TestGetTopRatedThemes(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)
	cat := mustCategory(t, repo, "Dark", "dark")

	mustTheme(t, repo, types.CreateThemeParams{Name: "Good", Rating: 4.0, IsTopRated: true, IsFree: true, CategoryID: cat.ID})
	mustTheme(t, repo, types.CreateThemeParams{Name: "Best", Rating: 5.0, IsTopRated: true, IsFree: true, CategoryID: cat.ID})
	mustTheme(t, repo, types.CreateThemeParams{Name: "TieA", Rating: 4.9, IsTopRated: true, IsFree: true, CategoryID: cat.ID})
	mustTheme(t, repo, types.CreateThemeParams{Name: "TieB", Rating: 4.9, IsTopRated: true, IsFree: true, CategoryID: cat.ID})
	mustTheme(t, repo, types.CreateThemeParams{Name: "Unflagged", Rating: 4.95, IsFree: true, CategoryID: cat.ID})

	t.Run("orders by rating with id tie-break", func(t *testing.T) {
		themes, err := svc.GetTopRatedThemes(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, []string{"Best", "TieA", "TieB", "Good"}, themeNames(themes))
	})

	t.Run("limit truncates after ordering", func(t *testing.T) {
		themes, err := svc.GetTopRatedThemes(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, []string{"Best", "TieA"}, themeNames(themes))
	})
}

func TestGetNewReleases(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)
	cat := mustCategory(t, repo, "Dark", "dark")
	now := time.Now()

	mustTheme(t, repo, types.CreateThemeParams{Name: "Old", ReleaseDate: now.Add(-72 * time.Hour), IsFree: true, CategoryID: cat.ID})
	mustTheme(t, repo, types.CreateThemeParams{Name: "Newest", ReleaseDate: now, IsFree: true, CategoryID: cat.ID})
	mustTheme(t, repo, types.CreateThemeParams{Name: "Recent", ReleaseDate: now.Add(-24 * time.Hour), IsFree: true, CategoryID: cat.ID})

	themes, err := svc.GetNewReleases(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"Newest", "Recent"}, themeNames(themes))
}

func TestGetTrendingThemes(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)
	cat := mustCategory(t, repo, "Dark", "dark")

	quiet := mustTheme(t, repo, types.CreateThemeParams{Name: "Quiet", IsTrending: true, IsFree: true, CategoryID: cat.ID})
	busy := mustTheme(t, repo, types.CreateThemeParams{Name: "Busy", IsTrending: true, IsFree: true, CategoryID: cat.ID})
	mustTheme(t, repo, types.CreateThemeParams{Name: "Ignored", IsFree: true, CategoryID: cat.ID})

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.IncrementDownloadCount(ctx, busy.ID))
	}
	require.NoError(t, repo.IncrementDownloadCount(ctx, quiet.ID))

	themes, err := svc.GetTrendingThemes(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"Busy", "Quiet"}, themeNames(themes))
}

func TestSearchThemes(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)
	cat := mustCategory(t, repo, "Dark", "dark")

	mustTheme(t, repo, types.CreateThemeParams{Name: "NeonWave Pro", Description: "glowing", IsFree: true, CategoryID: cat.ID})
	mustTheme(t, repo, types.CreateThemeParams{Name: "Minimal Dark", Description: "subtle neon accents", IsFree: true, CategoryID: cat.ID})
	mustTheme(t, repo, types.CreateThemeParams{Name: "Zen", Description: "calm", Author: "Neon Studios", IsFree: true, CategoryID: cat.ID})
	mustTheme(t, repo, types.CreateThemeParams{Name: "Flat UI", Description: "clean", IsFree: true, CategoryID: cat.ID})

	t.Run("matches name, description and author case-insensitively", func(t *testing.T) {
		themes, err := svc.SearchThemes(ctx, "NEON")
		require.NoError(t, err)
		assert.Equal(t, []string{"NeonWave Pro", "Minimal Dark", "Zen"}, themeNames(themes))
	})

	t.Run("no match yields empty", func(t *testing.T) {
		themes, err := svc.SearchThemes(ctx, "vaporwave")
		require.NoError(t, err)
		assert.Empty(t, themes)
	})
}

func TestGetThemesByIDs(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)
	cat := mustCategory(t, repo, "Dark", "dark")

	a := mustTheme(t, repo, types.CreateThemeParams{Name: "A", IsFree: true, CategoryID: cat.ID})
	b := mustTheme(t, repo, types.CreateThemeParams{Name: "B", IsFree: true, CategoryID: cat.ID})
	c := mustTheme(t, repo, types.CreateThemeParams{Name: "C", IsFree: true, CategoryID: cat.ID})

	t.Run("preserves input order and drops unknown ids", func(t *testing.T) {
		themes, err := svc.GetThemesByIDs(ctx, []int64{c.ID, 999, a.ID, b.ID})
		require.NoError(t, err)
		assert.Equal(t, []string{"C", "A", "B"}, themeNames(themes))
	})

	t.Run("empty input yields empty output", func(t *testing.T) {
		themes, err := svc.GetThemesByIDs(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, themes)
	})
}

func TestCreateTheme(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)
	cat := mustCategory(t, repo, "Dark", "dark")

	t.Run("priced theme cannot be free", func(t *testing.T) {
		_, err := svc.CreateTheme(ctx, types.CreateThemeParams{
			Name: "Broken", Author: "X", Price: 1.99, IsFree: true, CategoryID: cat.ID,
		})
		assert.ErrorIs(t, err, types.ErrBadRequest)
	})

	t.Run("unknown category rejected", func(t *testing.T) {
		_, err := svc.CreateTheme(ctx, types.CreateThemeParams{
			Name: "Orphan", Author: "X", IsFree: true, CategoryID: 999,
		})
		assert.ErrorIs(t, err, types.ErrBadRequest)
	})

	t.Run("create invalidates cached views", func(t *testing.T) {
		before, err := svc.GetAllThemes(ctx)
		require.NoError(t, err)

		_, err = svc.CreateTheme(ctx, types.CreateThemeParams{
			Name: "Fresh", Author: "X", IsFree: true, CategoryID: cat.ID,
		})
		require.NoError(t, err)

		after, err := svc.GetAllThemes(ctx)
		require.NoError(t, err)
		assert.Len(t, after, len(before)+1)
	})
}

func TestCatalogCache(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)
	cat := mustCategory(t, repo, "Dark", "dark")
	mustTheme(t, repo, types.CreateThemeParams{Name: "A", IsFree: true, CategoryID: cat.ID})

	first, err := svc.GetAllThemes(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)

	// a write that bypasses the service is invisible until the TTL lapses
	mustTheme(t, repo, types.CreateThemeParams{Name: "B", IsFree: true, CategoryID: cat.ID})

	second, err := svc.GetAllThemes(ctx)
	require.NoError(t, err)
	assert.Len(t, second, 1)
}

func TestSeeder(t *testing.T) {
	ctx := context.Background()
	repo := NewMemCatalogRepo()
	seeder := NewSeeder(repo, testLogger())

	require.NoError(t, seeder.Run(ctx))

	categories, err := repo.GetAllCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, categories, 7)
	assert.Equal(t, types.AllCategorySlug, categories[0].Slug)

	themes, err := repo.GetAllThemes(ctx)
	require.NoError(t, err)
	assert.Len(t, themes, 12)

	t.Run("second run is a no-op", func(t *testing.T) {
		require.NoError(t, seeder.Run(ctx))
		categories, err := repo.GetAllCategories(ctx)
		require.NoError(t, err)
		assert.Len(t, categories, 7)
	})

	t.Run("no seeded theme lives in the reserved category", func(t *testing.T) {
		allID := categories[0].ID
		for _, theme := range themes {
			assert.NotEqual(t, allID, theme.CategoryID, "theme %s", theme.Name)
		}
	})
}
