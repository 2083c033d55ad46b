package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/themehub/themehub-api/internal/types"
)

// Seeder populates an empty catalog with the initial marketplace data so a
// fresh deployment has something to browse. Runs against either backend.
type Seeder struct {
	logger *slog.Logger
	repo   CatalogRepo
}

func NewSeeder(repo CatalogRepo, logger *slog.Logger) *Seeder {
	return &Seeder{
		logger: logger,
		repo:   repo,
	}
}

// Run seeds categories and themes unless the catalog already has categories.
func (s *Seeder) Run(ctx context.Context) error {
	count, err := s.repo.CountCategories(ctx)
	if err != nil {
		return fmt.Errorf("failed to check catalog state: %w", err)
	}
	if count > 0 {
		s.logger.InfoContext(ctx, "Catalog already seeded, skipping", slog.Int64("categories", count))
		return nil
	}

	s.logger.InfoContext(ctx, "Seeding catalog")

	categoryIDs := make([]int64, 0, len(seedCategories))
	for _, params := range seedCategories {
		category, err := s.repo.CreateCategory(ctx, params)
		if err != nil {
			return fmt.Errorf("failed to seed category %q: %w", params.Slug, err)
		}
		categoryIDs = append(categoryIDs, category.ID)
	}

	for _, seed := range seedThemes(categoryIDs) {
		if _, err := s.repo.CreateTheme(ctx, seed); err != nil {
			return fmt.Errorf("failed to seed theme %q: %w", seed.Name, err)
		}
	}

	s.logger.InfoContext(ctx, "Catalog seeded",
		slog.Int("categories", len(seedCategories)),
		slog.Int("themes", len(seedThemes(categoryIDs))))
	return nil
}

var seedCategories = []types.CreateCategoryParams{
	{Name: "All", Slug: types.AllCategorySlug, DisplayOrder: 1},
	{Name: "Material", Slug: "material", DisplayOrder: 2},
	{Name: "Dark", Slug: "dark", DisplayOrder: 3},
	{Name: "Minimal", Slug: "minimal", DisplayOrder: 4},
	{Name: "Colorful", Slug: "colorful", DisplayOrder: 5},
	{Name: "Aesthetic", Slug: "aesthetic", DisplayOrder: 6},
	{Name: "Minimalist", Slug: "minimalist", DisplayOrder: 7},
}

// seedThemes builds the initial themes against the freshly created category
// ids. Index n refers to seedCategories[n].
func seedThemes(cat []int64) []types.CreateThemeParams {
	now := time.Now()
	daysAgo := func(d int) time.Time { return now.Add(-time.Duration(d) * 24 * time.Hour) }
	previews := func(url string) []string { return []string{url, url, url} }

	return []types.CreateThemeParams{
		{
			Name:          "NeonWave Pro",
			Description:   "Modern neon-inspired theme with dynamic icon pack and animated wallpapers",
			Author:        "ThemeHub Studios",
			Price:         0,
			IsFree:        true,
			ImageURL:      "https://images.unsplash.com/photo-1581291518633-83b4ebd1d83e",
			ThumbnailURL:  "https://images.unsplash.com/photo-1581291518633-83b4ebd1d83e",
			PreviewImages: previews("https://images.unsplash.com/photo-1581291518633-83b4ebd1d83e"),
			Rating:        4.7,
			RatingCount:   2300,
			IsFeatured:    true,
			IsTrending:    true,
			Version:       "2.1.0",
			FileSize:      "45 MB",
			Style:         "neon",
			ReleaseDate:   now,
			CategoryID:    cat[4],
		},
		{
			Name:          "Minimal Dark",
			Description:   "Clean, minimal dark theme with dynamic icon pack and sleek interface elements. Optimized for AMOLED screens and battery life.",
			Author:        "ThemeHub Studios",
			Price:         0,
			IsFree:        true,
			ImageURL:      "https://images.unsplash.com/photo-1573804633927-bfcbcd909acd",
			ThumbnailURL:  "https://images.unsplash.com/photo-1573804633927-bfcbcd909acd",
			PreviewImages: previews("https://images.unsplash.com/photo-1573804633927-bfcbcd909acd"),
			Rating:        4.0,
			RatingCount:   2300,
			Version:       "1.4.2",
			FileSize:      "18 MB",
			Style:         "dark",
			ReleaseDate:   now,
			CategoryID:    cat[2],
		},
		{
			Name:          "Neon Flux",
			Description:   "Vibrant neon theme with eye-catching colors and sleek animations",
			Author:        "Digital Designers",
			Price:         1.99,
			ImageURL:      "https://images.unsplash.com/photo-1567359781514-3b964e2b04d6",
			ThumbnailURL:  "https://images.unsplash.com/photo-1567359781514-3b964e2b04d6",
			PreviewImages: previews("https://images.unsplash.com/photo-1567359781514-3b964e2b04d6"),
			Rating:        4.5,
			RatingCount:   750,
			Version:       "1.0.3",
			FileSize:      "32 MB",
			Style:         "neon",
			ReleaseDate:   now,
			CategoryID:    cat[3],
		},
		{
			Name:          "Material You",
			Description:   "Official Material You design theme with dynamic color adaptation",
			Author:        "Material Design Team",
			Price:         0,
			IsFree:        true,
			ImageURL:      "https://images.unsplash.com/photo-1508614999368-9260051292e5",
			ThumbnailURL:  "https://images.unsplash.com/photo-1508614999368-9260051292e5",
			PreviewImages: previews("https://images.unsplash.com/photo-1508614999368-9260051292e5"),
			Rating:        5.0,
			RatingCount:   10000,
			IsTopRated:    true,
			IsTrending:    true,
			Version:       "3.0.0",
			FileSize:      "52 MB",
			Style:         "material",
			ReleaseDate:   now,
			CategoryID:    cat[1],
		},
		{
			Name:          "Cyberpunk",
			Description:   "Futuristic cyberpunk-inspired theme with neon elements and dark UI",
			Author:        "Cyber Designs",
			Price:         2.99,
			ImageURL:      "https://images.unsplash.com/photo-1541701494587-cb58502866ab",
			ThumbnailURL:  "https://images.unsplash.com/photo-1541701494587-cb58502866ab",
			PreviewImages: previews("https://images.unsplash.com/photo-1541701494587-cb58502866ab"),
			Rating:        4.2,
			RatingCount:   3200,
			IsTrending:    true,
			Version:       "2.2.1",
			FileSize:      "64 MB",
			Style:         "futuristic",
			ReleaseDate:   now,
			CategoryID:    cat[4],
		},
		{
			Name:          "Gradient Flow",
			Description:   "Smooth gradient design with flowing UI elements and transitions",
			Author:        "Gradient Studio",
			Price:         1.49,
			ImageURL:      "https://images.unsplash.com/photo-1518640467707-6811f4a6ab73",
			ThumbnailURL:  "https://images.unsplash.com/photo-1518640467707-6811f4a6ab73",
			PreviewImages: previews("https://images.unsplash.com/photo-1518640467707-6811f4a6ab73"),
			Version:       "1.0.0",
			FileSize:      "28 MB",
			Style:         "colorful",
			ReleaseDate:   daysAgo(2),
			CategoryID:    cat[3],
		},
		{
			Name:          "Natural Zen",
			Description:   "Nature-inspired minimal theme with soothing colors and clean UI",
			Author:        "Zen Studios",
			Price:         0,
			IsFree:        true,
			ImageURL:      "https://images.unsplash.com/photo-1507608616759-54f48f0af0ee",
			ThumbnailURL:  "https://images.unsplash.com/photo-1507608616759-54f48f0af0ee",
			PreviewImages: previews("https://images.unsplash.com/photo-1507608616759-54f48f0af0ee"),
			Version:       "1.0.0",
			FileSize:      "21 MB",
			Style:         "minimal",
			ReleaseDate:   daysAgo(3),
			CategoryID:    cat[5],
		},
		{
			Name:          "Tech Wave",
			Description:   "Tech-inspired theme with futuristic elements and smooth animations",
			Author:        "Tech Themes",
			Price:         0.99,
			ImageURL:      "https://images.unsplash.com/photo-1604871000636-074fa5117945",
			ThumbnailURL:  "https://images.unsplash.com/photo-1604871000636-074fa5117945",
			PreviewImages: previews("https://images.unsplash.com/photo-1604871000636-074fa5117945"),
			Rating:        4.5,
			RatingCount:   850,
			IsTrending:    true,
			Version:       "1.7.0",
			FileSize:      "39 MB",
			Style:         "futuristic",
			ReleaseDate:   daysAgo(5),
			CategoryID:    cat[1],
		},
		{
			Name:          "Flat UI",
			Description:   "Modern flat UI theme with clean design and vibrant colors",
			Author:        "Flat Design Co",
			Price:         2.49,
			ImageURL:      "https://images.unsplash.com/photo-1560807707-8cc77767d783",
			ThumbnailURL:  "https://images.unsplash.com/photo-1560807707-8cc77767d783",
			PreviewImages: previews("https://images.unsplash.com/photo-1560807707-8cc77767d783"),
			Rating:        5.0,
			RatingCount:   1200,
			IsTopRated:    true,
			Version:       "2.0.0",
			FileSize:      "26 MB",
			Style:         "flat",
			ReleaseDate:   daysAgo(30),
			CategoryID:    cat[2],
		},
		{
			Name:          "Aesthetic Pro",
			Description:   "Beautiful aesthetic theme with pastel colors and artistic elements",
			Author:        "Aesthetic Designs",
			Price:         3.99,
			ImageURL:      "https://images.unsplash.com/photo-1620641788421-7a1c342ea42e",
			ThumbnailURL:  "https://images.unsplash.com/photo-1620641788421-7a1c342ea42e",
			PreviewImages: previews("https://images.unsplash.com/photo-1620641788421-7a1c342ea42e"),
			Rating:        4.9,
			RatingCount:   987,
			IsTopRated:    true,
			Version:       "1.3.5",
			FileSize:      "48 MB",
			Style:         "aesthetic",
			ReleaseDate:   daysAgo(45),
			CategoryID:    cat[4],
		},
		{
			Name:          "Dark Mode Pro",
			Description:   "Premium dark theme optimized for AMOLED displays with minimal battery usage",
			Author:        "Dark Themes",
			Price:         1.99,
			ImageURL:      "https://images.unsplash.com/photo-1604076913837-52ab5629fba9",
			ThumbnailURL:  "https://images.unsplash.com/photo-1604076913837-52ab5629fba9",
			PreviewImages: previews("https://images.unsplash.com/photo-1604076913837-52ab5629fba9"),
			Rating:        4.9,
			RatingCount:   832,
			IsTopRated:    true,
			Version:       "2.5.0",
			FileSize:      "17 MB",
			Style:         "dark",
			ReleaseDate:   daysAgo(60),
			CategoryID:    cat[2],
		},
		{
			Name:          "Neon Glow",
			Description:   "Vibrant neon theme with glowing elements and dark background",
			Author:        "Neon Studios",
			Price:         2.99,
			ImageURL:      "https://images.unsplash.com/photo-1618005182384-a83a8bd57fbe",
			ThumbnailURL:  "https://images.unsplash.com/photo-1618005182384-a83a8bd57fbe",
			PreviewImages: previews("https://images.unsplash.com/photo-1618005182384-a83a8bd57fbe"),
			Rating:        4.8,
			RatingCount:   754,
			IsTopRated:    true,
			Version:       "1.9.2",
			FileSize:      "35 MB",
			Style:         "neon",
			ReleaseDate:   daysAgo(90),
			CategoryID:    cat[3],
		},
	}
}
