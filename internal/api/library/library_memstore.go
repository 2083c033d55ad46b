package library

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/themehub/themehub-api/internal/api/catalog"
	"github.com/themehub/themehub-api/internal/types"
)

var _ LibraryRepo = (*MemLibraryRepo)(nil)

// MemLibraryRepo is a map-backed LibraryRepo with the same semantics as the
// Postgres implementation. It shares the catalog memstore so the download
// counter moves on the same themes the catalog serves.
type MemLibraryRepo struct {
	mu        sync.Mutex
	catalog   *catalog.MemCatalogRepo
	favorites map[int64][]int64
	downloads map[int64][]int64
	purchases map[int64][]types.Purchase
}

func NewMemLibraryRepo(catalogRepo *catalog.MemCatalogRepo) *MemLibraryRepo {
	return &MemLibraryRepo{
		catalog:   catalogRepo,
		favorites: make(map[int64][]int64),
		downloads: make(map[int64][]int64),
		purchases: make(map[int64][]types.Purchase),
	}
}

func (r *MemLibraryRepo) themeExists(ctx context.Context, themeID int64) error {
	if _, err := r.catalog.GetThemeByID(ctx, themeID); err != nil {
		return err
	}
	return nil
}

// AddFavorite implements LibraryRepo.
func (r *MemLibraryRepo) AddFavorite(ctx context.Context, userID, themeID int64) error {
	if err := r.themeExists(ctx, themeID); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range r.favorites[userID] {
		if id == themeID {
			return nil
		}
	}
	r.favorites[userID] = append(r.favorites[userID], themeID)
	return nil
}

// RemoveFavorite implements LibraryRepo.
func (r *MemLibraryRepo) RemoveFavorite(_ context.Context, userID, themeID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := r.favorites[userID]
	for i, id := range ids {
		if id == themeID {
			r.favorites[userID] = append(ids[:i], ids[i+1:]...)
			return nil
		}
	}
	return nil
}

// ListFavoriteThemeIDs implements LibraryRepo.
func (r *MemLibraryRepo) ListFavoriteThemeIDs(_ context.Context, userID int64) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.favorites[userID]...), nil
}

// RecordDownload implements LibraryRepo.
func (r *MemLibraryRepo) RecordDownload(ctx context.Context, userID, themeID int64) error {
	// counter moves on every call, including repeats
	if err := r.catalog.IncrementDownloadCount(ctx, themeID); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.appendDownloadLocked(userID, themeID)
	return nil
}

func (r *MemLibraryRepo) appendDownloadLocked(userID, themeID int64) {
	for _, id := range r.downloads[userID] {
		if id == themeID {
			return
		}
	}
	r.downloads[userID] = append(r.downloads[userID], themeID)
}

// ListDownloadThemeIDs implements LibraryRepo.
func (r *MemLibraryRepo) ListDownloadThemeIDs(_ context.Context, userID int64) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.downloads[userID]...), nil
}

// PurchaseTheme implements LibraryRepo.
func (r *MemLibraryRepo) PurchaseTheme(ctx context.Context, userID, themeID int64, pricePaid float64) (*types.Purchase, error) {
	if err := r.themeExists(ctx, themeID); err != nil {
		return nil, err
	}

	r.mu.Lock()
	for _, p := range r.purchases[userID] {
		if p.ThemeID == themeID {
			r.mu.Unlock()
			return nil, fmt.Errorf("theme already purchased: %w", types.ErrConflict)
		}
	}

	purchase := types.Purchase{
		UserID:      userID,
		ThemeID:     themeID,
		PricePaid:   pricePaid,
		PurchasedAt: time.Now(),
	}
	r.purchases[userID] = append(r.purchases[userID], purchase)
	r.appendDownloadLocked(userID, themeID)
	r.mu.Unlock()

	// a purchase always counts as a download of the theme
	if err := r.catalog.IncrementDownloadCount(ctx, themeID); err != nil {
		return nil, err
	}
	return &purchase, nil
}

// ListPurchases implements LibraryRepo.
func (r *MemLibraryRepo) ListPurchases(_ context.Context, userID int64) ([]types.Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]types.Purchase(nil), r.purchases[userID]...), nil
}
