package library

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/themehub/themehub-api/app/observability/metrics"
	"github.com/themehub/themehub-api/internal/api/catalog"
	"github.com/themehub/themehub-api/internal/types"
)

var _ LibraryService = (*LibraryServiceImpl)(nil)

// UserGetter is the slice of the identity store the library needs.
type UserGetter interface {
	GetUserByID(ctx context.Context, id int64) (*types.User, error)
}

// LibraryService defines the business logic contract for a user's personal
// collection of themes.
type LibraryService interface {
	AddFavorite(ctx context.Context, userID, themeID int64) error
	RemoveFavorite(ctx context.Context, userID, themeID int64) error
	// GetFavoriteThemes resolves the favorite ids to themes, preserving the
	// order in which they were favorited.
	GetFavoriteThemes(ctx context.Context, userID int64) ([]types.Theme, error)

	RecordDownload(ctx context.Context, userID, themeID int64) error
	GetDownloadedThemes(ctx context.Context, userID int64) ([]types.Theme, error)

	// PurchaseTheme records a purchase at the theme's current price.
	PurchaseTheme(ctx context.Context, userID, themeID int64) (*types.Purchase, error)
	GetPurchases(ctx context.Context, userID int64) ([]types.Purchase, error)

	// GetSubscriptionStatus derives the status from the user's premium flag
	// at read time; nothing subscription-shaped is persisted.
	GetSubscriptionStatus(ctx context.Context, userID int64) (*types.SubscriptionStatus, error)
}

type LibraryServiceImpl struct {
	logger  *slog.Logger
	repo    LibraryRepo
	catalog catalog.CatalogRepo
	users   UserGetter
}

func NewLibraryService(repo LibraryRepo, catalogRepo catalog.CatalogRepo, users UserGetter, logger *slog.Logger) *LibraryServiceImpl {
	return &LibraryServiceImpl{
		logger:  logger,
		repo:    repo,
		catalog: catalogRepo,
		users:   users,
	}
}

// AddFavorite implements LibraryService.
func (s *LibraryServiceImpl) AddFavorite(ctx context.Context, userID, themeID int64) error {
	return s.repo.AddFavorite(ctx, userID, themeID)
}

// RemoveFavorite implements LibraryService.
func (s *LibraryServiceImpl) RemoveFavorite(ctx context.Context, userID, themeID int64) error {
	return s.repo.RemoveFavorite(ctx, userID, themeID)
}

// GetFavoriteThemes implements LibraryService.
func (s *LibraryServiceImpl) GetFavoriteThemes(ctx context.Context, userID int64) ([]types.Theme, error) {
	ids, err := s.repo.ListFavoriteThemeIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.catalog.GetThemesByIDs(ctx, ids)
}

// RecordDownload implements LibraryService.
func (s *LibraryServiceImpl) RecordDownload(ctx context.Context, userID, themeID int64) error {
	ctx, span := otel.Tracer("LibraryService").Start(ctx, "RecordDownload")
	defer span.End()

	if err := s.repo.RecordDownload(ctx, userID, themeID); err != nil {
		span.SetStatus(codes.Error, "Download failed")
		return err
	}

	metrics.Get().ThemeDownloadsTotal.Add(ctx, 1,
		metric.WithAttributes(attribute.Int64("theme.id", themeID)))
	s.logger.InfoContext(ctx, "Download recorded",
		slog.Int64("userID", userID), slog.Int64("themeID", themeID))
	span.SetStatus(codes.Ok, "Download recorded")
	return nil
}

// GetDownloadedThemes implements LibraryService.
func (s *LibraryServiceImpl) GetDownloadedThemes(ctx context.Context, userID int64) ([]types.Theme, error) {
	ids, err := s.repo.ListDownloadThemeIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.catalog.GetThemesByIDs(ctx, ids)
}

// PurchaseTheme implements LibraryService. The ledger records what the theme
// cost at the moment of purchase, so later price changes don't rewrite history.
func (s *LibraryServiceImpl) PurchaseTheme(ctx context.Context, userID, themeID int64) (*types.Purchase, error) {
	ctx, span := otel.Tracer("LibraryService").Start(ctx, "PurchaseTheme")
	defer span.End()

	theme, err := s.catalog.GetThemeByID(ctx, themeID)
	if err != nil {
		span.SetStatus(codes.Error, "Theme lookup failed")
		return nil, err
	}

	purchase, err := s.repo.PurchaseTheme(ctx, userID, themeID, theme.Price)
	if err != nil {
		span.SetStatus(codes.Error, "Purchase failed")
		return nil, err
	}

	metrics.Get().ThemePurchasesTotal.Add(ctx, 1,
		metric.WithAttributes(attribute.Int64("theme.id", themeID)))
	s.logger.InfoContext(ctx, "Purchase recorded",
		slog.Int64("userID", userID), slog.Int64("themeID", themeID),
		slog.Float64("pricePaid", purchase.PricePaid))
	span.SetStatus(codes.Ok, "Purchase recorded")
	return purchase, nil
}

// GetPurchases implements LibraryService.
func (s *LibraryServiceImpl) GetPurchases(ctx context.Context, userID int64) ([]types.Purchase, error) {
	return s.repo.ListPurchases(ctx, userID)
}

// GetSubscriptionStatus implements LibraryService.
func (s *LibraryServiceImpl) GetSubscriptionStatus(ctx context.Context, userID int64) (*types.SubscriptionStatus, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve user for subscription: %w", err)
	}

	status := &types.SubscriptionStatus{
		Active: user.IsPremium,
		Plan:   "free",
	}
	if user.IsPremium {
		expires := time.Now().AddDate(1, 0, 0)
		status.Plan = "premium"
		status.ExpiresAt = &expires
	}
	return status, nil
}
