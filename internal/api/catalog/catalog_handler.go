package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/themehub/themehub-api/internal/api"
	"github.com/themehub/themehub-api/internal/types"
)

type HandlerImpl struct {
	service CatalogService
	logger  *slog.Logger
}

func NewHandlerImpl(service CatalogService, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		service: service,
		logger:  logger,
	}
}

func (h *HandlerImpl) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := api.StatusFromError(err)
	if status == http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "Catalog request failed",
			slog.String("path", r.URL.Path), slog.Any("error", err))
		api.ErrorResponse(w, r, status, "internal server error")
		return
	}
	api.ErrorResponse(w, r, status, err.Error())
}

// GetAllThemes handles GET /themes.
func (h *HandlerImpl) GetAllThemes(w http.ResponseWriter, r *http.Request) {
	themes, err := h.service.GetAllThemes(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, themes)
}

// GetThemeByID handles GET /themes/{id}.
func (h *HandlerImpl) GetThemeByID(w http.ResponseWriter, r *http.Request) {
	id, err := api.ParseIDParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	theme, err := h.service.GetThemeByID(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, theme)
}

// GetThemesByIDs handles GET /themes/by-ids?ids=1,2,3. Order of the response
// follows the order of the ids parameter; unknown ids are dropped.
func (h *HandlerImpl) GetThemesByIDs(w http.ResponseWriter, r *http.Request) {
	ids, err := parseIDsQuery(r.URL.Query().Get("ids"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	themes, err := h.service.GetThemesByIDs(r.Context(), ids)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, themes)
}

// GetThemesByCategory handles GET /themes/category/{id}. The reserved "all"
// category returns the unfiltered listing.
func (h *HandlerImpl) GetThemesByCategory(w http.ResponseWriter, r *http.Request) {
	categoryID, err := api.ParseIDParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	themes, err := h.service.GetThemesByCategory(r.Context(), categoryID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, themes)
}

// GetFeaturedThemes handles GET /themes/featured.
func (h *HandlerImpl) GetFeaturedThemes(w http.ResponseWriter, r *http.Request) {
	themes, err := h.service.GetFeaturedThemes(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, themes)
}

// GetTopRatedThemes handles GET /themes/top-rated.
func (h *HandlerImpl) GetTopRatedThemes(w http.ResponseWriter, r *http.Request) {
	h.rankedView(w, r, h.service.GetTopRatedThemes)
}

// GetNewReleases handles GET /themes/new-releases.
func (h *HandlerImpl) GetNewReleases(w http.ResponseWriter, r *http.Request) {
	h.rankedView(w, r, h.service.GetNewReleases)
}

// GetTrendingThemes handles GET /themes/trending.
func (h *HandlerImpl) GetTrendingThemes(w http.ResponseWriter, r *http.Request) {
	h.rankedView(w, r, h.service.GetTrendingThemes)
}

// rankedView applies the shared limit handling for the limited catalog views.
func (h *HandlerImpl) rankedView(w http.ResponseWriter, r *http.Request, fetch func(context.Context, int) ([]types.Theme, error)) {
	limit, err := api.ParseLimitQuery(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	themes, err := fetch(r.Context(), limit)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, themes)
}

// SearchThemes handles GET /themes/search?q=. An empty query is a client
// error and never reaches the store.
func (h *HandlerImpl) SearchThemes(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if strings.TrimSpace(query) == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "q must be a non-empty string")
		return
	}
	themes, err := h.service.SearchThemes(r.Context(), query)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, themes)
}

// CreateTheme handles POST /themes.
func (h *HandlerImpl) CreateTheme(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("CatalogHandler").Start(r.Context(), "CreateTheme")
	defer span.End()
	r = r.WithContext(ctx)

	var params types.CreateThemeParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	theme, err := h.service.CreateTheme(ctx, params)
	if err != nil {
		span.SetStatus(codes.Error, "Theme creation failed")
		h.respondError(w, r, err)
		return
	}

	span.SetStatus(codes.Ok, "Theme created")
	api.WriteJSONResponse(w, r, http.StatusCreated, theme)
}

// GetAllCategories handles GET /categories.
func (h *HandlerImpl) GetAllCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.GetAllCategories(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, categories)
}

// CreateCategory handles POST /categories.
func (h *HandlerImpl) CreateCategory(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("CatalogHandler").Start(r.Context(), "CreateCategory")
	defer span.End()
	r = r.WithContext(ctx)

	var req types.CreateCategoryParams
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	category, err := h.service.CreateCategory(ctx, req)
	if err != nil {
		span.SetStatus(codes.Error, "Category creation failed")
		h.respondError(w, r, err)
		return
	}

	span.SetStatus(codes.Ok, "Category created")
	api.WriteJSONResponse(w, r, http.StatusCreated, category)
}

func parseIDsQuery(raw string) ([]int64, error) {
	if strings.TrimSpace(raw) == "" {
		return []int64{}, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil || id < 1 {
			return nil, fmt.Errorf("ids must be a comma-separated list of integers >= 1: %w", types.ErrBadRequest)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
