package library

import (
	"log/slog"
	"net/http"

	"github.com/themehub/themehub-api/internal/api"
	"github.com/themehub/themehub-api/internal/api/auth"
)

type HandlerImpl struct {
	service LibraryService
	logger  *slog.Logger
}

func NewHandlerImpl(service LibraryService, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		service: service,
		logger:  logger,
	}
}

func (h *HandlerImpl) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := api.StatusFromError(err)
	if status == http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "Library request failed",
			slog.String("path", r.URL.Path), slog.Any("error", err))
		api.ErrorResponse(w, r, status, "internal server error")
		return
	}
	api.ErrorResponse(w, r, status, err.Error())
}

// userAndTheme pulls the authenticated user from the context and the theme id
// from the URL. Missing identity means the middleware was bypassed; reject.
func (h *HandlerImpl) userAndTheme(w http.ResponseWriter, r *http.Request) (int64, int64, bool) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "authentication required")
		return 0, 0, false
	}
	themeID, err := api.ParseIDParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return 0, 0, false
	}
	return userID, themeID, true
}

// userAndThemeBody is the request-body variant for the POST endpoints, which
// carry the theme id as JSON. The user id still only ever comes from the
// authenticated context.
func (h *HandlerImpl) userAndThemeBody(w http.ResponseWriter, r *http.Request) (int64, int64, bool) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "authentication required")
		return 0, 0, false
	}
	var body struct {
		ThemeID int64 `json:"themeId"`
	}
	if err := api.DecodeJSONBody(w, r, &body); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return 0, 0, false
	}
	if body.ThemeID < 1 {
		api.ErrorResponse(w, r, http.StatusBadRequest, "themeId must be an integer >= 1")
		return 0, 0, false
	}
	return userID, body.ThemeID, true
}

func (h *HandlerImpl) userOnly(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "authentication required")
		return 0, false
	}
	return userID, true
}

// GetFavorites handles GET /user/favorites.
func (h *HandlerImpl) GetFavorites(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userOnly(w, r)
	if !ok {
		return
	}
	themes, err := h.service.GetFavoriteThemes(r.Context(), userID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, themes)
}

// AddFavorite handles POST /user/favorites.
func (h *HandlerImpl) AddFavorite(w http.ResponseWriter, r *http.Request) {
	userID, themeID, ok := h.userAndThemeBody(w, r)
	if !ok {
		return
	}
	if err := h.service.AddFavorite(r.Context(), userID, themeID); err != nil {
		h.respondError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusNoContent, nil)
}

// RemoveFavorite handles DELETE /user/favorites/{id}.
func (h *HandlerImpl) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	userID, themeID, ok := h.userAndTheme(w, r)
	if !ok {
		return
	}
	if err := h.service.RemoveFavorite(r.Context(), userID, themeID); err != nil {
		h.respondError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusNoContent, nil)
}

// GetDownloads handles GET /user/downloads.
func (h *HandlerImpl) GetDownloads(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userOnly(w, r)
	if !ok {
		return
	}
	themes, err := h.service.GetDownloadedThemes(r.Context(), userID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, themes)
}

// RecordDownload handles POST /user/downloads.
func (h *HandlerImpl) RecordDownload(w http.ResponseWriter, r *http.Request) {
	userID, themeID, ok := h.userAndThemeBody(w, r)
	if !ok {
		return
	}
	if err := h.service.RecordDownload(r.Context(), userID, themeID); err != nil {
		h.respondError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusNoContent, nil)
}

// GetPurchases handles GET /user/purchases.
func (h *HandlerImpl) GetPurchases(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userOnly(w, r)
	if !ok {
		return
	}
	purchases, err := h.service.GetPurchases(r.Context(), userID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, purchases)
}

// PurchaseTheme handles POST /user/purchases.
func (h *HandlerImpl) PurchaseTheme(w http.ResponseWriter, r *http.Request) {
	userID, themeID, ok := h.userAndThemeBody(w, r)
	if !ok {
		return
	}
	purchase, err := h.service.PurchaseTheme(r.Context(), userID, themeID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusCreated, purchase)
}

// GetSubscription handles GET /user/subscription.
func (h *HandlerImpl) GetSubscription(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userOnly(w, r)
	if !ok {
		return
	}
	status, err := h.service.GetSubscriptionStatus(r.Context(), userID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, status)
}
