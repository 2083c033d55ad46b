package user

import (
	"log/slog"
	"net/http"

	"github.com/themehub/themehub-api/internal/api"
	"github.com/themehub/themehub-api/internal/api/auth"
	"github.com/themehub/themehub-api/internal/types"
)

type HandlerImpl struct {
	service UserService
	logger  *slog.Logger
}

func NewHandlerImpl(service UserService, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		service: service,
		logger:  logger,
	}
}

func (h *HandlerImpl) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := api.StatusFromError(err)
	if status == http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "User request failed",
			slog.String("path", r.URL.Path), slog.Any("error", err))
		api.ErrorResponse(w, r, status, "internal server error")
		return
	}
	api.ErrorResponse(w, r, status, err.Error())
}

// GetProfile handles GET /user/profile.
func (h *HandlerImpl) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	user, err := h.service.GetProfile(r.Context(), userID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, user)
}

// UpdateProfile handles PUT /user/profile. Absent fields keep their value.
func (h *HandlerImpl) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	var params types.UpdateProfileParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), userID, params)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, user)
}
