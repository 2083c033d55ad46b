package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/themehub/themehub-api/app/observability/metrics"
	"github.com/themehub/themehub-api/config"
	"github.com/themehub/themehub-api/internal/api"
	"github.com/themehub/themehub-api/internal/types"
)

type HandlerImpl struct {
	service AuthService
	cfg     *config.Config
	logger  *slog.Logger
}

func NewHandlerImpl(service AuthService, cfg *config.Config, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		service: service,
		cfg:     cfg,
		logger:  logger,
	}
}

// Register handles POST /auth/register.
func (h *HandlerImpl) Register(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("AuthHandler").Start(r.Context(), "Register")
	defer span.End()
	r = r.WithContext(ctx)

	var req RegisterRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.service.Register(ctx, req)
	if err != nil {
		metrics.Get().RegisterRequestsTotal.Add(ctx, 1,
			metric.WithAttributes(attribute.String("status", "failure")))
		span.SetStatus(codes.Error, "Registration failed")
		// Taken usernames surface as a plain client error, not a conflict.
		if errors.Is(err, types.ErrConflict) {
			api.ErrorResponse(w, r, http.StatusBadRequest, "username or email already exists")
			return
		}
		if errors.Is(err, types.ErrBadRequest) {
			api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.ErrorContext(ctx, "Registration failed", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "registration failed")
		return
	}

	metrics.Get().RegisterRequestsTotal.Add(ctx, 1,
		metric.WithAttributes(attribute.String("status", "success")))
	span.SetStatus(codes.Ok, "User registered")
	api.WriteJSONResponse(w, r, http.StatusCreated, RegisterResponse{User: user})
}

// Login handles POST /auth/login. On success it sets the session cookie and
// returns the user together with a short-lived access token.
func (h *HandlerImpl) Login(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("AuthHandler").Start(r.Context(), "Login")
	defer span.End()
	r = r.WithContext(ctx)

	var req LoginRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.Login(ctx, req.Username, req.Password)
	if err != nil {
		metrics.Get().LoginRequestsTotal.Add(ctx, 1,
			metric.WithAttributes(attribute.String("status", "failure")))
		span.SetStatus(codes.Error, "Login failed")
		if errors.Is(err, types.ErrInvalidCredentials) {
			api.ErrorResponse(w, r, http.StatusUnauthorized, "invalid credentials")
			return
		}
		if errors.Is(err, types.ErrBadRequest) {
			api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.ErrorContext(ctx, "Login failed", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "login failed")
		return
	}

	h.setSessionCookie(w, result.Session.Token.String(), result.Session.ExpiresAt)

	metrics.Get().LoginRequestsTotal.Add(ctx, 1,
		metric.WithAttributes(attribute.String("status", "success")))
	span.SetStatus(codes.Ok, "Login successful")
	api.WriteJSONResponse(w, r, http.StatusOK, LoginResponse{
		User:        result.User,
		AccessToken: result.AccessToken,
		Message:     "login successful",
	})
}

// Logout handles POST /auth/logout. The session is deleted server-side and
// the cookie cleared; repeating the call is harmless.
func (h *HandlerImpl) Logout(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("AuthHandler").Start(r.Context(), "Logout")
	defer span.End()
	r = r.WithContext(ctx)

	if cookie, err := r.Cookie(h.cfg.Auth.SessionCookie); err == nil {
		if token, parseErr := uuid.Parse(cookie.Value); parseErr == nil {
			if err := h.service.Logout(ctx, token); err != nil {
				h.logger.ErrorContext(ctx, "Logout failed", slog.Any("error", err))
				span.SetStatus(codes.Error, "Logout failed")
				api.ErrorResponse(w, r, http.StatusInternalServerError, "logout failed")
				return
			}
		}
	}

	h.clearSessionCookie(w)
	span.SetStatus(codes.Ok, "Logged out")
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]string{"message": "logged out"})
}

// Status handles GET /auth/status. It never fails; it reports whether the
// request carries a valid identity.
func (h *HandlerImpl) Status(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("AuthHandler").Start(r.Context(), "Status")
	defer span.End()
	r = r.WithContext(ctx)

	user, err := resolveRequestUser(r, h.service, h.cfg)
	if err != nil {
		span.SetStatus(codes.Ok, "Not authenticated")
		api.WriteJSONResponse(w, r, http.StatusOK, StatusResponse{
			Authenticated: false,
			Message:       "not authenticated",
		})
		return
	}

	span.SetStatus(codes.Ok, "Authenticated")
	api.WriteJSONResponse(w, r, http.StatusOK, StatusResponse{
		Authenticated: true,
		UserID:        user.ID,
		Username:      user.Username,
	})
}

func (h *HandlerImpl) setSessionCookie(w http.ResponseWriter, value string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.Auth.SessionCookie,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.cfg.Auth.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *HandlerImpl) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.Auth.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.Auth.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
