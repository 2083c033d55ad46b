package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/themehub/themehub-api/config"
	"github.com/themehub/themehub-api/internal/api"
	"github.com/themehub/themehub-api/internal/types"
)

type contextKey string

const (
	userIDKey   contextKey = "userID"
	usernameKey contextKey = "username"
)

// Authenticate resolves the caller's identity from the session cookie, or from
// a Bearer access token when no cookie is present. Requests that resolve to no
// valid identity are rejected with 401; there is no anonymous passthrough.
func Authenticate(service AuthService, cfg *config.Config, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := resolveRequestUser(r, service, cfg)
			if err != nil {
				logger.DebugContext(r.Context(), "Request rejected, no valid identity",
					slog.String("path", r.URL.Path))
				api.ErrorResponse(w, r, http.StatusUnauthorized, "authentication required")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, user.ID)
			ctx = context.WithValue(ctx, usernameKey, user.Username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func resolveRequestUser(r *http.Request, service AuthService, cfg *config.Config) (*types.User, error) {
	if cookie, err := r.Cookie(cfg.Auth.SessionCookie); err == nil {
		token, parseErr := uuid.Parse(cookie.Value)
		if parseErr != nil {
			return nil, types.ErrUnauthenticated
		}
		return service.ResolveSession(r.Context(), token)
	}

	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return service.ResolveAccessToken(r.Context(), strings.TrimPrefix(authHeader, "Bearer "))
	}

	return nil, types.ErrUnauthenticated
}

// GetUserIDFromContext extracts the authenticated user ID set by Authenticate.
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}

// GetUsernameFromContext extracts the authenticated username set by Authenticate.
func GetUsernameFromContext(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(usernameKey).(string)
	return name, ok
}
