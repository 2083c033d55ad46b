package auth

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/themehub/themehub-api/internal/types"
)

// RegisterRequest represents the register request body.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
}

// LoginRequest represents the login request body. Username may also carry an
// email address; resolution order is username first, then email.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse represents the login response body. The session itself
// travels in an HttpOnly cookie; the access token is for non-browser clients.
type LoginResponse struct {
	User        *types.User `json:"user"`
	AccessToken string      `json:"access_token"`
	Message     string      `json:"message"`
}

// RegisterResponse wraps the created user.
type RegisterResponse struct {
	User *types.User `json:"user"`
}

// StatusResponse reports the authentication state of the current request.
type StatusResponse struct {
	Authenticated bool   `json:"authenticated"`
	UserID        int64  `json:"userId,omitempty"`
	Username      string `json:"username,omitempty"`
	Message       string `json:"message,omitempty"`
}

// Claims represents the custom claims included in the JWT access token.
type Claims struct {
	UserID   int64  `json:"uid"`
	Username string `json:"usr,omitempty"`
	jwt.RegisteredClaims
}
