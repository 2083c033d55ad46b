package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/crypto/bcrypt"

	"github.com/themehub/themehub-api/config"
	"github.com/themehub/themehub-api/internal/types"
)

var _ AuthService = (*AuthServiceImpl)(nil)

// AuthService defines the business logic contract for authentication.
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*types.User, error)
	Login(ctx context.Context, identifier, password string) (*LoginResult, error)
	Logout(ctx context.Context, token uuid.UUID) error
	// ResolveSession maps an opaque session token to its user, failing
	// closed with types.ErrUnauthenticated for absent, expired or orphaned
	// sessions. There is no fallback identity of any kind.
	ResolveSession(ctx context.Context, token uuid.UUID) (*types.User, error)
	// ResolveAccessToken validates a JWT access token and returns its user.
	ResolveAccessToken(ctx context.Context, tokenString string) (*types.User, error)
}

// LoginResult bundles everything a successful login produces.
type LoginResult struct {
	User        *types.User
	Session     *types.Session
	AccessToken string
}

// dummyHash keeps the bcrypt comparison on the login path even when the user
// does not exist, so both failure modes behave alike.
var dummyHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

type AuthServiceImpl struct {
	logger *slog.Logger
	repo   AuthRepo
	cfg    *config.Config
}

func NewAuthService(repo AuthRepo, cfg *config.Config, logger *slog.Logger) *AuthServiceImpl {
	return &AuthServiceImpl{
		logger: logger,
		repo:   repo,
		cfg:    cfg,
	}
}

// Register creates a new user with a bcrypt-hashed credential. The plaintext
// password is neither stored nor logged.
func (s *AuthServiceImpl) Register(ctx context.Context, req RegisterRequest) (*types.User, error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "Register")
	defer span.End()

	l := s.logger.With(slog.String("method", "Register"), slog.String("username", req.Username))

	if req.Username == "" || req.Password == "" {
		return nil, fmt.Errorf("username and password are required: %w", types.ErrBadRequest)
	}
	if len(req.Password) < 8 {
		return nil, fmt.Errorf("password must be at least 8 characters: %w", types.ErrBadRequest)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Password hashing failed")
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	params := types.CreateUserParams{
		Username:     req.Username,
		PasswordHash: string(hash),
	}
	if req.Email != "" {
		params.Email = &req.Email
	}

	user, err := s.repo.CreateUser(ctx, params)
	if err != nil {
		if errors.Is(err, types.ErrConflict) {
			l.WarnContext(ctx, "Registration rejected, username or email taken")
			span.SetStatus(codes.Error, "Conflict")
			return nil, err
		}
		l.ErrorContext(ctx, "Failed to create user", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "User creation failed")
		return nil, fmt.Errorf("error registering user: %w", err)
	}

	l.InfoContext(ctx, "User registered", slog.Int64("userID", user.ID))
	span.SetStatus(codes.Ok, "User registered")
	return user, nil
}

// Login resolves the identifier (username first, then email when it contains
// an "@"), verifies the password and issues a session plus an access token.
// Unknown user and wrong password yield the same ErrInvalidCredentials.
func (s *AuthServiceImpl) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "Login")
	defer span.End()

	l := s.logger.With(slog.String("method", "Login"))

	if identifier == "" || password == "" {
		return nil, fmt.Errorf("username and password are required: %w", types.ErrBadRequest)
	}

	user, err := s.repo.GetUserByUsername(ctx, identifier)
	if err != nil && errors.Is(err, types.ErrNotFound) && strings.Contains(identifier, "@") {
		user, err = s.repo.GetUserByEmail(ctx, identifier)
	}
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			// Keep the bcrypt comparison on this path too.
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			l.WarnContext(ctx, "Login failed")
			span.SetStatus(codes.Error, "Invalid credentials")
			return nil, types.ErrInvalidCredentials
		}
		l.ErrorContext(ctx, "Failed to resolve login identifier", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Lookup failed")
		return nil, fmt.Errorf("error during login: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		l.WarnContext(ctx, "Login failed")
		span.SetStatus(codes.Error, "Invalid credentials")
		return nil, types.ErrInvalidCredentials
	}

	session := &types.Session{
		Token:     uuid.New(),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(s.cfg.Auth.SessionExpiry),
		CreatedAt: time.Now(),
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		l.ErrorContext(ctx, "Failed to persist session", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Session creation failed")
		return nil, fmt.Errorf("error creating session: %w", err)
	}

	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		l.ErrorContext(ctx, "Failed to sign access token", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Token signing failed")
		return nil, fmt.Errorf("error generating access token: %w", err)
	}

	if err := s.repo.UpdateLastLogin(ctx, user.ID); err != nil {
		l.WarnContext(ctx, "Failed to record last login", slog.Any("error", err))
	}

	l.InfoContext(ctx, "Login successful", slog.Int64("userID", user.ID))
	span.SetStatus(codes.Ok, "Login successful")
	return &LoginResult{
		User:        user,
		Session:     session,
		AccessToken: accessToken,
	}, nil
}

// Logout invalidates the session server-side. Idempotent.
func (s *AuthServiceImpl) Logout(ctx context.Context, token uuid.UUID) error {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "Logout")
	defer span.End()

	if err := s.repo.DeleteSession(ctx, token); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Session deletion failed")
		return fmt.Errorf("error during logout: %w", err)
	}
	span.SetStatus(codes.Ok, "Logged out")
	return nil
}

// ResolveSession implements AuthService.
func (s *AuthServiceImpl) ResolveSession(ctx context.Context, token uuid.UUID) (*types.User, error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "ResolveSession")
	defer span.End()

	session, err := s.repo.GetSession(ctx, token)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			span.SetStatus(codes.Error, "Session not found")
			return nil, types.ErrUnauthenticated
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "Session lookup failed")
		return nil, fmt.Errorf("error resolving session: %w", err)
	}

	if session.Expired(time.Now()) {
		_ = s.repo.DeleteSession(ctx, token)
		span.SetStatus(codes.Error, "Session expired")
		return nil, types.ErrUnauthenticated
	}

	user, err := s.repo.GetUserByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			span.SetStatus(codes.Error, "Session user gone")
			return nil, types.ErrUnauthenticated
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "User lookup failed")
		return nil, fmt.Errorf("error resolving session user: %w", err)
	}

	span.SetStatus(codes.Ok, "Session resolved")
	return user, nil
}

// ResolveAccessToken implements AuthService.
func (s *AuthServiceImpl) ResolveAccessToken(ctx context.Context, tokenString string) (*types.User, error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "ResolveAccessToken")
	defer span.End()

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.Auth.JWTSecretKey), nil
	})
	if err != nil || !token.Valid {
		span.SetStatus(codes.Error, "Token invalid")
		return nil, types.ErrUnauthenticated
	}
	if claims.Issuer != s.cfg.Auth.JWTIssuer {
		span.SetStatus(codes.Error, "Issuer mismatch")
		return nil, types.ErrUnauthenticated
	}

	user, err := s.repo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			span.SetStatus(codes.Error, "Token user gone")
			return nil, types.ErrUnauthenticated
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "User lookup failed")
		return nil, fmt.Errorf("error resolving token user: %w", err)
	}

	span.SetStatus(codes.Ok, "Access token resolved")
	return user, nil
}

func (s *AuthServiceImpl) generateAccessToken(user *types.User) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			Issuer:    s.cfg.Auth.JWTIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.Auth.JWTExpiry)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.Auth.JWTSecretKey))
}
