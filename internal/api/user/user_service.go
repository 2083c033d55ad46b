package user

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/themehub/themehub-api/internal/types"
)

var _ UserService = (*UserServiceImpl)(nil)

// UserService defines the business logic contract for profile management.
type UserService interface {
	GetProfile(ctx context.Context, userID int64) (*types.User, error)
	UpdateProfile(ctx context.Context, userID int64, params types.UpdateProfileParams) (*types.User, error)
}

type UserServiceImpl struct {
	logger *slog.Logger
	repo   UserRepo
}

func NewUserService(repo UserRepo, logger *slog.Logger) *UserServiceImpl {
	return &UserServiceImpl{
		logger: logger,
		repo:   repo,
	}
}

// GetProfile implements UserService.
func (s *UserServiceImpl) GetProfile(ctx context.Context, userID int64) (*types.User, error) {
	return s.repo.GetUserByID(ctx, userID)
}

// UpdateProfile implements UserService.
func (s *UserServiceImpl) UpdateProfile(ctx context.Context, userID int64, params types.UpdateProfileParams) (*types.User, error) {
	ctx, span := otel.Tracer("UserService").Start(ctx, "UpdateProfile")
	defer span.End()

	if params.Email != nil && !strings.Contains(*params.Email, "@") {
		return nil, fmt.Errorf("email is not valid: %w", types.ErrBadRequest)
	}

	user, err := s.repo.UpdateProfile(ctx, userID, params)
	if err != nil {
		span.SetStatus(codes.Error, "Profile update failed")
		return nil, err
	}

	s.logger.InfoContext(ctx, "Profile updated", slog.Int64("userID", userID))
	span.SetStatus(codes.Ok, "Profile updated")
	return user, nil
}
