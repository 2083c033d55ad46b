package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	database "github.com/themehub/themehub-api/app/db"
	"github.com/themehub/themehub-api/internal/types"
)

var _ UserRepo = (*PostgresUserRepo)(nil)

// UserRepo defines the contract for reading and mutating user profiles.
type UserRepo interface {
	GetUserByID(ctx context.Context, id int64) (*types.User, error)
	// UpdateProfile merges the non-nil fields into the stored user and
	// returns the updated row. Email collisions map to types.ErrConflict.
	UpdateProfile(ctx context.Context, id int64, params types.UpdateProfileParams) (*types.User, error)
}

type PostgresUserRepo struct {
	logger *slog.Logger
	pgpool database.PGXPool
}

func NewPostgresUserRepo(pgxpool database.PGXPool, logger *slog.Logger) *PostgresUserRepo {
	return &PostgresUserRepo{
		logger: logger,
		pgpool: pgxpool,
	}
}

const userColumns = `id, username, email, password_hash, display_name, avatar_url, bio, is_premium, created_at, last_login_at`

func scanUser(row pgx.Row) (*types.User, error) {
	var u types.User
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.DisplayName,
		&u.AvatarURL, &u.Bio, &u.IsPremium, &u.CreatedAt, &u.LastLoginAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByID implements UserRepo.
func (r *PostgresUserRepo) GetUserByID(ctx context.Context, id int64) (*types.User, error) {
	ctx, span := otel.Tracer("UserRepo").Start(ctx, "GetUserByID", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "users"),
		attribute.Int64("user.id", id),
	))
	defer span.End()

	user, err := scanUser(r.pgpool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Ok, "User not found")
			return nil, fmt.Errorf("user not found: %w", types.ErrNotFound)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error fetching user: %w", err)
	}

	span.SetStatus(codes.Ok, "User fetched")
	return user, nil
}

// UpdateProfile implements UserRepo. COALESCE keeps stored values where the
// parameter is nil.
func (r *PostgresUserRepo) UpdateProfile(ctx context.Context, id int64, params types.UpdateProfileParams) (*types.User, error) {
	ctx, span := otel.Tracer("UserRepo").Start(ctx, "UpdateProfile", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.sql.table", "users"),
		attribute.Int64("user.id", id),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "UpdateProfile"), slog.Int64("userID", id))

	query := `
        UPDATE users
        SET display_name = COALESCE($2, display_name),
            email        = COALESCE($3, email),
            bio          = COALESCE($4, bio),
            avatar_url   = COALESCE($5, avatar_url)
        WHERE id = $1
        RETURNING ` + userColumns

	user, err := scanUser(r.pgpool.QueryRow(ctx, query,
		id, params.DisplayName, params.Email, params.Bio, params.AvatarURL))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Ok, "User not found")
			return nil, fmt.Errorf("user not found: %w", types.ErrNotFound)
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique violation
			l.WarnContext(ctx, "Email already taken")
			span.SetStatus(codes.Error, "Unique violation")
			return nil, fmt.Errorf("email already exists: %w", types.ErrConflict)
		}
		l.ErrorContext(ctx, "Failed to update profile", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB UPDATE failed")
		return nil, fmt.Errorf("database error updating profile: %w", err)
	}

	l.InfoContext(ctx, "Profile updated")
	span.SetStatus(codes.Ok, "Profile updated")
	return user, nil
}
