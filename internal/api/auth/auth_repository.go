package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
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

var _ AuthRepo = (*PostgresAuthRepo)(nil)

// AuthRepo defines the contract for user identity and session persistence.
type AuthRepo interface {
	// CreateUser inserts a new user. Returns types.ErrConflict if the
	// username, or the email when present, is already taken.
	CreateUser(ctx context.Context, params types.CreateUserParams) (*types.User, error)

	// GetUserByUsername returns types.ErrNotFound when no such user exists.
	// Absence is not an error for callers that treat it as a lookup miss.
	GetUserByUsername(ctx context.Context, username string) (*types.User, error)
	GetUserByEmail(ctx context.Context, email string) (*types.User, error)
	GetUserByID(ctx context.Context, id int64) (*types.User, error)

	// UpdateLastLogin sets the last_login_at timestamp for a user.
	UpdateLastLogin(ctx context.Context, id int64) error

	CreateSession(ctx context.Context, session *types.Session) error
	GetSession(ctx context.Context, token uuid.UUID) (*types.Session, error)
	// DeleteSession invalidates a session server-side. Deleting an absent
	// session is not an error; logout is idempotent.
	DeleteSession(ctx context.Context, token uuid.UUID) error
	DeleteExpiredSessions(ctx context.Context) (int64, error)
}

type PostgresAuthRepo struct {
	logger *slog.Logger
	pgpool database.PGXPool
}

func NewPostgresAuthRepo(pgxpool database.PGXPool, logger *slog.Logger) *PostgresAuthRepo {
	return &PostgresAuthRepo{
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

// CreateUser implements AuthRepo.
func (r *PostgresAuthRepo) CreateUser(ctx context.Context, params types.CreateUserParams) (*types.User, error) {
	ctx, span := otel.Tracer("AuthRepo").Start(ctx, "CreateUser", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "users"),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "CreateUser"), slog.String("username", params.Username))
	l.DebugContext(ctx, "Inserting new user")

	query := `
        INSERT INTO users (username, email, password_hash, display_name)
        VALUES ($1, $2, $3, $4)
        RETURNING ` + userColumns

	user, err := scanUser(r.pgpool.QueryRow(ctx, query,
		params.Username, params.Email, params.PasswordHash, params.DisplayName))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique violation
			l.WarnContext(ctx, "Username or email already taken")
			span.SetStatus(codes.Error, "Unique violation")
			return nil, fmt.Errorf("username or email already exists: %w", types.ErrConflict)
		}
		l.ErrorContext(ctx, "Failed to insert user", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB INSERT failed")
		return nil, fmt.Errorf("database error creating user: %w", err)
	}

	l.InfoContext(ctx, "User created", slog.Int64("userID", user.ID))
	span.SetStatus(codes.Ok, "User created")
	return user, nil
}

func (r *PostgresAuthRepo) getUser(ctx context.Context, spanName, where string, arg any) (*types.User, error) {
	ctx, span := otel.Tracer("AuthRepo").Start(ctx, spanName, trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "users"),
	))
	defer span.End()

	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where
	user, err := scanUser(r.pgpool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Ok, "User not found")
			return nil, fmt.Errorf("user not found: %w", types.ErrNotFound)
		}
		r.logger.ErrorContext(ctx, "Failed to query user", slog.String("method", spanName), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error fetching user: %w", err)
	}

	span.SetStatus(codes.Ok, "User fetched")
	return user, nil
}

// GetUserByUsername implements AuthRepo.
func (r *PostgresAuthRepo) GetUserByUsername(ctx context.Context, username string) (*types.User, error) {
	return r.getUser(ctx, "GetUserByUsername", "username = $1", username)
}

// GetUserByEmail implements AuthRepo.
func (r *PostgresAuthRepo) GetUserByEmail(ctx context.Context, email string) (*types.User, error) {
	return r.getUser(ctx, "GetUserByEmail", "email = $1", email)
}

// GetUserByID implements AuthRepo.
func (r *PostgresAuthRepo) GetUserByID(ctx context.Context, id int64) (*types.User, error) {
	return r.getUser(ctx, "GetUserByID", "id = $1", id)
}

// UpdateLastLogin implements AuthRepo.
func (r *PostgresAuthRepo) UpdateLastLogin(ctx context.Context, id int64) error {
	ctx, span := otel.Tracer("AuthRepo").Start(ctx, "UpdateLastLogin", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.sql.table", "users"),
	))
	defer span.End()

	tag, err := r.pgpool.Exec(ctx,
		"UPDATE users SET last_login_at = $1 WHERE id = $2", time.Now(), id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB UPDATE failed")
		return fmt.Errorf("database error updating last login: %w", err)
	}
	if tag.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "User not found")
		return fmt.Errorf("user not found: %w", types.ErrNotFound)
	}
	span.SetStatus(codes.Ok, "Last login updated")
	return nil
}

// CreateSession implements AuthRepo.
func (r *PostgresAuthRepo) CreateSession(ctx context.Context, session *types.Session) error {
	ctx, span := otel.Tracer("AuthRepo").Start(ctx, "CreateSession", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "sessions"),
	))
	defer span.End()

	_, err := r.pgpool.Exec(ctx,
		"INSERT INTO sessions (token, user_id, expires_at, created_at) VALUES ($1, $2, $3, $4)",
		session.Token, session.UserID, session.ExpiresAt, session.CreatedAt)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert session", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB INSERT failed")
		return fmt.Errorf("database error creating session: %w", err)
	}
	span.SetStatus(codes.Ok, "Session created")
	return nil
}

// GetSession implements AuthRepo.
func (r *PostgresAuthRepo) GetSession(ctx context.Context, token uuid.UUID) (*types.Session, error) {
	ctx, span := otel.Tracer("AuthRepo").Start(ctx, "GetSession", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "sessions"),
	))
	defer span.End()

	var s types.Session
	err := r.pgpool.QueryRow(ctx,
		"SELECT token, user_id, expires_at, created_at FROM sessions WHERE token = $1",
		token).Scan(&s.Token, &s.UserID, &s.ExpiresAt, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Ok, "Session not found")
			return nil, fmt.Errorf("session not found: %w", types.ErrNotFound)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error fetching session: %w", err)
	}
	span.SetStatus(codes.Ok, "Session fetched")
	return &s, nil
}

// DeleteSession implements AuthRepo.
func (r *PostgresAuthRepo) DeleteSession(ctx context.Context, token uuid.UUID) error {
	ctx, span := otel.Tracer("AuthRepo").Start(ctx, "DeleteSession", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "DELETE"),
		attribute.String("db.sql.table", "sessions"),
	))
	defer span.End()

	tag, err := r.pgpool.Exec(ctx, "DELETE FROM sessions WHERE token = $1", token)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB DELETE failed")
		return fmt.Errorf("database error deleting session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		r.logger.DebugContext(ctx, "Session already absent on delete")
	}
	span.SetStatus(codes.Ok, "Session deleted or already absent")
	return nil
}

// DeleteExpiredSessions implements AuthRepo.
func (r *PostgresAuthRepo) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	ctx, span := otel.Tracer("AuthRepo").Start(ctx, "DeleteExpiredSessions", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "DELETE"),
		attribute.String("db.sql.table", "sessions"),
	))
	defer span.End()

	tag, err := r.pgpool.Exec(ctx, "DELETE FROM sessions WHERE expires_at < $1", time.Now())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB DELETE failed")
		return 0, fmt.Errorf("database error deleting expired sessions: %w", err)
	}
	span.SetStatus(codes.Ok, "Expired sessions deleted")
	return tag.RowsAffected(), nil
}
