package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/themehub/themehub-api/internal/types"
)

var _ AuthRepo = (*MemAuthRepo)(nil)

// MemAuthRepo is a map-backed AuthRepo with the same semantics as the
// Postgres implementation. Used by tests and the "memory" storage backend.
type MemAuthRepo struct {
	mu       sync.RWMutex
	users    map[int64]*types.User
	sessions map[uuid.UUID]*types.Session
	nextID   int64
}

func NewMemAuthRepo() *MemAuthRepo {
	return &MemAuthRepo{
		users:    make(map[int64]*types.User),
		sessions: make(map[uuid.UUID]*types.Session),
		nextID:   1,
	}
}

// CreateUser implements AuthRepo.
func (r *MemAuthRepo) CreateUser(_ context.Context, params types.CreateUserParams) (*types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Username == params.Username {
			return nil, fmt.Errorf("username already exists: %w", types.ErrConflict)
		}
		if params.Email != nil && u.Email != nil && *u.Email == *params.Email {
			return nil, fmt.Errorf("email already exists: %w", types.ErrConflict)
		}
	}

	user := &types.User{
		ID:           r.nextID,
		Username:     params.Username,
		Email:        params.Email,
		PasswordHash: params.PasswordHash,
		DisplayName:  params.DisplayName,
		CreatedAt:    time.Now(),
	}
	r.nextID++
	r.users[user.ID] = user

	cp := *user
	return &cp, nil
}

// GetUserByUsername implements AuthRepo.
func (r *MemAuthRepo) GetUserByUsername(_ context.Context, username string) (*types.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("user not found: %w", types.ErrNotFound)
}

// GetUserByEmail implements AuthRepo.
func (r *MemAuthRepo) GetUserByEmail(_ context.Context, email string) (*types.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Email != nil && *u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("user not found: %w", types.ErrNotFound)
}

// GetUserByID implements AuthRepo.
func (r *MemAuthRepo) GetUserByID(_ context.Context, id int64) (*types.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user not found: %w", types.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

// UpdateLastLogin implements AuthRepo.
func (r *MemAuthRepo) UpdateLastLogin(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return fmt.Errorf("user not found: %w", types.ErrNotFound)
	}
	now := time.Now()
	u.LastLoginAt = &now
	return nil
}

// UpdateProfile merges the non-nil fields into the stored user. It backs the
// user feature package when the memory backend is selected.
func (r *MemAuthRepo) UpdateProfile(_ context.Context, id int64, params types.UpdateProfileParams) (*types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user not found: %w", types.ErrNotFound)
	}
	if params.DisplayName != nil {
		u.DisplayName = params.DisplayName
	}
	if params.Email != nil {
		u.Email = params.Email
	}
	if params.Bio != nil {
		u.Bio = params.Bio
	}
	if params.AvatarURL != nil {
		u.AvatarURL = params.AvatarURL
	}
	cp := *u
	return &cp, nil
}

// CreateSession implements AuthRepo.
func (r *MemAuthRepo) CreateSession(_ context.Context, session *types.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *session
	r.sessions[session.Token] = &cp
	return nil
}

// GetSession implements AuthRepo.
func (r *MemAuthRepo) GetSession(_ context.Context, token uuid.UUID) (*types.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[token]
	if !ok {
		return nil, fmt.Errorf("session not found: %w", types.ErrNotFound)
	}
	cp := *s
	return &cp, nil
}

// DeleteSession implements AuthRepo.
func (r *MemAuthRepo) DeleteSession(_ context.Context, token uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, token)
	return nil
}

// DeleteExpiredSessions implements AuthRepo.
func (r *MemAuthRepo) DeleteExpiredSessions(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	var removed int64
	for token, s := range r.sessions {
		if s.Expired(now) {
			delete(r.sessions, token)
			removed++
		}
	}
	return removed, nil
}
