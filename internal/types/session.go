package types

import (
	"time"

	"github.com/google/uuid"
)

// Session is a server-issued opaque credential bound to one user.
type Session struct {
	Token     uuid.UUID `json:"token"`
	UserID    int64     `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// Expired reports whether the session is past its fixed expiry.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
