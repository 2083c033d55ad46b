package types

import "time"

// User represents an account in the marketplace.
type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	Email        *string    `json:"email,omitempty"`
	PasswordHash string     `json:"-"`
	DisplayName  *string    `json:"displayName,omitempty"`
	AvatarURL    *string    `json:"avatarUrl,omitempty"`
	Bio          *string    `json:"bio,omitempty"`
	IsPremium    bool       `json:"isPremium"`
	CreatedAt    time.Time  `json:"createdAt"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`
}

// CreateUserParams carries the fields needed to insert a new user.
// PasswordHash is the bcrypt digest; the plaintext never reaches the repo.
type CreateUserParams struct {
	Username     string
	Email        *string
	PasswordHash string
	DisplayName  *string
}

// UpdateProfileParams holds the mutable profile fields. Nil means "leave as is".
type UpdateProfileParams struct {
	DisplayName *string `json:"displayName,omitempty"`
	Email       *string `json:"email,omitempty"`
	Bio         *string `json:"bio,omitempty"`
	AvatarURL   *string `json:"avatarUrl,omitempty"`
}
