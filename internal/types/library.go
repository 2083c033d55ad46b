package types

import "time"

// Favorite is a (user, theme) join row. Existence is the only state.
type Favorite struct {
	UserID    int64     `json:"userId"`
	ThemeID   int64     `json:"themeId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Download is a (user, theme) join row. The row itself is idempotent; the
// theme's global download counter is incremented on every recording call.
type Download struct {
	UserID       int64     `json:"userId"`
	ThemeID      int64     `json:"themeId"`
	DownloadedAt time.Time `json:"downloadedAt"`
}

// Purchase is a ledger row recording what the user paid at purchase time.
type Purchase struct {
	UserID      int64     `json:"userId"`
	ThemeID     int64     `json:"themeId"`
	PricePaid   float64   `json:"pricePaid"`
	PurchasedAt time.Time `json:"purchasedAt"`
}

// SubscriptionStatus is derived from User.IsPremium on every read; the
// expiry is relative to read time and is not persisted.
type SubscriptionStatus struct {
	Active    bool       `json:"active"`
	Plan      string     `json:"plan"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}
