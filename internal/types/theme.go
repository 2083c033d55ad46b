package types

import "time"

// Theme is a purchasable/downloadable visual customization package.
// Rating, download count and the trending flag are the only fields that
// mutate after creation, and only through defined store operations.
type Theme struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Author        string    `json:"author"`
	Price         float64   `json:"price"`
	IsFree        bool      `json:"isFree"`
	ImageURL      string    `json:"imageUrl"`
	ThumbnailURL  string    `json:"thumbnailUrl"`
	PreviewImages []string  `json:"previewImages"`
	Rating        float64   `json:"rating"`
	RatingCount   int       `json:"ratingCount"`
	DownloadCount int64     `json:"downloadCount"`
	IsFeatured    bool      `json:"isFeatured"`
	IsTopRated    bool      `json:"isTopRated"`
	IsTrending    bool      `json:"isTrending"`
	Version       string    `json:"version"`
	FileSize      string    `json:"fileSize"`
	Style         string    `json:"style"`
	ReleaseDate   time.Time `json:"releaseDate"`
	CategoryID    int64     `json:"categoryId"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// CreateThemeParams carries the fields for inserting a theme.
// Invariant enforced at creation: Price > 0 implies IsFree == false.
type CreateThemeParams struct {
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Author        string    `json:"author"`
	Price         float64   `json:"price"`
	IsFree        bool      `json:"isFree"`
	ImageURL      string    `json:"imageUrl"`
	ThumbnailURL  string    `json:"thumbnailUrl"`
	PreviewImages []string  `json:"previewImages"`
	Rating        float64   `json:"rating"`
	RatingCount   int       `json:"ratingCount"`
	IsFeatured    bool      `json:"isFeatured"`
	IsTopRated    bool      `json:"isTopRated"`
	IsTrending    bool      `json:"isTrending"`
	Version       string    `json:"version"`
	FileSize      string    `json:"fileSize"`
	Style         string    `json:"style"`
	ReleaseDate   time.Time `json:"releaseDate"`
	CategoryID    int64     `json:"categoryId"`
}
