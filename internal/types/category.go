package types

// AllCategorySlug identifies the reserved pseudo-category. Requests for this
// category bypass filtering entirely; no theme is ever assigned to it.
const AllCategorySlug = "all"

// Category is a named grouping each theme belongs to exactly one of.
type Category struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Slug         string  `json:"slug"`
	Description  *string `json:"description,omitempty"`
	Icon         *string `json:"icon,omitempty"`
	Color        *string `json:"color,omitempty"`
	DisplayOrder int     `json:"displayOrder"`
}

// CreateCategoryParams carries the fields for inserting a category.
type CreateCategoryParams struct {
	Name         string
	Slug         string
	Description  *string
	Icon         *string
	Color        *string
	DisplayOrder int
}
