package domain

import "time"

// DefaultCurrency is used when an item does not name one.
const DefaultCurrency = "AZN"

// CatalogueItem is a ready-made website package offered on the site.
type CatalogueItem struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	ShortDescription string    `json:"short_description"`
	Features         []string  `json:"features"`
	Technologies     []string  `json:"technologies"`
	Price            float64   `json:"price"`
	Currency         string    `json:"currency"`
	Images           []string  `json:"images"`
	DemoURL          string    `json:"demo_url"`
	Category         string    `json:"category"`
	IsFeatured       bool      `json:"is_featured"`
	IsActive         bool      `json:"is_active"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// CatalogueUpdate carries a partial update; nil fields are left untouched.
type CatalogueUpdate struct {
	Title            *string   `json:"title,omitempty"`
	Description      *string   `json:"description,omitempty"`
	ShortDescription *string   `json:"short_description,omitempty"`
	Features         *[]string `json:"features,omitempty"`
	Technologies     *[]string `json:"technologies,omitempty"`
	Price            *float64  `json:"price,omitempty"`
	Currency         *string   `json:"currency,omitempty"`
	Images           *[]string `json:"images,omitempty"`
	DemoURL          *string   `json:"demo_url,omitempty"`
	Category         *string   `json:"category,omitempty"`
	IsFeatured       *bool     `json:"is_featured,omitempty"`
	IsActive         *bool     `json:"is_active,omitempty"`
}

// Empty reports whether the update sets no fields.
func (u CatalogueUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.ShortDescription == nil &&
		u.Features == nil && u.Technologies == nil && u.Price == nil &&
		u.Currency == nil && u.Images == nil && u.DemoURL == nil &&
		u.Category == nil && u.IsFeatured == nil && u.IsActive == nil
}

// Apply copies every set field onto item.
func (u CatalogueUpdate) Apply(item *CatalogueItem) {
	if u.Title != nil {
		item.Title = *u.Title
	}
	if u.Description != nil {
		item.Description = *u.Description
	}
	if u.ShortDescription != nil {
		item.ShortDescription = *u.ShortDescription
	}
	if u.Features != nil {
		item.Features = *u.Features
	}
	if u.Technologies != nil {
		item.Technologies = *u.Technologies
	}
	if u.Price != nil {
		item.Price = *u.Price
	}
	if u.Currency != nil {
		item.Currency = *u.Currency
	}
	if u.Images != nil {
		item.Images = *u.Images
	}
	if u.DemoURL != nil {
		item.DemoURL = *u.DemoURL
	}
	if u.Category != nil {
		item.Category = *u.Category
	}
	if u.IsFeatured != nil {
		item.IsFeatured = *u.IsFeatured
	}
	if u.IsActive != nil {
		item.IsActive = *u.IsActive
	}
}

// CatalogueFilter narrows the public catalogue listing.
type CatalogueFilter struct {
	Category     string
	FeaturedOnly bool
	Limit        int
}
