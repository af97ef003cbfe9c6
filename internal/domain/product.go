package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductType identifies the platform family a product targets.
type ProductType string

const (
	ProductTypeMobile  ProductType = "mobile"
	ProductTypeDesktop ProductType = "desktop"
)

// PricingModel tags how a product's price is charged. The checkout total
// only ever reads Price; the model is display metadata.
type PricingModel string

const (
	PricingPerpetual    PricingModel = "perpetual"
	PricingSubscription PricingModel = "subscription"
	PricingPerUser      PricingModel = "per_user"
)

// Product is a catalog entry. Products are immutable from the checkout
// flow's perspective.
type Product struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Type         ProductType     `json:"type"`
	Category     string          `json:"category"`
	Platform     string          `json:"platform"`
	Price        decimal.Decimal `json:"price"`
	Currency     string          `json:"currency"`
	PricingModel PricingModel    `json:"pricing_model"`
	ImageURL     string          `json:"image_url,omitempty"`
	Tags         []string        `json:"tags,omitempty"`
	IsBundle     bool            `json:"is_bundle"`
	Active       bool            `json:"active"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ProductSort enumerates the supported catalog orderings.
type ProductSort string

const (
	SortByName      ProductSort = "name"
	SortByPriceLow  ProductSort = "price-low"
	SortByPriceHigh ProductSort = "price-high"
	SortByCategory  ProductSort = "category"
)

// ProductFilter narrows a catalog listing. Zero values mean "any".
// PriceRange is one of "0-500", "500-1000", "1000-5000", "5000+".
type ProductFilter struct {
	Type       string      `json:"type,omitempty"`
	Category   string      `json:"category,omitempty"`
	Platform   string      `json:"platform,omitempty"`
	PriceRange string      `json:"price_range,omitempty"`
	SortBy     ProductSort `json:"sort_by,omitempty"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
}
