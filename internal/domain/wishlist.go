package domain

import "time"

// WishlistItem is one favorited product, unique per (user, product).
type WishlistItem struct {
	UserID    string    `json:"user_id"`
	ProductID string    `json:"product_id"`
	CreatedAt time.Time `json:"created_at"`

	// Product details joined for display on list reads.
	Product *Product `json:"product,omitempty"`
}
