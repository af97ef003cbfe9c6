package repository

import (
	"context"

	"github.com/bitforgehq/storefront/internal/domain"
)

// ProductRepository defines catalog persistence operations.
type ProductRepository interface {
	// GetByID retrieves a product by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Product, error)

	// GetByIDs retrieves products for the given identifiers, keyed by ID.
	GetByIDs(ctx context.Context, ids []string) (map[string]*domain.Product, error)

	// List returns products matching the filter along with the total count.
	List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, int, error)
}

// OrderRepository defines order ledger persistence operations.
type OrderRepository interface {
	// Create inserts an order and its items into the store atomically.
	Create(ctx context.Context, order *domain.Order) error

	// GetForUser retrieves an order by ID scoped to its owner, including
	// items. An order owned by a different user is reported as not found.
	GetForUser(ctx context.Context, id, userID string) (*domain.Order, error)

	// ListForUser returns the user's orders, most recent first.
	ListForUser(ctx context.Context, userID string, page, perPage int) ([]domain.Order, int, error)

	// FinalizeFromPending moves a pending order to a terminal state and
	// reports whether the row was updated. A false result with nil error
	// means the order was already terminal.
	FinalizeFromPending(ctx context.Context, id string, status domain.OrderStatus, paymentStatus domain.PaymentStatus) (bool, error)
}

// WishlistRepository defines per-user wishlist persistence operations.
type WishlistRepository interface {
	// Add inserts a wishlist item. Duplicate adds are ignored.
	Add(ctx context.Context, userID, productID string) error

	// Remove deletes a wishlist item, reporting not found when absent.
	Remove(ctx context.Context, userID, productID string) error

	// ListForUser returns the user's wishlist items joined with product
	// details, most recently added first.
	ListForUser(ctx context.Context, userID string) ([]domain.WishlistItem, error)
}

// InquiryRepository defines lead-generation form persistence operations.
type InquiryRepository interface {
	// Create stores a submitted inquiry.
	Create(ctx context.Context, inquiry *domain.Inquiry) error
}

// CartRepository defines the persisted cart mirror operations.
type CartRepository interface {
	// Get retrieves the user's cart mirror, or an empty cart when absent.
	Get(ctx context.Context, userID string) (*domain.Cart, error)

	// Put replaces the user's cart mirror.
	Put(ctx context.Context, cart *domain.Cart) error

	// Clear removes the user's cart mirror. Clearing an absent cart is a
	// no-op.
	Clear(ctx context.Context, userID string) error
}
