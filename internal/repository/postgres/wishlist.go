package postgres

import (
	"context"
	"fmt"

	"github.com/bitforgehq/storefront/internal/domain"
	"github.com/bitforgehq/storefront/pkg/database"
	apperrors "github.com/bitforgehq/storefront/pkg/errors"
)

// WishlistRepository implements repository.WishlistRepository using
// PostgreSQL.
type WishlistRepository struct {
	pool database.DBTX
}

// NewWishlistRepository creates a new PostgreSQL-backed wishlist repository.
func NewWishlistRepository(pool database.DBTX) *WishlistRepository {
	return &WishlistRepository{pool: pool}
}

// Add inserts a wishlist item. A duplicate add for the same (user, product)
// pair is ignored.
func (r *WishlistRepository) Add(ctx context.Context, userID, productID string) error {
	query := `
		INSERT INTO wishlist_items (user_id, product_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, product_id) DO NOTHING`

	if _, err := r.pool.Exec(ctx, query, userID, productID); err != nil {
		return fmt.Errorf("insert wishlist item: %w", err)
	}

	return nil
}

// Remove deletes a wishlist item, reporting not found when no such item
// exists.
func (r *WishlistRepository) Remove(ctx context.Context, userID, productID string) error {
	query := `DELETE FROM wishlist_items WHERE user_id = $1 AND product_id = $2`

	tag, err := r.pool.Exec(ctx, query, userID, productID)
	if err != nil {
		return fmt.Errorf("delete wishlist item: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// ListForUser returns the user's wishlist joined with product details, most
// recently added first. A user with no wishlist gets an empty slice.
func (r *WishlistRepository) ListForUser(ctx context.Context, userID string) ([]domain.WishlistItem, error) {
	query := `
		SELECT w.user_id, w.product_id, w.created_at,
			   p.id, p.name, p.description, p.type, p.category, p.platform,
			   p.price, p.currency, p.pricing_model, p.image_url, p.tags,
			   p.is_bundle, p.active, p.created_at, p.updated_at
		FROM wishlist_items w
		JOIN products p ON p.id = w.product_id
		WHERE w.user_id = $1
		ORDER BY w.created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list wishlist items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.WishlistItem, 0)
	for rows.Next() {
		var (
			item domain.WishlistItem
			p    domain.Product
		)
		if err := rows.Scan(
			&item.UserID,
			&item.ProductID,
			&item.CreatedAt,
			&p.ID,
			&p.Name,
			&p.Description,
			&p.Type,
			&p.Category,
			&p.Platform,
			&p.Price,
			&p.Currency,
			&p.PricingModel,
			&p.ImageURL,
			&p.Tags,
			&p.IsBundle,
			&p.Active,
			&p.CreatedAt,
			&p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan wishlist row: %w", err)
		}
		item.Product = &p
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wishlist rows: %w", err)
	}

	return items, nil
}
