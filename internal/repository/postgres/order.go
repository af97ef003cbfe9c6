package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bitforgehq/storefront/internal/domain"
	"github.com/bitforgehq/storefront/pkg/database"
	apperrors "github.com/bitforgehq/storefront/pkg/errors"
)

// OrderRepository implements repository.OrderRepository using PostgreSQL.
type OrderRepository struct {
	pool database.DBTX
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool database.DBTX) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create inserts a new order and its items atomically within a transaction.
func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	orderQuery := `
		INSERT INTO orders (id, user_id, customer_name, customer_email, status, payment_status, payment_intent_id, payment_method, subtotal, tax, total, currency, billing_street, billing_city, billing_state, billing_postal_code, billing_country, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`

	_, err = tx.Exec(ctx, orderQuery,
		o.ID,
		o.UserID,
		o.CustomerName,
		o.CustomerEmail,
		o.Status,
		o.PaymentStatus,
		o.PaymentIntentID,
		o.PaymentMethod,
		o.Subtotal,
		o.Tax,
		o.Total,
		o.Currency,
		o.BillingAddress.Street,
		o.BillingAddress.City,
		o.BillingAddress.State,
		o.BillingAddress.PostalCode,
		o.BillingAddress.Country,
		o.CreatedAt,
		o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (id, order_id, product_id, product_name, unit_price, quantity)
		VALUES ($1, $2, $3, $4, $5, $6)`

	for _, item := range o.Items {
		_, err = tx.Exec(ctx, itemQuery,
			item.ID,
			item.OrderID,
			item.ProductID,
			item.ProductName,
			item.UnitPrice,
			item.Quantity,
		)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// GetForUser retrieves an order owned by the given user, eagerly loading its
// items. Orders owned by other users scan as no rows, so existence never
// leaks across users.
func (r *OrderRepository) GetForUser(ctx context.Context, id, userID string) (*domain.Order, error) {
	// Order and items in one query via LEFT JOIN + JSONB_AGG to avoid a
	// second round trip.
	query := `
		SELECT
			o.id, o.user_id, o.customer_name, o.customer_email, o.status,
			o.payment_status, o.payment_intent_id, o.payment_method,
			o.subtotal, o.tax, o.total, o.currency,
			o.billing_street, o.billing_city, o.billing_state,
			o.billing_postal_code, o.billing_country,
			o.created_at, o.updated_at,
			COALESCE(
				JSONB_AGG(
					JSONB_BUILD_OBJECT(
						'id', oi.id,
						'order_id', oi.order_id,
						'product_id', oi.product_id,
						'product_name', oi.product_name,
						'unit_price', oi.unit_price,
						'quantity', oi.quantity
					) ORDER BY oi.created_at
				) FILTER (WHERE oi.id IS NOT NULL),
				'[]'::jsonb
			) AS items
		FROM orders o
		LEFT JOIN order_items oi ON o.id = oi.order_id
		WHERE o.id = $1 AND o.user_id = $2
		GROUP BY o.id`

	var (
		o         domain.Order
		itemsJSON []byte
	)

	err := r.pool.QueryRow(ctx, query, id, userID).Scan(
		&o.ID,
		&o.UserID,
		&o.CustomerName,
		&o.CustomerEmail,
		&o.Status,
		&o.PaymentStatus,
		&o.PaymentIntentID,
		&o.PaymentMethod,
		&o.Subtotal,
		&o.Tax,
		&o.Total,
		&o.Currency,
		&o.BillingAddress.Street,
		&o.BillingAddress.City,
		&o.BillingAddress.State,
		&o.BillingAddress.PostalCode,
		&o.BillingAddress.Country,
		&o.CreatedAt,
		&o.UpdatedAt,
		&itemsJSON,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}

	if len(itemsJSON) > 0 && string(itemsJSON) != "null" && string(itemsJSON) != "[]" {
		if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
			return nil, fmt.Errorf("unmarshal order items: %w", err)
		}
	} else {
		o.Items = []domain.OrderItem{}
	}

	return &o, nil
}

// ListForUser returns the user's orders, most recent first, with the total
// count.
func (r *OrderRepository) ListForUser(ctx context.Context, userID string, page, perPage int) ([]domain.Order, int, error) {
	query := `
		SELECT id, user_id, customer_name, customer_email, status, payment_status,
			   payment_intent_id, payment_method, subtotal, tax, total, currency,
			   billing_street, billing_city, billing_state, billing_postal_code, billing_country,
			   created_at, updated_at,
			   count(*) OVER() AS total_count
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	limit := perPage
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if page > 1 {
		offset = (page - 1) * limit
	}

	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var totalCount int
	orders := make([]domain.Order, 0)

	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(
			&o.ID,
			&o.UserID,
			&o.CustomerName,
			&o.CustomerEmail,
			&o.Status,
			&o.PaymentStatus,
			&o.PaymentIntentID,
			&o.PaymentMethod,
			&o.Subtotal,
			&o.Tax,
			&o.Total,
			&o.Currency,
			&o.BillingAddress.Street,
			&o.BillingAddress.City,
			&o.BillingAddress.State,
			&o.BillingAddress.PostalCode,
			&o.BillingAddress.Country,
			&o.CreatedAt,
			&o.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate order rows: %w", err)
	}

	// Batch-load items for all orders in one query to avoid N+1.
	if len(orders) > 0 {
		orderIDs := make([]string, len(orders))
		byID := make(map[string]*domain.Order, len(orders))
		for i := range orders {
			orderIDs[i] = orders[i].ID
			byID[orders[i].ID] = &orders[i]
			orders[i].Items = []domain.OrderItem{}
		}

		itemsQuery := `
			SELECT id, order_id, product_id, product_name, unit_price, quantity
			FROM order_items
			WHERE order_id = ANY($1)
			ORDER BY created_at`

		itemRows, err := r.pool.Query(ctx, itemsQuery, orderIDs)
		if err != nil {
			return nil, 0, fmt.Errorf("batch load order items: %w", err)
		}
		defer itemRows.Close()

		for itemRows.Next() {
			var item domain.OrderItem
			if err := itemRows.Scan(
				&item.ID,
				&item.OrderID,
				&item.ProductID,
				&item.ProductName,
				&item.UnitPrice,
				&item.Quantity,
			); err != nil {
				return nil, 0, fmt.Errorf("scan order item row: %w", err)
			}
			if o, ok := byID[item.OrderID]; ok {
				o.Items = append(o.Items, item)
			}
		}

		if err := itemRows.Err(); err != nil {
			return nil, 0, fmt.Errorf("iterate order item rows: %w", err)
		}
	}

	return orders, totalCount, nil
}

// FinalizeFromPending moves a pending order to a terminal state with a
// compare-and-set on the current status. Concurrent confirmations serialize
// on the row; the loser observes zero affected rows.
func (r *OrderRepository) FinalizeFromPending(ctx context.Context, id string, status domain.OrderStatus, paymentStatus domain.PaymentStatus) (bool, error) {
	query := `
		UPDATE orders
		SET status = $2, payment_status = $3, updated_at = now()
		WHERE id = $1 AND status = $4`

	tag, err := r.pool.Exec(ctx, query, id, status, paymentStatus, domain.OrderStatusPending)
	if err != nil {
		return false, fmt.Errorf("update order status: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}
