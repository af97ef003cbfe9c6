package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/bitforgehq/storefront/internal/domain"
	"github.com/bitforgehq/storefront/pkg/database"
	apperrors "github.com/bitforgehq/storefront/pkg/errors"
)

const productColumns = `id, name, description, type, category, platform, price, currency, pricing_model, image_url, tags, is_bundle, active, created_at, updated_at`

// ProductRepository implements repository.ProductRepository using PostgreSQL.
type ProductRepository struct {
	pool database.DBTX
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool database.DBTX) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// GetByID retrieves a product by its ID.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE id = $1`, productColumns)

	var p domain.Product
	err := r.pool.QueryRow(ctx, query, id).Scan(
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
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan product: %w", err)
	}

	return &p, nil
}

// GetByIDs retrieves products for the given IDs, keyed by ID. Missing IDs
// are simply absent from the result.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*domain.Product, error) {
	if len(ids) == 0 {
		return map[string]*domain.Product{}, nil
	}

	query := fmt.Sprintf(`SELECT %s FROM products WHERE id = ANY($1)`, productColumns)

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("query products by ids: %w", err)
	}
	defer rows.Close()

	products := make(map[string]*domain.Product, len(ids))
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(
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
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products[p.ID] = &p
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}

	return products, nil
}

// List returns active products matching the filter with the total count.
func (r *ProductRepository) List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, int, error) {
	conditions := []string{"active = TRUE"}
	var args []any
	argIndex := 1

	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("type = $%d", argIndex))
		args = append(args, filter.Type)
		argIndex++
	}

	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argIndex))
		args = append(args, filter.Category)
		argIndex++
	}

	if filter.Platform != "" {
		conditions = append(conditions, fmt.Sprintf("platform = $%d", argIndex))
		args = append(args, filter.Platform)
		argIndex++
	}

	if filter.PriceRange != "" {
		min, max, err := parsePriceRange(filter.PriceRange)
		if err != nil {
			return nil, 0, err
		}
		conditions = append(conditions, fmt.Sprintf("price >= $%d", argIndex))
		args = append(args, min)
		argIndex++
		if max != nil {
			conditions = append(conditions, fmt.Sprintf("price <= $%d", argIndex))
			args = append(args, *max)
			argIndex++
		}
	}

	query := fmt.Sprintf(`
		SELECT %s, count(*) OVER() AS total_count
		FROM products
		WHERE %s
		ORDER BY %s
		LIMIT $%d OFFSET $%d`,
		productColumns,
		strings.Join(conditions, " AND "),
		orderClause(filter.SortBy),
		argIndex, argIndex+1,
	)

	limit := filter.PageSize
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if filter.Page > 1 {
		offset = (filter.Page - 1) * limit
	}

	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var totalCount int
	products := make([]domain.Product, 0)

	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(
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
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate product rows: %w", err)
	}

	return products, totalCount, nil
}

func orderClause(sortBy domain.ProductSort) string {
	switch sortBy {
	case domain.SortByPriceLow:
		return "price ASC"
	case domain.SortByPriceHigh:
		return "price DESC"
	case domain.SortByCategory:
		return "category ASC, name ASC"
	default:
		return "name ASC"
	}
}

// parsePriceRange turns a "min-max" or "min+" range into bounds.
func parsePriceRange(priceRange string) (decimal.Decimal, *decimal.Decimal, error) {
	if open, ok := strings.CutSuffix(priceRange, "+"); ok {
		min, err := decimal.NewFromString(open)
		if err != nil {
			return decimal.Zero, nil, apperrors.InvalidInput("invalid price range")
		}
		return min, nil, nil
	}

	parts := strings.SplitN(priceRange, "-", 2)
	if len(parts) != 2 {
		return decimal.Zero, nil, apperrors.InvalidInput("invalid price range")
	}

	min, err := decimal.NewFromString(parts[0])
	if err != nil {
		return decimal.Zero, nil, apperrors.InvalidInput("invalid price range")
	}
	max, err := decimal.NewFromString(parts[1])
	if err != nil {
		return decimal.Zero, nil, apperrors.InvalidInput("invalid price range")
	}

	return min, &max, nil
}
