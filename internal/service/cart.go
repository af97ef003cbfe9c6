package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bitforgehq/storefront/internal/domain"
	"github.com/bitforgehq/storefront/internal/repository"
	apperrors "github.com/bitforgehq/storefront/pkg/errors"
)

// CartService maintains the server-side cart mirror. The client remains the
// working copy; the mirror lets a confirmed payment clear the cart and lets
// a returning session restore it.
type CartService struct {
	carts    repository.CartRepository
	products repository.ProductRepository
	logger   *slog.Logger
}

// NewCartService creates a new cart service.
func NewCartService(carts repository.CartRepository, products repository.ProductRepository, logger *slog.Logger) *CartService {
	return &CartService{carts: carts, products: products, logger: logger}
}

// GetCart returns the user's cart mirror, empty when none is stored.
func (s *CartService) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	if userID == "" {
		return nil, apperrors.Unauthorized("authentication required")
	}
	return s.carts.Get(ctx, userID)
}

// SyncCartInput is the client's full cart snapshot.
type SyncCartInput struct {
	Lines []CartLineInput `json:"items" validate:"dive"`
}

// SyncCart replaces the mirror with the client's snapshot. Prices are
// re-read from the catalog so a stale client snapshot cannot pin an old
// price into the mirror.
func (s *CartService) SyncCart(ctx context.Context, userID string, input *SyncCartInput) (*domain.Cart, error) {
	if userID == "" {
		return nil, apperrors.Unauthorized("authentication required")
	}
	if input == nil {
		return nil, apperrors.InvalidInput("cart payload is required")
	}

	ids := make([]string, 0, len(input.Lines))
	for i, line := range input.Lines {
		if line.ProductID == "" {
			return nil, apperrors.InvalidInput(fmt.Sprintf("item %d: product_id is required", i))
		}
		if line.Quantity <= 0 {
			return nil, apperrors.InvalidInput(fmt.Sprintf("item %d: quantity must be greater than 0", i))
		}
		ids = append(ids, line.ProductID)
	}

	products, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	cart := &domain.Cart{
		UserID:    userID,
		Lines:     make([]domain.CartLine, 0, len(input.Lines)),
		UpdatedAt: time.Now().UTC(),
	}
	for _, line := range input.Lines {
		product, ok := products[line.ProductID]
		if !ok {
			return nil, apperrors.NotFound("product", line.ProductID)
		}
		cart.Lines = append(cart.Lines, domain.CartLine{
			ProductID:   product.ID,
			ProductName: product.Name,
			UnitPrice:   product.Price,
			Quantity:    line.Quantity,
		})
	}

	if err := s.carts.Put(ctx, cart); err != nil {
		return nil, err
	}

	return cart, nil
}

// ClearCart removes the user's cart mirror.
func (s *CartService) ClearCart(ctx context.Context, userID string) error {
	if userID == "" {
		return apperrors.Unauthorized("authentication required")
	}
	return s.carts.Clear(ctx, userID)
}
