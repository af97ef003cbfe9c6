package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/bitforgehq/storefront/internal/domain"
	"github.com/bitforgehq/storefront/internal/repository"
	apperrors "github.com/bitforgehq/storefront/pkg/errors"
)

// WishlistService maintains each user's set of favorited products.
type WishlistService struct {
	wishlists repository.WishlistRepository
	products  repository.ProductRepository
	logger    *slog.Logger
}

// NewWishlistService creates a new wishlist service.
func NewWishlistService(wishlists repository.WishlistRepository, products repository.ProductRepository, logger *slog.Logger) *WishlistService {
	return &WishlistService{wishlists: wishlists, products: products, logger: logger}
}

// Add favorites a product for the user. Adding a product that is already
// favorited is a no-op, not an error.
func (s *WishlistService) Add(ctx context.Context, userID, productID string) error {
	if userID == "" {
		return apperrors.Unauthorized("authentication required")
	}
	if productID == "" {
		return apperrors.InvalidInput("product id is required")
	}

	if _, err := s.products.GetByID(ctx, productID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NotFound("product", productID)
		}
		return err
	}

	return s.wishlists.Add(ctx, userID, productID)
}

// Remove unfavorites a product, reporting not found when it was never
// favorited.
func (s *WishlistService) Remove(ctx context.Context, userID, productID string) error {
	if userID == "" {
		return apperrors.Unauthorized("authentication required")
	}
	if productID == "" {
		return apperrors.InvalidInput("product id is required")
	}

	if err := s.wishlists.Remove(ctx, userID, productID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NotFound("wishlist item", productID)
		}
		return err
	}

	return nil
}

// List returns the user's wishlist joined with product details. A user who
// never favorited anything gets an empty collection.
func (s *WishlistService) List(ctx context.Context, userID string) ([]domain.WishlistItem, error) {
	if userID == "" {
		return nil, apperrors.Unauthorized("authentication required")
	}
	return s.wishlists.ListForUser(ctx, userID)
}
