package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/bitforgehq/storefront/internal/domain"
	"github.com/bitforgehq/storefront/internal/repository"
	apperrors "github.com/bitforgehq/storefront/pkg/errors"
)

// OrderService exposes the order ledger to the API, scoped to the owning
// user.
type OrderService struct {
	orders repository.OrderRepository
	logger *slog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(orders repository.OrderRepository, logger *slog.Logger) *OrderService {
	return &OrderService{orders: orders, logger: logger}
}

// GetOrder returns the order only when the requesting user owns it. An
// order owned by someone else is reported as not found, never forbidden.
func (s *OrderService) GetOrder(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	if userID == "" {
		return nil, apperrors.Unauthorized("authentication required")
	}
	if orderID == "" {
		return nil, apperrors.InvalidInput("order id is required")
	}

	order, err := s.orders.GetForUser(ctx, orderID, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("order", orderID)
		}
		return nil, err
	}

	return order, nil
}

// ListOrders returns the user's orders, most recent first.
func (s *OrderService) ListOrders(ctx context.Context, userID string, page, perPage int) ([]domain.Order, int, error) {
	if userID == "" {
		return nil, 0, apperrors.Unauthorized("authentication required")
	}

	orders, total, err := s.orders.ListForUser(ctx, userID, page, perPage)
	if err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}
