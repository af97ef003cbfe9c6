package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bitforgehq/storefront/internal/domain"
	"github.com/bitforgehq/storefront/internal/event"
	"github.com/bitforgehq/storefront/internal/gateway"
	"github.com/bitforgehq/storefront/internal/repository"
	apperrors "github.com/bitforgehq/storefront/pkg/errors"
)

// DefaultTaxRate is the fixed sales tax applied to every checkout.
var DefaultTaxRate = decimal.NewFromFloat(0.08)

// CheckoutService turns a client-side cart snapshot into a persisted order
// and a confirmed payment.
type CheckoutService struct {
	orders   repository.OrderRepository
	carts    repository.CartRepository
	gateway  gateway.Gateway
	producer *event.Producer
	taxRate  decimal.Decimal
	currency string
	logger   *slog.Logger
}

// NewCheckoutService creates a new checkout service.
func NewCheckoutService(
	orders repository.OrderRepository,
	carts repository.CartRepository,
	gw gateway.Gateway,
	producer *event.Producer,
	taxRate decimal.Decimal,
	currency string,
	logger *slog.Logger,
) *CheckoutService {
	return &CheckoutService{
		orders:   orders,
		carts:    carts,
		gateway:  gw,
		producer: producer,
		taxRate:  taxRate,
		currency: currency,
		logger:   logger,
	}
}

// CartLineInput is one cart line in the checkout request. The price is the
// client's snapshot from when the line was added.
type CartLineInput struct {
	ProductID   string          `json:"product_id" validate:"required,uuid"`
	ProductName string          `json:"product_name" validate:"required"`
	UnitPrice   decimal.Decimal `json:"unit_price" validate:"required"`
	Quantity    int             `json:"quantity" validate:"required,gt=0"`
}

// BillingInput is the billing form submitted at checkout.
type BillingInput struct {
	CustomerName  string `json:"customer_name" validate:"required"`
	CustomerEmail string `json:"customer_email" validate:"required,email"`
	Street        string `json:"street" validate:"required"`
	City          string `json:"city" validate:"required"`
	State         string `json:"state" validate:"required"`
	PostalCode    string `json:"postal_code" validate:"required"`
	Country       string `json:"country" validate:"required"`
	PaymentMethod string `json:"payment_method" validate:"required,oneof=stripe paypal"`
}

// InitiateCheckoutInput holds the parameters for starting a checkout.
type InitiateCheckoutInput struct {
	Lines   []CartLineInput `json:"items" validate:"required,min=1,dive"`
	Billing BillingInput    `json:"billing" validate:"required"`
}

// CheckoutResult is returned to the client so the browser can confirm the
// charge.
type CheckoutResult struct {
	OrderID         string `json:"order_id"`
	PaymentIntentID string `json:"payment_intent_id"`
	ClientSecret    string `json:"client_secret"`
}

// InitiateCheckout validates the cart snapshot, registers a payment intent
// with the gateway, and persists a pending order whose items snapshot the
// cart lines. The intent is created before the order write; if the write
// fails the intent is cancelled best-effort so no order exists without a
// corresponding intent.
func (s *CheckoutService) InitiateCheckout(ctx context.Context, userID string, input *InitiateCheckoutInput) (*CheckoutResult, error) {
	if userID == "" {
		return nil, apperrors.Unauthorized("authentication required")
	}
	if input == nil || len(input.Lines) == 0 {
		return nil, apperrors.InvalidInput("cart must not be empty")
	}

	for i, line := range input.Lines {
		if line.ProductID == "" {
			return nil, apperrors.InvalidInput(fmt.Sprintf("item %d: product_id is required", i))
		}
		if line.Quantity <= 0 {
			return nil, apperrors.InvalidInput(fmt.Sprintf("item %d: quantity must be greater than 0", i))
		}
		if line.UnitPrice.IsNegative() || line.UnitPrice.IsZero() {
			return nil, apperrors.InvalidInput(fmt.Sprintf("item %d: unit_price must be greater than 0", i))
		}
		// Prices are whole cents. Anything finer would make the minor-unit
		// gateway amount diverge from the stored two-decimal total.
		if !line.UnitPrice.Equal(line.UnitPrice.Round(2)) {
			return nil, apperrors.InvalidInput(fmt.Sprintf("item %d: unit_price must have at most 2 decimal places", i))
		}
	}
	if input.Billing.CustomerName == "" || input.Billing.CustomerEmail == "" {
		return nil, apperrors.InvalidInput("customer name and email are required")
	}

	subtotal := decimal.Zero
	for _, line := range input.Lines {
		subtotal = subtotal.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	tax := subtotal.Mul(s.taxRate).Round(2)
	total := subtotal.Add(tax)

	orderID := uuid.NewString()

	intent, err := s.gateway.CreateIntent(ctx, &gateway.CreateIntentInput{
		Amount:   total.Shift(2).IntPart(),
		Currency: s.currency,
		Metadata: map[string]string{
			"order_id":       orderID,
			"user_id":        userID,
			"customer_email": input.Billing.CustomerEmail,
		},
	})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	order := &domain.Order{
		ID:              orderID,
		UserID:          userID,
		CustomerName:    input.Billing.CustomerName,
		CustomerEmail:   input.Billing.CustomerEmail,
		Status:          domain.OrderStatusPending,
		PaymentStatus:   domain.PaymentStatusPending,
		PaymentIntentID: intent.ID,
		PaymentMethod:   input.Billing.PaymentMethod,
		Subtotal:        subtotal,
		Tax:             tax,
		Total:           total,
		Currency:        s.currency,
		BillingAddress: domain.BillingAddress{
			Street:     input.Billing.Street,
			City:       input.Billing.City,
			State:      input.Billing.State,
			PostalCode: input.Billing.PostalCode,
			Country:    input.Billing.Country,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, line := range input.Lines {
		order.Items = append(order.Items, domain.OrderItem{
			ID:          uuid.NewString(),
			OrderID:     orderID,
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			UnitPrice:   line.UnitPrice,
			Quantity:    line.Quantity,
		})
	}

	if err := s.orders.Create(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "order write failed, cancelling intent",
			slog.String("order_id", orderID),
			slog.String("intent_id", intent.ID),
			slog.String("error", err.Error()),
		)
		if cancelErr := s.gateway.CancelIntent(ctx, intent.ID); cancelErr != nil {
			s.logger.WarnContext(ctx, "failed to cancel orphaned intent",
				slog.String("intent_id", intent.ID),
				slog.String("error", cancelErr.Error()),
			)
		}
		return nil, apperrors.CheckoutFailed(err)
	}

	s.producer.OrderCreated(ctx, order)

	s.logger.InfoContext(ctx, "checkout initiated",
		slog.String("order_id", orderID),
		slog.String("user_id", userID),
		slog.String("total", total.StringFixed(2)),
	)

	return &CheckoutResult{
		OrderID:         orderID,
		PaymentIntentID: intent.ID,
		ClientSecret:    intent.ClientSecret,
	}, nil
}

// ConfirmPaymentInput holds the parameters for confirming a payment.
type ConfirmPaymentInput struct {
	PaymentIntentID string `json:"payment_intent_id" validate:"required"`
	OrderID         string `json:"order_id" validate:"required"`
}

// ConfirmPaymentResult reports the order's resolved state.
type ConfirmPaymentResult struct {
	Success bool          `json:"success"`
	Order   *domain.Order `json:"order"`
}

// ConfirmPayment re-queries the gateway for the authoritative intent status
// and moves the order to its terminal state. The transition is a
// compare-and-set from pending, so duplicate and concurrent confirmations
// re-read the stored outcome instead of mutating twice. A successful payment
// also clears the user's persisted cart.
func (s *CheckoutService) ConfirmPayment(ctx context.Context, userID string, input *ConfirmPaymentInput) (*ConfirmPaymentResult, error) {
	if userID == "" {
		return nil, apperrors.Unauthorized("authentication required")
	}
	if input == nil || input.PaymentIntentID == "" || input.OrderID == "" {
		return nil, apperrors.InvalidInput("payment_intent_id and order_id are required")
	}

	order, err := s.orders.GetForUser(ctx, input.OrderID, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("order", input.OrderID)
		}
		return nil, err
	}
	if order.PaymentIntentID != input.PaymentIntentID {
		return nil, apperrors.NotFound("order", input.OrderID)
	}

	// Already terminal: return the stored outcome without touching the
	// gateway or the cart again.
	if order.Status.IsTerminal() {
		return s.terminalResult(order)
	}

	status, err := s.gateway.GetIntentStatus(ctx, input.PaymentIntentID)
	if err != nil {
		return nil, err
	}

	if status == gateway.IntentSucceeded {
		return s.finalize(ctx, order, status, domain.OrderStatusCompleted, domain.PaymentStatusPaid)
	}
	return s.finalize(ctx, order, status, domain.OrderStatusCancelled, domain.PaymentStatusFailed)
}

func (s *CheckoutService) finalize(ctx context.Context, order *domain.Order, intentStatus gateway.IntentStatus, status domain.OrderStatus, paymentStatus domain.PaymentStatus) (*ConfirmPaymentResult, error) {
	updated, err := s.orders.FinalizeFromPending(ctx, order.ID, status, paymentStatus)
	if err != nil {
		return nil, err
	}

	if !updated {
		// Lost the race: re-read the winner's terminal state.
		fresh, err := s.orders.GetForUser(ctx, order.ID, order.UserID)
		if err != nil {
			return nil, err
		}
		return s.terminalResult(fresh)
	}

	order.Status = status
	order.PaymentStatus = paymentStatus

	if status == domain.OrderStatusCompleted {
		if err := s.carts.Clear(ctx, order.UserID); err != nil {
			// Cart clearing is best-effort; the mirror expires on its own.
			s.logger.WarnContext(ctx, "failed to clear cart after payment",
				slog.String("user_id", order.UserID),
				slog.String("error", err.Error()),
			)
		}
		s.producer.OrderCompleted(ctx, order)
		s.logger.InfoContext(ctx, "payment confirmed",
			slog.String("order_id", order.ID),
			slog.String("intent_id", order.PaymentIntentID),
		)
		return &ConfirmPaymentResult{Success: true, Order: order}, nil
	}

	s.producer.OrderPaymentFailed(ctx, order)
	s.logger.InfoContext(ctx, "payment failed",
		slog.String("order_id", order.ID),
		slog.String("intent_id", order.PaymentIntentID),
	)
	return &ConfirmPaymentResult{Success: false, Order: order},
		apperrors.PaymentFailed(fmt.Sprintf("payment intent status: %s", intentStatus))
}

func (s *CheckoutService) terminalResult(order *domain.Order) (*ConfirmPaymentResult, error) {
	if order.Status == domain.OrderStatusCompleted {
		return &ConfirmPaymentResult{Success: true, Order: order}, nil
	}
	return &ConfirmPaymentResult{Success: false, Order: order},
		apperrors.PaymentFailed(fmt.Sprintf("payment intent status: %s", order.PaymentStatus))
}
