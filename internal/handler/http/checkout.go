package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/bitforgehq/storefront/internal/service"
	apperrors "github.com/bitforgehq/storefront/pkg/errors"
	"github.com/bitforgehq/storefront/pkg/httputil"
	"github.com/bitforgehq/storefront/pkg/middleware"
	"github.com/bitforgehq/storefront/pkg/validator"
)

// CheckoutHandler handles HTTP requests for the checkout flow.
type CheckoutHandler struct {
	service *service.CheckoutService
	logger  *slog.Logger
}

// NewCheckoutHandler creates a new checkout HTTP handler.
func NewCheckoutHandler(svc *service.CheckoutService, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// CheckoutItemRequest is one cart line in the checkout request body.
type CheckoutItemRequest struct {
	ProductID   string          `json:"product_id" validate:"required,uuid"`
	ProductName string          `json:"product_name" validate:"required"`
	UnitPrice   decimal.Decimal `json:"unit_price" validate:"required"`
	Quantity    int             `json:"quantity" validate:"required,gte=1"`
}

// BillingRequest is the billing form in the checkout request body.
type BillingRequest struct {
	CustomerName  string `json:"customer_name" validate:"required"`
	CustomerEmail string `json:"customer_email" validate:"required,email"`
	Street        string `json:"street" validate:"required"`
	City          string `json:"city" validate:"required"`
	State         string `json:"state" validate:"required"`
	PostalCode    string `json:"postal_code" validate:"required"`
	Country       string `json:"country" validate:"required"`
	PaymentMethod string `json:"payment_method" validate:"required,oneof=stripe paypal"`
}

// CheckoutRequest is the JSON request body for initiating a checkout.
type CheckoutRequest struct {
	Items   []CheckoutItemRequest `json:"items" validate:"required,min=1,dive"`
	Billing BillingRequest        `json:"billing" validate:"required"`
}

// ConfirmPaymentRequest is the JSON request body for confirming a payment.
type ConfirmPaymentRequest struct {
	PaymentIntentID string `json:"payment_intent_id" validate:"required"`
	OrderID         string `json:"order_id" validate:"required,uuid"`
}

// --- Handlers ---

// Checkout handles POST /api/v1/checkout
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	input := &service.InitiateCheckoutInput{
		Billing: service.BillingInput{
			CustomerName:  req.Billing.CustomerName,
			CustomerEmail: req.Billing.CustomerEmail,
			Street:        req.Billing.Street,
			City:          req.Billing.City,
			State:         req.Billing.State,
			PostalCode:    req.Billing.PostalCode,
			Country:       req.Billing.Country,
			PaymentMethod: req.Billing.PaymentMethod,
		},
	}
	for _, item := range req.Items {
		input.Lines = append(input.Lines, service.CartLineInput{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
		})
	}

	userID := middleware.UserIDFromContext(r.Context())

	result, err := h.service.InitiateCheckout(r.Context(), userID, input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: result})
}

// ConfirmPayment handles POST /api/v1/payments/confirm
func (h *CheckoutHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req ConfirmPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	userID := middleware.UserIDFromContext(r.Context())

	result, err := h.service.ConfirmPayment(r.Context(), userID, &service.ConfirmPaymentInput{
		PaymentIntentID: req.PaymentIntentID,
		OrderID:         req.OrderID,
	})
	if err != nil {
		// A declined charge still reports the order's resolved state.
		if result != nil {
			message := "payment failed"
			var appErr *apperrors.AppError
			if errors.As(err, &appErr) {
				message = appErr.Message
			}
			httputil.WriteJSON(w, http.StatusUnprocessableEntity, httputil.Response{
				Data: result,
				Error: &httputil.ErrorResponse{
					Code:    "PAYMENT_FAILED",
					Message: message,
				},
			})
			return
		}
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}
