package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bitforgehq/storefront/internal/domain"
	"github.com/bitforgehq/storefront/internal/event"
	"github.com/bitforgehq/storefront/internal/gateway"
	apperrors "github.com/bitforgehq/storefront/pkg/errors"
	pkgkafka "github.com/bitforgehq/storefront/pkg/kafka"
)

// --- Mocks ---

type mockOrderRepository struct {
	mock.Mock
}

func (m *mockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *mockOrderRepository) GetForUser(ctx context.Context, id, userID string) (*domain.Order, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepository) ListForUser(ctx context.Context, userID string, page, perPage int) ([]domain.Order, int, error) {
	args := m.Called(ctx, userID, page, perPage)
	return args.Get(0).([]domain.Order), args.Int(1), args.Error(2)
}

func (m *mockOrderRepository) FinalizeFromPending(ctx context.Context, id string, status domain.OrderStatus, paymentStatus domain.PaymentStatus) (bool, error) {
	args := m.Called(ctx, id, status, paymentStatus)
	return args.Bool(0), args.Error(1)
}

type mockCartRepository struct {
	mock.Mock
}

func (m *mockCartRepository) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Cart), args.Error(1)
}

func (m *mockCartRepository) Put(ctx context.Context, cart *domain.Cart) error {
	args := m.Called(ctx, cart)
	return args.Error(0)
}

func (m *mockCartRepository) Clear(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) Name() string { return "mock" }

func (m *mockGateway) CreateIntent(ctx context.Context, input *gateway.CreateIntentInput) (*gateway.Intent, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Intent), args.Error(1)
}

func (m *mockGateway) GetIntentStatus(ctx context.Context, intentID string) (gateway.IntentStatus, error) {
	args := m.Called(ctx, intentID)
	return args.Get(0).(gateway.IntentStatus), args.Error(1)
}

func (m *mockGateway) CancelIntent(ctx context.Context, intentID string) error {
	args := m.Called(ctx, intentID)
	return args.Error(0)
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, string, string, pkgkafka.Event) error { return nil }

// --- Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newCheckoutService(orders *mockOrderRepository, carts *mockCartRepository, gw *mockGateway) *CheckoutService {
	logger := newTestLogger()
	producer := event.NewProducer(noopPublisher{}, logger)
	return NewCheckoutService(orders, carts, gw, producer, DefaultTaxRate, "USD", logger)
}

func validCheckoutInput() *InitiateCheckoutInput {
	return &InitiateCheckoutInput{
		Lines: []CartLineInput{
			{
				ProductID:   uuid.NewString(),
				ProductName: "Inventory Manager Pro",
				UnitPrice:   decimal.RequireFromString("100.00"),
				Quantity:    2,
			},
		},
		Billing: BillingInput{
			CustomerName:  "Jane Doe",
			CustomerEmail: "jane@example.com",
			Street:        "123 Main St",
			City:          "Springfield",
			State:         "IL",
			PostalCode:    "62704",
			Country:       "US",
			PaymentMethod: "stripe",
		},
	}
}

func pendingOrder(userID, intentID string) *domain.Order {
	return &domain.Order{
		ID:              uuid.NewString(),
		UserID:          userID,
		Status:          domain.OrderStatusPending,
		PaymentStatus:   domain.PaymentStatusPending,
		PaymentIntentID: intentID,
		Subtotal:        decimal.RequireFromString("200.00"),
		Tax:             decimal.RequireFromString("16.00"),
		Total:           decimal.RequireFromString("216.00"),
		Currency:        "USD",
	}
}

// --- InitiateCheckout ---

func TestInitiateCheckout_Success(t *testing.T) {
	orders := new(mockOrderRepository)
	carts := new(mockCartRepository)
	gw := new(mockGateway)
	svc := newCheckoutService(orders, carts, gw)
	ctx := context.Background()

	gw.On("CreateIntent", ctx, mock.AnythingOfType("*gateway.CreateIntentInput")).
		Return(&gateway.Intent{
			ID:           "pi_123",
			ClientSecret: "pi_123_secret",
			Status:       gateway.IntentRequiresAction,
		}, nil)
	orders.On("Create", ctx, mock.AnythingOfType("*domain.Order")).Return(nil)

	result, err := svc.InitiateCheckout(ctx, "user-1", validCheckoutInput())

	require.NoError(t, err)
	assert.NotEmpty(t, result.OrderID)
	assert.Equal(t, "pi_123", result.PaymentIntentID)
	assert.Equal(t, "pi_123_secret", result.ClientSecret)

	// 100.00 x 2 = 200.00 subtotal, 8% tax = 16.00, total 216.00.
	createdOrder := orders.Calls[0].Arguments.Get(1).(*domain.Order)
	assert.True(t, createdOrder.Subtotal.Equal(decimal.RequireFromString("200.00")))
	assert.True(t, createdOrder.Tax.Equal(decimal.RequireFromString("16.00")))
	assert.True(t, createdOrder.Total.Equal(decimal.RequireFromString("216.00")))
	assert.Equal(t, domain.OrderStatusPending, createdOrder.Status)
	assert.Equal(t, domain.PaymentStatusPending, createdOrder.PaymentStatus)
	assert.Len(t, createdOrder.Items, 1)
	assert.Equal(t, 2, createdOrder.Items[0].Quantity)

	// The intent amount is in minor units.
	intentInput := gw.Calls[0].Arguments.Get(1).(*gateway.CreateIntentInput)
	assert.Equal(t, int64(21600), intentInput.Amount)
	assert.Equal(t, "user-1", intentInput.Metadata["user_id"])
	assert.Equal(t, "jane@example.com", intentInput.Metadata["customer_email"])

	orders.AssertExpectations(t)
	gw.AssertExpectations(t)
}

func TestInitiateCheckout_EmptyCart(t *testing.T) {
	orders := new(mockOrderRepository)
	carts := new(mockCartRepository)
	gw := new(mockGateway)
	svc := newCheckoutService(orders, carts, gw)

	input := validCheckoutInput()
	input.Lines = nil

	_, err := svc.InitiateCheckout(context.Background(), "user-1", input)

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	gw.AssertNotCalled(t, "CreateIntent")
	orders.AssertNotCalled(t, "Create")
}

func TestInitiateCheckout_SubCentPriceRejected(t *testing.T) {
	orders := new(mockOrderRepository)
	carts := new(mockCartRepository)
	gw := new(mockGateway)
	svc := newCheckoutService(orders, carts, gw)

	// 10.005 * 1.08 = 10.8054: the minor-unit gateway amount would truncate
	// to 1080 while the stored two-decimal total rounds to 10.81.
	input := validCheckoutInput()
	input.Lines[0].UnitPrice = decimal.RequireFromString("10.005")

	_, err := svc.InitiateCheckout(context.Background(), "user-1", input)

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Contains(t, err.Error(), "2 decimal places")
	gw.AssertNotCalled(t, "CreateIntent")
	orders.AssertNotCalled(t, "Create")
}

func TestInitiateCheckout_Unauthenticated(t *testing.T) {
	svc := newCheckoutService(new(mockOrderRepository), new(mockCartRepository), new(mockGateway))

	_, err := svc.InitiateCheckout(context.Background(), "", validCheckoutInput())

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestInitiateCheckout_GatewayDown(t *testing.T) {
	orders := new(mockOrderRepository)
	carts := new(mockCartRepository)
	gw := new(mockGateway)
	svc := newCheckoutService(orders, carts, gw)
	ctx := context.Background()

	gw.On("CreateIntent", ctx, mock.AnythingOfType("*gateway.CreateIntentInput")).
		Return(nil, apperrors.GatewayUnavailable("payment processor unreachable"))

	_, err := svc.InitiateCheckout(ctx, "user-1", validCheckoutInput())

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrGatewayUnavail)
	orders.AssertNotCalled(t, "Create")
}

func TestInitiateCheckout_OrderWriteFails_CancelsIntent(t *testing.T) {
	orders := new(mockOrderRepository)
	carts := new(mockCartRepository)
	gw := new(mockGateway)
	svc := newCheckoutService(orders, carts, gw)
	ctx := context.Background()

	gw.On("CreateIntent", ctx, mock.AnythingOfType("*gateway.CreateIntentInput")).
		Return(&gateway.Intent{ID: "pi_456", ClientSecret: "pi_456_secret"}, nil)
	orders.On("Create", ctx, mock.AnythingOfType("*domain.Order")).
		Return(errors.New("connection reset"))
	gw.On("CancelIntent", ctx, "pi_456").Return(nil)

	_, err := svc.InitiateCheckout(ctx, "user-1", validCheckoutInput())

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrCheckoutFailed)
	gw.AssertCalled(t, "CancelIntent", ctx, "pi_456")
}

// --- ConfirmPayment ---

func TestConfirmPayment_Success(t *testing.T) {
	orders := new(mockOrderRepository)
	carts := new(mockCartRepository)
	gw := new(mockGateway)
	svc := newCheckoutService(orders, carts, gw)
	ctx := context.Background()

	order := pendingOrder("user-1", "pi_123")

	orders.On("GetForUser", ctx, order.ID, "user-1").Return(order, nil)
	gw.On("GetIntentStatus", ctx, "pi_123").Return(gateway.IntentSucceeded, nil)
	orders.On("FinalizeFromPending", ctx, order.ID, domain.OrderStatusCompleted, domain.PaymentStatusPaid).
		Return(true, nil)
	carts.On("Clear", ctx, "user-1").Return(nil)

	result, err := svc.ConfirmPayment(ctx, "user-1", &ConfirmPaymentInput{
		PaymentIntentID: "pi_123",
		OrderID:         order.ID,
	})

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, domain.OrderStatusCompleted, result.Order.Status)
	assert.Equal(t, domain.PaymentStatusPaid, result.Order.PaymentStatus)
	carts.AssertCalled(t, "Clear", ctx, "user-1")
}

func TestConfirmPayment_GatewayReportsFailure(t *testing.T) {
	orders := new(mockOrderRepository)
	carts := new(mockCartRepository)
	gw := new(mockGateway)
	svc := newCheckoutService(orders, carts, gw)
	ctx := context.Background()

	order := pendingOrder("user-1", "pi_123")

	orders.On("GetForUser", ctx, order.ID, "user-1").Return(order, nil)
	gw.On("GetIntentStatus", ctx, "pi_123").Return(gateway.IntentFailed, nil)
	orders.On("FinalizeFromPending", ctx, order.ID, domain.OrderStatusCancelled, domain.PaymentStatusFailed).
		Return(true, nil)

	result, err := svc.ConfirmPayment(ctx, "user-1", &ConfirmPaymentInput{
		PaymentIntentID: "pi_123",
		OrderID:         order.ID,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrPaymentFailed)
	assert.False(t, result.Success)
	assert.Equal(t, domain.OrderStatusCancelled, result.Order.Status)
	assert.Equal(t, domain.PaymentStatusFailed, result.Order.PaymentStatus)
	carts.AssertNotCalled(t, "Clear")
}

func TestConfirmPayment_IdempotentAfterSuccess(t *testing.T) {
	orders := new(mockOrderRepository)
	carts := new(mockCartRepository)
	gw := new(mockGateway)
	svc := newCheckoutService(orders, carts, gw)
	ctx := context.Background()

	order := pendingOrder("user-1", "pi_123")
	order.Status = domain.OrderStatusCompleted
	order.PaymentStatus = domain.PaymentStatusPaid

	orders.On("GetForUser", ctx, order.ID, "user-1").Return(order, nil)

	result, err := svc.ConfirmPayment(ctx, "user-1", &ConfirmPaymentInput{
		PaymentIntentID: "pi_123",
		OrderID:         order.ID,
	})

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, domain.OrderStatusCompleted, result.Order.Status)

	// A terminal order never touches the gateway or the cart again.
	gw.AssertNotCalled(t, "GetIntentStatus")
	carts.AssertNotCalled(t, "Clear")
	orders.AssertNotCalled(t, "FinalizeFromPending")
}

func TestConfirmPayment_IdempotentAfterFailure(t *testing.T) {
	orders := new(mockOrderRepository)
	carts := new(mockCartRepository)
	gw := new(mockGateway)
	svc := newCheckoutService(orders, carts, gw)
	ctx := context.Background()

	order := pendingOrder("user-1", "pi_123")
	order.Status = domain.OrderStatusCancelled
	order.PaymentStatus = domain.PaymentStatusFailed

	orders.On("GetForUser", ctx, order.ID, "user-1").Return(order, nil)

	result, err := svc.ConfirmPayment(ctx, "user-1", &ConfirmPaymentInput{
		PaymentIntentID: "pi_123",
		OrderID:         order.ID,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrPaymentFailed)
	assert.False(t, result.Success)
	assert.Equal(t, domain.OrderStatusCancelled, result.Order.Status)
	gw.AssertNotCalled(t, "GetIntentStatus")
}

func TestConfirmPayment_LostRace_ReturnsWinnerState(t *testing.T) {
	orders := new(mockOrderRepository)
	carts := new(mockCartRepository)
	gw := new(mockGateway)
	svc := newCheckoutService(orders, carts, gw)
	ctx := context.Background()

	order := pendingOrder("user-1", "pi_123")

	terminal := *order
	terminal.Status = domain.OrderStatusCompleted
	terminal.PaymentStatus = domain.PaymentStatusPaid

	orders.On("GetForUser", ctx, order.ID, "user-1").Return(order, nil).Once()
	gw.On("GetIntentStatus", ctx, "pi_123").Return(gateway.IntentSucceeded, nil)
	// Another confirmation won the compare-and-set.
	orders.On("FinalizeFromPending", ctx, order.ID, domain.OrderStatusCompleted, domain.PaymentStatusPaid).
		Return(false, nil)
	orders.On("GetForUser", ctx, order.ID, "user-1").Return(&terminal, nil).Once()

	result, err := svc.ConfirmPayment(ctx, "user-1", &ConfirmPaymentInput{
		PaymentIntentID: "pi_123",
		OrderID:         order.ID,
	})

	require.NoError(t, err)
	assert.True(t, result.Success)
	// The loser performs no side effects of its own.
	carts.AssertNotCalled(t, "Clear")
}

func TestConfirmPayment_OrderNotOwned(t *testing.T) {
	orders := new(mockOrderRepository)
	carts := new(mockCartRepository)
	gw := new(mockGateway)
	svc := newCheckoutService(orders, carts, gw)
	ctx := context.Background()

	orders.On("GetForUser", ctx, "order-1", "user-2").Return(nil, apperrors.ErrNotFound)

	_, err := svc.ConfirmPayment(ctx, "user-2", &ConfirmPaymentInput{
		PaymentIntentID: "pi_123",
		OrderID:         "order-1",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestConfirmPayment_IntentMismatch(t *testing.T) {
	orders := new(mockOrderRepository)
	carts := new(mockCartRepository)
	gw := new(mockGateway)
	svc := newCheckoutService(orders, carts, gw)
	ctx := context.Background()

	order := pendingOrder("user-1", "pi_123")
	orders.On("GetForUser", ctx, order.ID, "user-1").Return(order, nil)

	_, err := svc.ConfirmPayment(ctx, "user-1", &ConfirmPaymentInput{
		PaymentIntentID: "pi_other",
		OrderID:         order.ID,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	gw.AssertNotCalled(t, "GetIntentStatus")
}

func TestConfirmPayment_MissingIdentifiers(t *testing.T) {
	svc := newCheckoutService(new(mockOrderRepository), new(mockCartRepository), new(mockGateway))

	_, err := svc.ConfirmPayment(context.Background(), "user-1", &ConfirmPaymentInput{})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}
