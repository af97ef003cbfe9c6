package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitforgehq/storefront/internal/domain"
	"github.com/bitforgehq/storefront/pkg/database"
	apperrors "github.com/bitforgehq/storefront/pkg/errors"
)

// --- Test Helpers ---

func newOrderRepo(t *testing.T) (*OrderRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	return NewOrderRepository(mock), mock
}

func sampleOrder() *domain.Order {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Order{
		ID:              "order-001",
		UserID:          "user-001",
		CustomerName:    "Jane Doe",
		CustomerEmail:   "jane@example.com",
		Status:          domain.OrderStatusPending,
		PaymentStatus:   domain.PaymentStatusPending,
		PaymentIntentID: "pi_001",
		PaymentMethod:   "stripe",
		Subtotal:        decimal.RequireFromString("200.00"),
		Tax:             decimal.RequireFromString("16.00"),
		Total:           decimal.RequireFromString("216.00"),
		Currency:        "USD",
		BillingAddress: domain.BillingAddress{
			Street:     "123 Main St",
			City:       "Springfield",
			State:      "IL",
			PostalCode: "62704",
			Country:    "US",
		},
		CreatedAt: now,
		UpdatedAt: now,
		Items: []domain.OrderItem{
			{
				ID:          "item-001",
				OrderID:     "order-001",
				ProductID:   "prod-001",
				ProductName: "Inventory Manager Pro",
				UnitPrice:   decimal.RequireFromString("100.00"),
				Quantity:    2,
			},
		},
	}
}

func expectOrderInsert(mock pgxmock.PgxPoolIface, o *domain.Order) {
	mock.ExpectExec("INSERT INTO orders").
		WithArgs(
			o.ID, o.UserID, o.CustomerName, o.CustomerEmail,
			o.Status, o.PaymentStatus, o.PaymentIntentID, o.PaymentMethod,
			o.Subtotal, o.Tax, o.Total, o.Currency,
			o.BillingAddress.Street, o.BillingAddress.City, o.BillingAddress.State,
			o.BillingAddress.PostalCode, o.BillingAddress.Country,
			o.CreatedAt, o.UpdatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
}

// --- Create ---

func TestOrderRepository_Create_Success(t *testing.T) {
	repo, mock := newOrderRepo(t)

	o := sampleOrder()

	mock.ExpectBegin()
	expectOrderInsert(mock, o)
	for _, item := range o.Items {
		mock.ExpectExec("INSERT INTO order_items").
			WithArgs(item.ID, item.OrderID, item.ProductID, item.ProductName, item.UnitPrice, item.Quantity).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}
	mock.ExpectCommit()

	err := repo.Create(context.Background(), o)
	assert.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_Create_ItemInsertError_RollsBack(t *testing.T) {
	repo, mock := newOrderRepo(t)

	o := sampleOrder()

	mock.ExpectBegin()
	expectOrderInsert(mock, o)
	mock.ExpectExec("INSERT INTO order_items").
		WithArgs(o.Items[0].ID, o.Items[0].OrderID, o.Items[0].ProductID,
			o.Items[0].ProductName, o.Items[0].UnitPrice, o.Items[0].Quantity).
		WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), o)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "insert order item")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_Create_BeginError(t *testing.T) {
	repo, mock := newOrderRepo(t)

	mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

	err := repo.Create(context.Background(), sampleOrder())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "begin transaction")

	assert.NoError(t, mock.ExpectationsWereMet())
}

// --- GetForUser ---

func TestOrderRepository_GetForUser_Success(t *testing.T) {
	repo, mock := newOrderRepo(t)

	o := sampleOrder()
	itemsJSON := []byte(`[{"id":"item-001","order_id":"order-001","product_id":"prod-001","product_name":"Inventory Manager Pro","unit_price":"100","quantity":2}]`)

	rows := pgxmock.NewRows([]string{
		"id", "user_id", "customer_name", "customer_email", "status",
		"payment_status", "payment_intent_id", "payment_method",
		"subtotal", "tax", "total", "currency",
		"billing_street", "billing_city", "billing_state",
		"billing_postal_code", "billing_country",
		"created_at", "updated_at", "items",
	}).AddRow(
		o.ID, o.UserID, o.CustomerName, o.CustomerEmail, o.Status,
		o.PaymentStatus, o.PaymentIntentID, o.PaymentMethod,
		o.Subtotal, o.Tax, o.Total, o.Currency,
		o.BillingAddress.Street, o.BillingAddress.City, o.BillingAddress.State,
		o.BillingAddress.PostalCode, o.BillingAddress.Country,
		o.CreatedAt, o.UpdatedAt, itemsJSON,
	)

	mock.ExpectQuery("SELECT(.|\n)+FROM orders o").
		WithArgs(o.ID, o.UserID).
		WillReturnRows(rows)

	got, err := repo.GetForUser(context.Background(), o.ID, o.UserID)

	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)
	assert.True(t, got.Total.Equal(o.Total))
	require.Len(t, got.Items, 1)
	assert.Equal(t, "prod-001", got.Items[0].ProductID)
	assert.Equal(t, 2, got.Items[0].Quantity)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_GetForUser_WrongOwnerIsNotFound(t *testing.T) {
	repo, mock := newOrderRepo(t)

	mock.ExpectQuery("SELECT(.|\n)+FROM orders o").
		WithArgs("order-001", "other-user").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetForUser(context.Background(), "order-001", "other-user")

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

// --- FinalizeFromPending ---

func TestOrderRepository_FinalizeFromPending_Updates(t *testing.T) {
	repo, mock := newOrderRepo(t)

	mock.ExpectExec("UPDATE orders").
		WithArgs("order-001", domain.OrderStatusCompleted, domain.PaymentStatusPaid, domain.OrderStatusPending).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	updated, err := repo.FinalizeFromPending(context.Background(), "order-001",
		domain.OrderStatusCompleted, domain.PaymentStatusPaid)

	require.NoError(t, err)
	assert.True(t, updated)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_FinalizeFromPending_AlreadyTerminal(t *testing.T) {
	repo, mock := newOrderRepo(t)

	// The compare-and-set matches no rows once a terminal state is set.
	mock.ExpectExec("UPDATE orders").
		WithArgs("order-001", domain.OrderStatusCancelled, domain.PaymentStatusFailed, domain.OrderStatusPending).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	updated, err := repo.FinalizeFromPending(context.Background(), "order-001",
		domain.OrderStatusCancelled, domain.PaymentStatusFailed)

	require.NoError(t, err)
	assert.False(t, updated)

	assert.NoError(t, mock.ExpectationsWereMet())
}
