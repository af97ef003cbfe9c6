package event

import (
	"context"
	"log/slog"

	"github.com/bitforgehq/storefront/internal/domain"
	"github.com/bitforgehq/storefront/pkg/kafka"
)

const (
	TopicOrders    = "storefront.orders"
	TopicInquiries = "storefront.inquiries"

	TypeOrderCreated       = "order.created"
	TypeOrderCompleted     = "order.completed"
	TypeOrderPaymentFailed = "order.payment_failed"
	TypeInquiryReceived    = "inquiry.received"

	source = "storefront"
)

// Publisher abstracts the Kafka producer for testing.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, event kafka.Event) error
}

// Producer emits domain events. Publish failures are logged and swallowed;
// events are best-effort and never fail the operation that produced them.
type Producer struct {
	publisher Publisher
	logger    *slog.Logger
}

// NewProducer creates a domain event producer.
func NewProducer(publisher Publisher, logger *slog.Logger) *Producer {
	return &Producer{publisher: publisher, logger: logger}
}

type orderPayload struct {
	OrderID       string `json:"order_id"`
	UserID        string `json:"user_id"`
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
	Total         string `json:"total"`
	Currency      string `json:"currency"`
}

// OrderCreated emits an event for a newly persisted pending order.
func (p *Producer) OrderCreated(ctx context.Context, o *domain.Order) {
	p.publishOrder(ctx, TypeOrderCreated, o)
}

// OrderCompleted emits an event for an order that reached completed/paid.
func (p *Producer) OrderCompleted(ctx context.Context, o *domain.Order) {
	p.publishOrder(ctx, TypeOrderCompleted, o)
}

// OrderPaymentFailed emits an event for an order that reached
// cancelled/failed.
func (p *Producer) OrderPaymentFailed(ctx context.Context, o *domain.Order) {
	p.publishOrder(ctx, TypeOrderPaymentFailed, o)
}

func (p *Producer) publishOrder(ctx context.Context, eventType string, o *domain.Order) {
	evt := kafka.NewEvent(eventType, source, orderPayload{
		OrderID:       o.ID,
		UserID:        o.UserID,
		Status:        string(o.Status),
		PaymentStatus: string(o.PaymentStatus),
		Total:         o.Total.StringFixed(2),
		Currency:      o.Currency,
	})

	if err := p.publisher.Publish(ctx, TopicOrders, o.ID, evt); err != nil {
		p.logger.ErrorContext(ctx, "failed to publish order event",
			slog.String("event_type", eventType),
			slog.String("order_id", o.ID),
			slog.String("error", err.Error()),
		)
	}
}

type inquiryPayload struct {
	InquiryID string `json:"inquiry_id"`
	Kind      string `json:"kind"`
	Email     string `json:"email"`
}

// InquiryReceived emits an event for a stored lead-generation inquiry.
func (p *Producer) InquiryReceived(ctx context.Context, inquiry *domain.Inquiry) {
	evt := kafka.NewEvent(TypeInquiryReceived, source, inquiryPayload{
		InquiryID: inquiry.ID,
		Kind:      string(inquiry.Kind),
		Email:     inquiry.Email,
	})

	if err := p.publisher.Publish(ctx, TopicInquiries, inquiry.ID, evt); err != nil {
		p.logger.ErrorContext(ctx, "failed to publish inquiry event",
			slog.String("inquiry_id", inquiry.ID),
			slog.String("error", err.Error()),
		)
	}
}
