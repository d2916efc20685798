package event

import (
	"context"
	"log/slog"
	"time"

	"github.com/voltmart/storefront/pkg/kafka"
	"github.com/voltmart/storefront/pkg/logger"
)

const (
	TopicCartSynced  = "storefront.cart.synced"
	TopicOrderPlaced = "storefront.order.placed"

	source = "storefront"
)

// Producer is the subset of the kafka producer the publisher uses.
type Producer interface {
	Publish(ctx context.Context, topic string, event *kafka.Event) error
}

// CartSynced is the payload emitted after a mirror replacement.
type CartSynced struct {
	UserID    string    `json:"user_id"`
	LineCount int       `json:"line_count"`
	Total     int64     `json:"total"`
	SyncedAt  time.Time `json:"synced_at"`
}

// OrderPlaced is the payload emitted after a successful hand-off.
type OrderPlaced struct {
	UserID        string    `json:"user_id"`
	OrderRef      string    `json:"order_ref"`
	Total         int64     `json:"total"`
	PaymentMethod string    `json:"payment_method"`
	PlacedAt      time.Time `json:"placed_at"`
}

// Publisher emits storefront analytics events. Publishing is best effort:
// a broker failure is logged and swallowed, it never fails the user
// operation that triggered it.
type Publisher struct {
	producer Producer
	logger   *slog.Logger
}

func NewPublisher(producer Producer, log *slog.Logger) *Publisher {
	return &Publisher{producer: producer, logger: log}
}

func (p *Publisher) CartSynced(ctx context.Context, payload CartSynced) {
	p.publish(ctx, TopicCartSynced, "cart.synced", payload.UserID, "cart", payload)
}

func (p *Publisher) OrderPlaced(ctx context.Context, payload OrderPlaced) {
	p.publish(ctx, TopicOrderPlaced, "order.placed", payload.OrderRef, "order", payload)
}

func (p *Publisher) publish(ctx context.Context, topic, eventType, aggregateID, aggregateType string, data any) {
	if p.producer == nil {
		return
	}

	evt, err := kafka.NewEvent(eventType, aggregateID, aggregateType, source, data)
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to build event",
			slog.String("event_type", eventType),
			slog.String("error", err.Error()),
		)
		return
	}
	if cid := logger.CorrelationIDFromContext(ctx); cid != "" {
		evt = evt.WithCorrelationID(cid)
	}

	if err := p.producer.Publish(ctx, topic, evt); err != nil {
		p.logger.ErrorContext(ctx, "failed to publish event",
			slog.String("topic", topic),
			slog.String("event_type", eventType),
			slog.String("error", err.Error()),
		)
	}
}
