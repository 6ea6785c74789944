package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/evgkirov/shop-service/internal/entities"
)

const (
	EventOrderCreated         = "order.created"
	EventPaymentStatusChanged = "payment.status_changed"
)

// OrderEvent is the message written to the order events topic.
type OrderEvent struct {
	Type       string    `json:"type"`
	OrderID    string    `json:"order_id"`
	Currency   string    `json:"currency,omitempty"`
	Total      string    `json:"total,omitempty"`
	FromStatus string    `json:"from_status,omitempty"`
	ToStatus   string    `json:"to_status,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type Publisher struct {
	logger *slog.Logger
	writer *kafka.Writer
}

func NewPublisher(logger *slog.Logger, brokers []string, topic string, batchTimeout time.Duration) *Publisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: batchTimeout,
	}
	return &Publisher{
		logger: logger.With(slog.String("component", "events")),
		writer: writer,
	}
}

func (p *Publisher) OrderCreated(ctx context.Context, order entities.Order) {
	p.publish(ctx, order.ID, OrderEvent{
		Type:       EventOrderCreated,
		OrderID:    order.ID,
		Currency:   order.Currency,
		Total:      order.Total.StringFixed(2),
		OccurredAt: time.Now().UTC(),
	})
}

func (p *Publisher) PaymentStatusChanged(ctx context.Context, orderID string, from, to entities.PaymentStatus) {
	p.publish(ctx, orderID, OrderEvent{
		Type:       EventPaymentStatusChanged,
		OrderID:    orderID,
		FromStatus: string(from),
		ToStatus:   string(to),
		OccurredAt: time.Now().UTC(),
	})
}

// publish is fire and forget: a broker outage must not fail the operation
// that produced the event.
func (p *Publisher) publish(ctx context.Context, key string, event OrderEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("failed to marshal event", slog.String("type", event.Type), slog.Any("error", err))
		return
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: payload,
	})
	if err != nil {
		p.logger.Error("failed to publish event",
			slog.String("type", event.Type), slog.String("order_id", event.OrderID), slog.Any("error", err))
	}
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
