// internal/infrastructure/events/publisher.go

// Package events publishes domain events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/order"
)

const EventOrderCreated = "order.created"

// OrderCreated is the payload of EventOrderCreated
type OrderCreated struct {
	OrderNumber string        `json:"order_number"`
	UserID      uint          `json:"user_id"`
	Email       string        `json:"email"`
	Items       []OrderedItem `json:"items"`
	Subtotal    int64         `json:"subtotal"`
	Tax         int64         `json:"tax"`
	Shipping    int64         `json:"shipping"`
	Total       int64         `json:"total"`
	Currency    string        `json:"currency"`
	Payment     order.Payment `json:"payment"`
	Status      order.Status  `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
}

type OrderedItem struct {
	ProductID uint              `json:"product_id"`
	Quantity  int               `json:"quantity"`
	Price     int64             `json:"price"`
	Variant   map[string]string `json:"variant,omitempty"`
}

// Publisher announces order lifecycle events
type Publisher interface {
	PublishOrderCreated(ctx context.Context, o *order.Order) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events to one topic keyed by order number
type KafkaPublisher struct {
	writer messageWriter
}

// New returns a Kafka publisher, or a no-op one when no brokers are configured
func New(cfg *config.Config, log logrus.FieldLogger) Publisher {
	if len(cfg.Kafka.Brokers) == 0 {
		log.Info("no kafka brokers configured; order events are not published")
		return NopPublisher{}
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Kafka.Brokers...),
		Topic:                  cfg.Kafka.OrderTopic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
		WriteTimeout:           5 * time.Second,
	}
	return &KafkaPublisher{writer: w}
}

func (p *KafkaPublisher) PublishOrderCreated(ctx context.Context, o *order.Order) error {
	payload := OrderCreated{
		OrderNumber: o.OrderNumber,
		UserID:      o.UserID,
		Email:       o.Email,
		Subtotal:    o.SubtotalAmount,
		Tax:         o.TaxAmount,
		Shipping:    o.ShippingAmount,
		Total:       o.TotalAmount,
		Currency:    o.Currency,
		Payment:     o.Payment,
		Status:      o.Status,
		CreatedAt:   o.CreatedAt,
	}
	for _, item := range o.Items {
		payload.Items = append(payload.Items, OrderedItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
			Variant:   item.Variant,
		})
	}

	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", EventOrderCreated, err)
	}

	msg := kafka.Message{
		Key:   []byte(o.OrderNumber),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(EventOrderCreated)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s event: %w", EventOrderCreated, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher drops every event
type NopPublisher struct{}

func (NopPublisher) PublishOrderCreated(context.Context, *order.Order) error { return nil }
func (NopPublisher) Close() error                                            { return nil }
