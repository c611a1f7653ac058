package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/pkg/logger"
)

type recordingWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublishOrderCreated(t *testing.T) {
	w := &recordingWriter{}
	p := &KafkaPublisher{writer: w}

	o := &order.Order{
		OrderNumber: "ORD-64800123-0042",
		UserID:      7,
		Items:       []order.OrderItem{{ProductID: 1, Quantity: 2, Price: 1000, Variant: map[string]string{"size": "M"}}},
		TotalAmount: 2799,
		Payment:     order.Payment{Method: order.PaymentCreditCard, Last4: "4242"},
	}
	require.NoError(t, p.PublishOrderCreated(context.Background(), o))

	require.Len(t, w.messages, 1)
	msg := w.messages[0]
	assert.Equal(t, "ORD-64800123-0042", string(msg.Key))
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, EventOrderCreated, string(msg.Headers[0].Value))

	var payload OrderCreated
	require.NoError(t, json.Unmarshal(msg.Value, &payload))
	assert.Equal(t, int64(2799), payload.Total)
	assert.Equal(t, "4242", payload.Payment.Last4)
	assert.Equal(t, map[string]string{"size": "M"}, payload.Items[0].Variant)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublishOrderCreated_WriteError(t *testing.T) {
	p := &KafkaPublisher{writer: &recordingWriter{err: errors.New("leader not available")}}

	err := p.PublishOrderCreated(context.Background(), &order.Order{OrderNumber: "ORD-1"})
	assert.ErrorContains(t, err, "leader not available")
}

func TestNew_WithoutBrokers(t *testing.T) {
	p := New(&config.Config{}, logger.Discard())
	assert.IsType(t, NopPublisher{}, p)
	assert.NoError(t, p.PublishOrderCreated(context.Background(), &order.Order{}))

	p = New(&config.Config{Kafka: config.KafkaConfig{Brokers: []string{"localhost:9092"}, OrderTopic: "orders.events"}}, logger.Discard())
	assert.IsType(t, &KafkaPublisher{}, p)
	assert.NoError(t, p.Close())
}
