package producer

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/Dafoe17/retail-platform-backend/internal/domain/model"
	"github.com/Dafoe17/retail-platform-backend/internal/domain/model/event"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingProducer struct {
	msgs []kafka.Message
}

func (r *recordingProducer) Produce(_ context.Context, msgs []kafka.Message) error {
	r.msgs = append(r.msgs, msgs...)
	return nil
}

func (r *recordingProducer) Close() error { return nil }

func TestProduceOrderEvent(t *testing.T) {
	rec := &recordingProducer{}
	p := NewOrderEventProducer(rec)

	order := &model.Order{
		ID:          7,
		OrderNumber: "ORD-2025-000007",
		UserID:      3,
		Status:      model.OrderStatusPending,
		Total:       2500,
		Items:       []model.OrderItem{{ProductID: 1, Quantity: 2, UnitPrice: 1000}},
	}
	evt := event.NewOrderCreatedEvent(order)
	require.NoError(t, p.ProduceOrderEvent(context.Background(), evt))
	require.Len(t, rec.msgs, 1)

	msg := rec.msgs[0]
	assert.Equal(t, "order-7", string(msg.Key))
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, "order.created", string(msg.Headers[0].Value))
	assert.Equal(t, evt.EventID, string(msg.Headers[1].Value))

	var decoded event.OrderCreatedEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "ORD-2025-000007", decoded.OrderNumber)
	assert.Equal(t, int64(2500), decoded.Total)
	require.Len(t, decoded.Lines, 1)
	assert.Equal(t, 2, decoded.Lines[0].Quantity)
}

func TestNewOrderEventProducer_NilPanics(t *testing.T) {
	assert.Panics(t, func() { NewOrderEventProducer(nil) })
	assert.NoError(t, NopOrderEventProducer{}.ProduceOrderEvent(context.Background(), nil))
}
