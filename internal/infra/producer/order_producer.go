package producer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Dafoe17/retail-platform-backend/internal/domain/model/event"
	"github.com/Dafoe17/retail-platform-backend/internal/infra/kafka/producer"
	"github.com/segmentio/kafka-go"
)

type IOrderEventProducer interface {
	ProduceOrderEvent(ctx context.Context, evt event.Event) error
}

// OrderEventProducer 訂單事件, 以 order aggregate id 當 key 確保同一訂單落在同一分區
// topic: 由 producer 創建時設置
type OrderEventProducer struct {
	producer producer.Producer
}

var _ IOrderEventProducer = (*OrderEventProducer)(nil)

func NewOrderEventProducer(p producer.Producer) *OrderEventProducer {
	if p == nil {
		panic("NewOrderEventProducer: producer cannot be nil")
	}
	return &OrderEventProducer{producer: p}
}

func (o *OrderEventProducer) ProduceOrderEvent(ctx context.Context, evt event.Event) error {
	msg, err := convertToMessage(evt)
	if err != nil {
		return err
	}
	return o.producer.Produce(ctx, []kafka.Message{msg})
}

func convertToMessage(evt event.Event) (kafka.Message, error) {
	payload, err := json.Marshal(evt)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal %s event: %w", evt.Type(), err)
	}
	return kafka.Message{
		Key:   []byte(evt.Key()),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(evt.Type())},
			{Key: "event_id", Value: []byte(evt.GetID())},
		},
	}, nil
}

// NopOrderEventProducer is used when no broker is configured.
type NopOrderEventProducer struct{}

func (NopOrderEventProducer) ProduceOrderEvent(context.Context, event.Event) error {
	return nil
}
