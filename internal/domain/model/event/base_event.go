package event

import (
	"time"

	"github.com/google/uuid"
)

type BaseEvent struct {
	EventID     string    `json:"eventId"`
	AggregateID string    `json:"aggregateId"`
	CreatedAt   time.Time `json:"createdAt"`
	EventType   EventType `json:"eventType"`
}

func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		EventID:     uuid.NewString(),
		AggregateID: aggregateID,
		CreatedAt:   time.Now().UTC(),
		EventType:   eventType,
	}
}

func (e *BaseEvent) GetID() string {
	return e.EventID
}

func (e *BaseEvent) Type() EventType {
	return e.EventType
}

func (e *BaseEvent) Key() string {
	return e.AggregateID
}

type EventType string

const (
	OrderCreatedEventName       EventType = "order.created"
	OrderCancelledEventName     EventType = "order.cancelled"
	OrderStatusChangedEventName EventType = "order.status_changed"
)

type Event interface {
	Type() EventType
	GetID() string
	Key() string
}
