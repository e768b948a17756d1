package event

import (
	"strconv"

	"github.com/Dafoe17/retail-platform-backend/internal/domain/model"
)

type OrderLine struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
	UnitPrice int64 `json:"unitPrice"`
}

type OrderCreatedEvent struct {
	BaseEvent
	OrderID     int64       `json:"orderId"`
	OrderNumber string      `json:"orderNumber"`
	UserID      int64       `json:"userId"`
	Total       int64       `json:"total"`
	Lines       []OrderLine `json:"lines"`
}

type OrderCancelledEvent struct {
	BaseEvent
	OrderID     int64             `json:"orderId"`
	OrderNumber string            `json:"orderNumber"`
	UserID      int64             `json:"userId"`
	From        model.OrderStatus `json:"from"`
	Restocked   []OrderLine       `json:"restocked"`
}

type OrderStatusChangedEvent struct {
	BaseEvent
	OrderID     int64             `json:"orderId"`
	OrderNumber string            `json:"orderNumber"`
	From        model.OrderStatus `json:"from"`
	To          model.OrderStatus `json:"to"`
	Comment     string            `json:"comment,omitempty"`
}

func orderAggregateID(id int64) string {
	return "order-" + strconv.FormatInt(id, 10)
}

func linesOf(order *model.Order) []OrderLine {
	lines := make([]OrderLine, 0, len(order.Items))
	for _, it := range order.Items {
		lines = append(lines, OrderLine{ProductID: it.ProductID, Quantity: it.Quantity, UnitPrice: it.UnitPrice})
	}
	return lines
}

func NewOrderCreatedEvent(order *model.Order) *OrderCreatedEvent {
	return &OrderCreatedEvent{
		BaseEvent:   NewBaseEvent(OrderCreatedEventName, orderAggregateID(order.ID)),
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		Total:       order.Total,
		Lines:       linesOf(order),
	}
}

func NewOrderCancelledEvent(order *model.Order, from model.OrderStatus) *OrderCancelledEvent {
	return &OrderCancelledEvent{
		BaseEvent:   NewBaseEvent(OrderCancelledEventName, orderAggregateID(order.ID)),
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		From:        from,
		Restocked:   linesOf(order),
	}
}

func NewOrderStatusChangedEvent(order *model.Order, from model.OrderStatus, comment string) *OrderStatusChangedEvent {
	return &OrderStatusChangedEvent{
		BaseEvent:   NewBaseEvent(OrderStatusChangedEventName, orderAggregateID(order.ID)),
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		From:        from,
		To:          order.Status,
		Comment:     comment,
	}
}
