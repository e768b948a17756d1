package dto

import "time"

type ShippingAddressDTO struct {
	RecipientName string `json:"recipient_name" validate:"max=255"`
	Phone         string `json:"phone" validate:"max=32"`
	Country       string `json:"country" validate:"max=100"`
	City          string `json:"city" validate:"max=100"`
	Street        string `json:"street" validate:"max=255"`
	Building      string `json:"building" validate:"max=50"`
	Apartment     string `json:"apartment" validate:"max=50"`
	PostalCode    string `json:"postal_code" validate:"max=20"`
}

type CheckoutDTO struct {
	ShippingAddress ShippingAddressDTO `json:"shipping_address"`
	Comment         string             `json:"comment" validate:"max=1000"`
}

type CancelOrderDTO struct {
	Comment string `json:"comment" validate:"max=1000"`
}

type UpdateOrderStatusDTO struct {
	Status  string `json:"status" validate:"required"`
	Comment string `json:"comment" validate:"max=1000"`
}

type OrderItemResponse struct {
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	ProductSlug string `json:"product_slug"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	Subtotal    string `json:"subtotal"`
}

type OrderStatusHistoryResponse struct {
	Status    string    `json:"status"`
	Comment   string    `json:"comment"`
	ChangedAt time.Time `json:"changed_at"`
}

type OrderResponse struct {
	ID              int64                        `json:"id"`
	OrderNumber     string                       `json:"order_number"`
	UserID          int64                        `json:"user_id"`
	Status          string                       `json:"status"`
	StatusDisplay   string                       `json:"status_display"`
	Subtotal        string                       `json:"subtotal"`
	ShippingCost    string                       `json:"shipping_cost"`
	Discount        string                       `json:"discount"`
	Tax             string                       `json:"tax"`
	Total           string                       `json:"total"`
	ItemsCount      int                          `json:"items_count"`
	ShippingAddress ShippingAddressDTO           `json:"shipping_address"`
	Comment         string                       `json:"comment"`
	Items           []OrderItemResponse          `json:"items,omitempty"`
	StatusHistory   []OrderStatusHistoryResponse `json:"status_history,omitempty"`
	CreatedAt       time.Time                    `json:"created_at"`
	UpdatedAt       time.Time                    `json:"updated_at"`
}
