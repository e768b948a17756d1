package dto

import "time"

// AddItemDTO quantity 未給時為 1
type AddItemDTO struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  *int  `json:"quantity"`
}

type UpdateItemDTO struct {
	Quantity int `json:"quantity"`
}

type CartItemResponse struct {
	ID             int64     `json:"id"`
	ProductID      int64     `json:"product_id"`
	ProductName    string    `json:"product_name"`
	ProductSlug    string    `json:"product_slug"`
	ProductImage   string    `json:"product_image,omitempty"`
	Quantity       int       `json:"quantity"`
	UnitPrice      string    `json:"unit_price"`
	Subtotal       string    `json:"subtotal"`
	IsAvailable    bool      `json:"is_available"`
	StockAvailable int64     `json:"stock_available"`
	AddedAt        time.Time `json:"added_at"`
}

type CartResponse struct {
	ID         int64              `json:"id"`
	Items      []CartItemResponse `json:"items"`
	Total      string             `json:"total"`
	ItemsCount int                `json:"items_count"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}
