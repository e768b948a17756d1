package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductDTO 金額以主單位字串傳遞, 例: "10.50"
type ProductDTO struct {
	Name        string           `json:"name" validate:"required,max=255"`
	Slug        string           `json:"slug" validate:"max=255"`
	Description string           `json:"description" validate:"max=5000"`
	Price       *decimal.Decimal `json:"price" validate:"required"`
	Stock       *int64           `json:"stock" validate:"omitempty,min=0"`
	CategoryID  *int64           `json:"category_id" validate:"omitempty,gt=0"`
	IsActive    *bool            `json:"is_active"`
	Images      []string         `json:"images" validate:"max=20,dive,required,max=1024"`
}

type ProductResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Price       string    `json:"price"`
	Stock       int64     `json:"stock"`
	CategoryID  *int64    `json:"category_id"`
	IsActive    bool      `json:"is_active"`
	IsAvailable bool      `json:"is_available"`
	MainImage   string    `json:"main_image,omitempty"`
	Images      []string  `json:"images"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type CategoryDTO struct {
	Name        string `json:"name" validate:"required,max=100"`
	Slug        string `json:"slug" validate:"max=100"`
	Description string `json:"description" validate:"max=2000"`
	ParentID    *int64 `json:"parent_id" validate:"omitempty,gt=0"`
}

// SetParentDTO parent_id 為 null 時移到最上層
type SetParentDTO struct {
	ParentID *int64 `json:"parent_id" validate:"omitempty,gt=0"`
}

type CategoryResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	ParentID    *int64    `json:"parent_id"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

type PageResponse[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}
