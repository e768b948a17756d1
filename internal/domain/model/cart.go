package model

import (
	"math"
	"time"
)

const (
	MinItemQuantity = 1
	MaxItemQuantity = 99

	// MaxUnitPrice 單價上限, 保證 單價 × MaxItemQuantity 不溢位
	MaxUnitPrice int64 = math.MaxInt64 / MaxItemQuantity
)

// Cart 購物車, 一個使用者最多一台; 匿名車用 SessionID 識別
type Cart struct {
	ID        int64   `gorm:"primaryKey;autoIncrement"`
	UserID    *int64  `gorm:"uniqueIndex"`
	SessionID *string `gorm:"uniqueIndex;type:varchar(64)"`
	BaseModel
}

// CartItem keeps the unit price captured when the product was first added.
type CartItem struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	CartID    int64     `gorm:"not null;uniqueIndex:idx_cart_items_cart_product"`
	ProductID int64     `gorm:"not null;uniqueIndex:idx_cart_items_cart_product"`
	Quantity  int       `gorm:"not null"`
	UnitPrice int64     `gorm:"not null"`
	AddedAt   time.Time `gorm:"not null"`
}

func (i *CartItem) Subtotal() int64 {
	return int64(i.Quantity) * i.UnitPrice
}

func IsValidQuantity(qty int) bool {
	return qty >= MinItemQuantity && qty <= MaxItemQuantity
}

// CartOwner identifies whose cart to use. UserID wins when both are set.
type CartOwner struct {
	UserID    int64
	SessionID string
}

func (o CartOwner) IsAnonymous() bool {
	return o.UserID == 0
}

func (o CartOwner) Valid() bool {
	return o.UserID > 0 || o.SessionID != ""
}

// CartView is the read projection of a cart against live catalog data.
type CartView struct {
	ID         int64
	UserID     *int64
	Items      []CartLineView
	Total      int64
	ItemsCount int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type CartLineView struct {
	ItemID         int64
	ProductID      int64
	ProductName    string
	ProductSlug    string
	ProductImage   string
	Quantity       int
	UnitPrice      int64
	Subtotal       int64
	IsAvailable    bool
	StockAvailable int64
	AddedAt        time.Time
}
