package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/Dafoe17/retail-platform-backend/internal/pkg/apperr"
)

const minPhoneLength = 10

// ShippingAddress is embedded into the orders table.
type ShippingAddress struct {
	RecipientName string `gorm:"not null;type:varchar(255)"`
	Phone         string `gorm:"not null;type:varchar(32)"`
	Country       string `gorm:"type:varchar(100)"`
	City          string `gorm:"not null;type:varchar(100)"`
	Street        string `gorm:"not null;type:varchar(255)"`
	Building      string `gorm:"not null;type:varchar(50)"`
	Apartment     string `gorm:"type:varchar(50)"`
	PostalCode    string `gorm:"not null;type:varchar(20)"`
}

// Validate 除了 country 與 apartment 以外皆為必填
func (a ShippingAddress) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"recipient_name", a.RecipientName},
		{"phone", a.Phone},
		{"city", a.City},
		{"street", a.Street},
		{"building", a.Building},
		{"postal_code", a.PostalCode},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return apperr.ErrInvalidAddress.WithMessage("%s is required", f.name)
		}
	}
	if len(strings.TrimSpace(a.Phone)) < minPhoneLength {
		return apperr.ErrInvalidAddress.WithMessage("phone must be at least %d characters", minPhoneLength)
	}
	return nil
}

// Order 建立後只允許透過狀態轉換修改
type Order struct {
	ID              int64       `gorm:"primaryKey;autoIncrement"`
	OrderNumber     string      `gorm:"uniqueIndex;not null;type:varchar(64)"`
	UserID          int64       `gorm:"not null;index"`
	Status          OrderStatus `gorm:"not null;type:varchar(20);index"`
	Subtotal        int64       `gorm:"not null"`
	ShippingCost    int64       `gorm:"not null"`
	Discount        int64       `gorm:"not null"`
	Tax             int64       `gorm:"not null"`
	Total           int64       `gorm:"not null"`
	ShippingAddress `gorm:"embedded"`
	Comment         string               `gorm:"type:text"`
	Items           []OrderItem          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	StatusHistory   []OrderStatusHistory `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	BaseModel
}

// ComputeTotal applies total = subtotal + shipping + tax - discount.
func ComputeTotal(subtotal, shipping, tax, discount int64) int64 {
	return subtotal + shipping + tax - discount
}

func (o *Order) ItemsCount() int {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}

// FormatOrderNumber 例: ORD-2024-000001
func FormatOrderNumber(createdAt time.Time, id int64) string {
	return fmt.Sprintf("ORD-%d-%06d", createdAt.Year(), id)
}

// OrderItem is a snapshot of the product at checkout time.
type OrderItem struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	OrderID     int64  `gorm:"not null;index"`
	ProductID   int64  `gorm:"not null;index"`
	ProductName string `gorm:"not null;type:varchar(255)"`
	ProductSlug string `gorm:"not null;type:varchar(255)"`
	Quantity    int    `gorm:"not null"`
	UnitPrice   int64  `gorm:"not null"`
	Subtotal    int64  `gorm:"not null"`
}

// OrderStatusHistory append only
type OrderStatusHistory struct {
	ID        int64       `gorm:"primaryKey;autoIncrement"`
	OrderID   int64       `gorm:"not null;index"`
	Status    OrderStatus `gorm:"not null;type:varchar(20)"`
	Comment   string      `gorm:"type:text"`
	ChangedAt time.Time   `gorm:"not null"`
}

func (OrderStatusHistory) TableName() string {
	return "order_status_history"
}

type OrderFilter struct {
	UserID   *int64
	Status   *OrderStatus
	Page     int
	PageSize int
}
