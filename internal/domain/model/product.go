package model

import "time"

// Product 商品. price 以最小貨幣單位儲存, 不做實體刪除只停用
type Product struct {
	ID          int64    `gorm:"primaryKey;autoIncrement"`
	Name        string   `gorm:"not null;type:varchar(255)"`
	Slug        string   `gorm:"uniqueIndex;not null;type:varchar(255)"`
	Description string   `gorm:"type:text"`
	Price       int64    `gorm:"not null;check:price >= 0"`
	Stock       int64    `gorm:"not null;default:0;check:stock >= 0"`
	CategoryID  *int64   `gorm:"index"`
	IsActive    bool     `gorm:"not null;index"`
	Images      []string `gorm:"type:text;serializer:json"`
	BaseModel
}

// IsAvailable reports whether the product can currently be bought.
func (p *Product) IsAvailable() bool {
	return p.IsActive && p.Stock > 0
}

func (p *Product) MainImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// Category forms a tree through ParentID only; children are queried explicitly.
type Category struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	Name        string `gorm:"not null;type:varchar(100)"`
	Slug        string `gorm:"uniqueIndex;not null;type:varchar(100)"`
	Description string `gorm:"type:text"`
	ParentID    *int64 `gorm:"index"`
	IsActive    bool   `gorm:"not null"`
	CreatedAt   time.Time
}

type ProductSort string

const (
	SortByName      ProductSort = "name"
	SortByPriceAsc  ProductSort = "price_asc"
	SortByPriceDesc ProductSort = "price_desc"
	SortByCreated   ProductSort = "created"
)

func IsValidProductSort(s string) bool {
	switch ProductSort(s) {
	case SortByName, SortByPriceAsc, SortByPriceDesc, SortByCreated:
		return true
	default:
		return false
	}
}

// ProductFilter 商品列表查詢條件, 金額皆為最小貨幣單位
type ProductFilter struct {
	CategoryID      *int64
	MinPrice        *int64
	MaxPrice        *int64
	InStock         bool
	Search          string
	SortBy          ProductSort
	IncludeInactive bool
	Page            int
	PageSize        int
}
