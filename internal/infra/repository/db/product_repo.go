package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Dafoe17/retail-platform-backend/internal/domain/model"
	"github.com/Dafoe17/retail-platform-backend/internal/pkg/apperr"
	"gorm.io/gorm"
)

// IProductRepository Product 相關操作介面
type IProductRepository interface {
	CreateProduct(ctx context.Context, product *model.Product) error
	UpdateProduct(ctx context.Context, product *model.Product) error
	DeactivateProduct(ctx context.Context, id int64) error
	SetStock(ctx context.Context, id int64, stock int64) error
	GetProductByID(ctx context.Context, id int64) (*model.Product, error)
	GetProductsByIDs(ctx context.Context, ids []int64) ([]model.Product, error)
	ListProducts(ctx context.Context, filter model.ProductFilter) (*model.Page[model.Product], error)
	DecrementStock(ctx context.Context, productID int64, quantity int) error
	RestoreStock(ctx context.Context, productID int64, quantity int) error
}

type ProductRepo struct {
	db *gorm.DB
}

var _ IProductRepository = (*ProductRepo)(nil)

func NewProductRepo(db *gorm.DB) *ProductRepo {
	return &ProductRepo{db: db}
}

func (r *ProductRepo) CreateProduct(ctx context.Context, product *model.Product) error {
	err := r.db.WithContext(ctx).Create(product).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.ErrSlugTaken.Wrap(err)
	}
	if err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

// UpdateProduct 覆寫商品資料, 不含庫存 (庫存只透過 SetStock 或條件式增減修改)
func (r *ProductRepo) UpdateProduct(ctx context.Context, product *model.Product) error {
	res := r.db.WithContext(ctx).Model(product).
		Select("name", "slug", "description", "price", "category_id", "is_active", "images").
		Updates(product)
	if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
		return apperr.ErrSlugTaken.Wrap(res.Error)
	}
	if res.Error != nil {
		return fmt.Errorf("update product %d: %w", product.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrProductNotFound
	}
	return nil
}

// SetStock is an admin override of the absolute stock level.
func (r *ProductRepo) SetStock(ctx context.Context, id int64, stock int64) error {
	if stock < 0 {
		return apperr.ErrValidation.WithMessage("stock cannot be negative")
	}
	res := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ?", id).
		Update("stock", stock)
	if res.Error != nil {
		return fmt.Errorf("set stock of product %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrProductNotFound
	}
	return nil
}

// DeactivateProduct 商品不做實體刪除
func (r *ProductRepo) DeactivateProduct(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ?", id).
		Update("is_active", false)
	if res.Error != nil {
		return fmt.Errorf("deactivate product %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrProductNotFound
	}
	return nil
}

func (r *ProductRepo) GetProductByID(ctx context.Context, id int64) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err, apperr.ErrProductNotFound, "get product %d", id)
	}
	return &product, nil
}

// GetProductsByIDs returns the products that exist among ids, in id order.
func (r *ProductRepo) GetProductsByIDs(ctx context.Context, ids []int64) ([]model.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var products []model.Product
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("get products by ids: %w", err)
	}
	return products, nil
}

func productFilterScope(f model.ProductFilter) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		if !f.IncludeInactive {
			q = q.Where("is_active = ?", true)
		}
		if f.CategoryID != nil {
			q = q.Where("category_id = ?", *f.CategoryID)
		}
		if f.MinPrice != nil {
			q = q.Where("price >= ?", *f.MinPrice)
		}
		if f.MaxPrice != nil {
			q = q.Where("price <= ?", *f.MaxPrice)
		}
		if f.InStock {
			q = q.Where("stock > 0")
		}
		if s := strings.TrimSpace(f.Search); s != "" {
			pattern := "%" + strings.ToLower(s) + "%"
			q = q.Where("(LOWER(name) LIKE ? OR LOWER(description) LIKE ?)", pattern, pattern)
		}
		return q
	}
}

func productOrder(sort model.ProductSort) string {
	switch sort {
	case model.SortByName:
		return "name ASC, id ASC"
	case model.SortByPriceAsc:
		return "price ASC, id ASC"
	case model.SortByPriceDesc:
		return "price DESC, id ASC"
	default:
		return "created_at DESC, id DESC"
	}
}

// 分頁查詢商品
func (r *ProductRepo) ListProducts(ctx context.Context, filter model.ProductFilter) (*model.Page[model.Product], error) {
	page := &model.Page[model.Product]{Page: filter.Page, PageSize: filter.PageSize}

	err := r.db.WithContext(ctx).Model(&model.Product{}).
		Scopes(productFilterScope(filter)).
		Count(&page.Total).Error
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	offset := (filter.Page - 1) * filter.PageSize
	err = r.db.WithContext(ctx).
		Scopes(productFilterScope(filter)).
		Order(productOrder(filter.SortBy)).
		Offset(offset).
		Limit(filter.PageSize).
		Find(&page.Items).Error
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return page, nil
}

// DecrementStock 條件式扣庫存, 單一 UPDATE 完成比較與扣除.
// 沒有任何一列被更新代表庫存不足.
func (r *ProductRepo) DecrementStock(ctx context.Context, productID int64, quantity int) error {
	if quantity <= 0 {
		return apperr.ErrInvalidQuantity
	}
	res := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ? AND stock >= ?", productID, quantity).
		Update("stock", gorm.Expr("stock - ?", quantity))
	if res.Error != nil {
		return fmt.Errorf("decrement stock of product %d: %w", productID, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrInsufficientStock.WithMessage("not enough stock for product %d", productID)
	}
	return nil
}

func (r *ProductRepo) RestoreStock(ctx context.Context, productID int64, quantity int) error {
	if quantity <= 0 {
		return apperr.ErrInvalidQuantity
	}
	res := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ?", productID).
		Update("stock", gorm.Expr("stock + ?", quantity))
	if res.Error != nil {
		return fmt.Errorf("restore stock of product %d: %w", productID, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrProductNotFound
	}
	return nil
}
