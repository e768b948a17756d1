package service

import (
	"context"
	"strings"
	"unicode"

	"github.com/Dafoe17/retail-platform-backend/internal/domain/model"
	"github.com/Dafoe17/retail-platform-backend/internal/infra/repository/db"
	"github.com/Dafoe17/retail-platform-backend/internal/pkg/apperr"
	"github.com/Dafoe17/retail-platform-backend/internal/pkg/util"
	"github.com/rs/zerolog"
)

// maxCategoryDepth 往上追溯父分類的層數上限
const maxCategoryDepth = 64

type ProductInput struct {
	Name        string
	Slug        string
	Description string
	Price       int64
	Stock       *int64
	CategoryID  *int64
	IsActive    bool
	Images      []string
}

type CategoryInput struct {
	Name        string
	Slug        string
	Description string
	ParentID    *int64
}

type ICatalogService interface {
	GetProduct(ctx context.Context, id int64, includeInactive bool) (*model.Product, error)
	ListProducts(ctx context.Context, filter model.ProductFilter) (*model.Page[model.Product], error)
	CreateProduct(ctx context.Context, input ProductInput) (*model.Product, error)
	UpdateProduct(ctx context.Context, id int64, input ProductInput) (*model.Product, error)
	DeactivateProduct(ctx context.Context, id int64) error

	ListCategories(ctx context.Context) ([]model.Category, error)
	ListCategoryChildren(ctx context.Context, id int64) ([]model.Category, error)
	CreateCategory(ctx context.Context, input CategoryInput) (*model.Category, error)
	SetCategoryParent(ctx context.Context, id int64, parentID *int64) error
}

/*
CatalogService 商品與分類.
products 可以是 cache-aside 包裝的 repository, 單筆寫入時由它負責清快取;
store 永遠直接讀寫 db, 走 ExecTx 的多筆寫入在提交後透過 cache 清除.
*/
type CatalogService struct {
	store           db.IStore
	products        db.IProductRepository
	cache           ProductCacheInvalidator
	logger          zerolog.Logger
	defaultPageSize int
	maxPageSize     int
}

var _ ICatalogService = (*CatalogService)(nil)

func NewCatalogService(store db.IStore, products db.IProductRepository, logger zerolog.Logger, defaultPageSize, maxPageSize int) *CatalogService {
	if util.IsNil(store) {
		panic("NewCatalogService: store cannot be nil")
	}
	if util.IsNil(products) {
		products = store
	}
	var cache ProductCacheInvalidator = NopProductCacheInvalidator{}
	if inv, ok := products.(ProductCacheInvalidator); ok {
		cache = inv
	}
	return &CatalogService{
		store:           store,
		products:        products,
		cache:           cache,
		logger:          logger,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
	}
}

// GetProduct 下架商品對一般使用者視為不存在
func (s *CatalogService) GetProduct(ctx context.Context, id int64, includeInactive bool) (*model.Product, error) {
	product, err := s.products.GetProductByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !product.IsActive && !includeInactive {
		return nil, apperr.ErrProductNotFound
	}
	return product, nil
}

func (s *CatalogService) ListProducts(ctx context.Context, filter model.ProductFilter) (*model.Page[model.Product], error) {
	if filter.SortBy != "" && !model.IsValidProductSort(string(filter.SortBy)) {
		return nil, apperr.ErrValidation.WithMessage("unknown sort %q", filter.SortBy)
	}
	if filter.MinPrice != nil && filter.MaxPrice != nil && *filter.MinPrice > *filter.MaxPrice {
		return nil, apperr.ErrValidation.WithMessage("min_price cannot exceed max_price")
	}
	filter.Page, filter.PageSize = util.NormalizePage(filter.Page, filter.PageSize, s.defaultPageSize, s.maxPageSize)
	return s.store.ListProducts(ctx, filter)
}

func (s *CatalogService) CreateProduct(ctx context.Context, input ProductInput) (*model.Product, error) {
	product := &model.Product{}
	if err := s.applyProductInput(ctx, product, input); err != nil {
		return nil, err
	}
	if input.Stock != nil {
		product.Stock = *input.Stock
	}
	if err := s.products.CreateProduct(ctx, product); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("product_id", product.ID).Str("slug", product.Slug).Msg("product created")
	return product, nil
}

// UpdateProduct 覆寫商品資料; Stock 有給才覆寫庫存
func (s *CatalogService) UpdateProduct(ctx context.Context, id int64, input ProductInput) (*model.Product, error) {
	product, err := s.store.GetProductByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.applyProductInput(ctx, product, input); err != nil {
		return nil, err
	}
	err = s.store.ExecTx(ctx, func(tx db.IStore) error {
		if err := tx.UpdateProduct(ctx, product); err != nil {
			return err
		}
		if input.Stock != nil {
			return tx.SetStock(ctx, id, *input.Stock)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateProducts(ctx, id)
	s.logger.Info().Int64("product_id", id).Msg("product updated")
	return s.store.GetProductByID(ctx, id)
}

func (s *CatalogService) DeactivateProduct(ctx context.Context, id int64) error {
	if err := s.products.DeactivateProduct(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int64("product_id", id).Msg("product deactivated")
	return nil
}

func (s *CatalogService) applyProductInput(ctx context.Context, product *model.Product, input ProductInput) error {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return apperr.ErrValidation.WithMessage("product name is required")
	}
	if input.Price < 0 {
		return apperr.ErrValidation.WithMessage("price cannot be negative")
	}
	if input.Price > model.MaxUnitPrice {
		return apperr.ErrValidation.WithMessage("price cannot exceed %s", util.FormatMinor(model.MaxUnitPrice))
	}
	if input.Stock != nil && *input.Stock < 0 {
		return apperr.ErrValidation.WithMessage("stock cannot be negative")
	}
	slug := Slugify(input.Slug)
	if slug == "" {
		slug = Slugify(name)
	}
	if slug == "" {
		return apperr.ErrValidation.WithMessage("slug is required")
	}
	if input.CategoryID != nil {
		if _, err := s.store.GetCategoryByID(ctx, *input.CategoryID); err != nil {
			return err
		}
	}

	product.Name = name
	product.Slug = slug
	product.Description = input.Description
	product.Price = input.Price
	product.CategoryID = input.CategoryID
	product.IsActive = input.IsActive
	product.Images = input.Images
	return nil
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]model.Category, error) {
	return s.store.ListCategories(ctx, true)
}

func (s *CatalogService) ListCategoryChildren(ctx context.Context, id int64) ([]model.Category, error) {
	if _, err := s.store.GetCategoryByID(ctx, id); err != nil {
		return nil, err
	}
	return s.store.ListCategoryChildren(ctx, id)
}

func (s *CatalogService) CreateCategory(ctx context.Context, input CategoryInput) (*model.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperr.ErrValidation.WithMessage("category name is required")
	}
	slug := Slugify(input.Slug)
	if slug == "" {
		slug = Slugify(name)
	}
	if slug == "" {
		return nil, apperr.ErrValidation.WithMessage("slug is required")
	}
	if input.ParentID != nil {
		if _, err := s.store.GetCategoryByID(ctx, *input.ParentID); err != nil {
			return nil, err
		}
	}
	category := &model.Category{
		Name:        name,
		Slug:        slug,
		Description: input.Description,
		ParentID:    input.ParentID,
		IsActive:    true,
	}
	if err := s.store.CreateCategory(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// SetCategoryParent 搬移分類, parentID 為 nil 代表移到最上層.
// 新的父分類不可以是自己或自己的子孫 (ErrCategoryCycle).
func (s *CatalogService) SetCategoryParent(ctx context.Context, id int64, parentID *int64) error {
	return s.store.ExecTx(ctx, func(tx db.IStore) error {
		if _, err := tx.GetCategoryByID(ctx, id); err != nil {
			return err
		}
		if parentID != nil {
			if err := checkNoCycle(ctx, tx, id, *parentID); err != nil {
				return err
			}
		}
		return tx.UpdateCategoryParent(ctx, id, parentID)
	})
}

// checkNoCycle 從 parentID 往上走到根, 途中遇到 id 就是環
func checkNoCycle(ctx context.Context, store db.IStore, id, parentID int64) error {
	current := &parentID
	for depth := 0; current != nil; depth++ {
		if *current == id || depth >= maxCategoryDepth {
			return apperr.ErrCategoryCycle
		}
		category, err := store.GetCategoryByID(ctx, *current)
		if err != nil {
			return err
		}
		current = category.ParentID
	}
	return nil
}

// Slugify 轉小寫, 英數字以外的字元合併成單一 '-'
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
