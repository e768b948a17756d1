package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dafoe17/retail-platform-backend/internal/domain/model"
	"github.com/Dafoe17/retail-platform-backend/internal/pkg/apperr"
	"gorm.io/gorm"
)

type ICategoryRepository interface {
	CreateCategory(ctx context.Context, category *model.Category) error
	GetCategoryByID(ctx context.Context, id int64) (*model.Category, error)
	ListCategories(ctx context.Context, activeOnly bool) ([]model.Category, error)
	ListCategoryChildren(ctx context.Context, parentID int64) ([]model.Category, error)
	UpdateCategoryParent(ctx context.Context, id int64, parentID *int64) error
}

type CategoryRepo struct {
	db *gorm.DB
}

var _ ICategoryRepository = (*CategoryRepo)(nil)

func NewCategoryRepo(db *gorm.DB) *CategoryRepo {
	return &CategoryRepo{db: db}
}

func (r *CategoryRepo) CreateCategory(ctx context.Context, category *model.Category) error {
	err := r.db.WithContext(ctx).Create(category).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.ErrSlugTaken.Wrap(err)
	}
	if err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

func (r *CategoryRepo) GetCategoryByID(ctx context.Context, id int64) (*model.Category, error) {
	var category model.Category
	if err := r.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, notFound(err, apperr.ErrCategoryNotFound, "get category %d", id)
	}
	return &category, nil
}

func (r *CategoryRepo) ListCategories(ctx context.Context, activeOnly bool) ([]model.Category, error) {
	var categories []model.Category
	q := r.db.WithContext(ctx)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	if err := q.Order("name ASC").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// ListCategoryChildren 查詢直接子分類
func (r *CategoryRepo) ListCategoryChildren(ctx context.Context, parentID int64) ([]model.Category, error) {
	var categories []model.Category
	err := r.db.WithContext(ctx).
		Where("parent_id = ?", parentID).
		Order("name ASC").
		Find(&categories).Error
	if err != nil {
		return nil, fmt.Errorf("list children of category %d: %w", parentID, err)
	}
	return categories, nil
}

// UpdateCategoryParent moves a category; a nil parentID makes it a root.
func (r *CategoryRepo) UpdateCategoryParent(ctx context.Context, id int64, parentID *int64) error {
	var parent any
	if parentID != nil {
		parent = *parentID
	}
	res := r.db.WithContext(ctx).Model(&model.Category{}).
		Where("id = ?", id).
		Update("parent_id", parent)
	if res.Error != nil {
		return fmt.Errorf("update parent of category %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrCategoryNotFound
	}
	return nil
}
