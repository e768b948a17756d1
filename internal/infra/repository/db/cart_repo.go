package db

import (
	"context"
	"fmt"
	"time"

	"github.com/Dafoe17/retail-platform-backend/internal/domain/model"
	"github.com/Dafoe17/retail-platform-backend/internal/pkg/apperr"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ICartRepository interface {
	GetCartByOwner(ctx context.Context, owner model.CartOwner) (*model.Cart, error)
	CreateCartIfAbsent(ctx context.Context, owner model.CartOwner) error
	TouchCart(ctx context.Context, cartID int64) error

	GetCartItems(ctx context.Context, cartID int64) ([]model.CartItem, error)
	GetCartItem(ctx context.Context, cartID, itemID int64) (*model.CartItem, error)
	GetCartItemByProduct(ctx context.Context, cartID, productID int64) (*model.CartItem, error)
	UpsertCartItem(ctx context.Context, item *model.CartItem) error
	UpdateCartItemQuantity(ctx context.Context, itemID int64, quantity int) error
	DeleteCartItem(ctx context.Context, cartID, itemID int64) error
	DeleteCartItems(ctx context.Context, cartID int64, itemIDs []int64) (int64, error)
	ClearCart(ctx context.Context, cartID int64) error
}

type CartRepo struct {
	db *gorm.DB
}

var _ ICartRepository = (*CartRepo)(nil)

func NewCartRepo(db *gorm.DB) *CartRepo {
	return &CartRepo{db: db}
}

func ownerScope(owner model.CartOwner) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		if !owner.IsAnonymous() {
			return q.Where("user_id = ?", owner.UserID)
		}
		return q.Where("session_id = ? AND user_id IS NULL", owner.SessionID)
	}
}

func (r *CartRepo) GetCartByOwner(ctx context.Context, owner model.CartOwner) (*model.Cart, error) {
	if !owner.Valid() {
		return nil, apperr.ErrCartNotFound
	}
	var cart model.Cart
	err := r.db.WithContext(ctx).Scopes(ownerScope(owner)).First(&cart).Error
	if err != nil {
		return nil, notFound(err, apperr.ErrCartNotFound, "get cart")
	}
	return &cart, nil
}

// CreateCartIfAbsent 以 unique index 保證一人一車, 重複建立直接忽略
func (r *CartRepo) CreateCartIfAbsent(ctx context.Context, owner model.CartOwner) error {
	if !owner.Valid() {
		return apperr.ErrValidation.WithMessage("cart owner is required")
	}
	cart := model.Cart{}
	if owner.IsAnonymous() {
		sid := owner.SessionID
		cart.SessionID = &sid
	} else {
		uid := owner.UserID
		cart.UserID = &uid
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&cart).Error
	if err != nil {
		return fmt.Errorf("create cart: %w", err)
	}
	return nil
}

func (r *CartRepo) TouchCart(ctx context.Context, cartID int64) error {
	err := r.db.WithContext(ctx).Model(&model.Cart{}).
		Where("id = ?", cartID).
		Update("updated_at", time.Now().UTC()).Error
	if err != nil {
		return fmt.Errorf("touch cart %d: %w", cartID, err)
	}
	return nil
}

func (r *CartRepo) GetCartItems(ctx context.Context, cartID int64) ([]model.CartItem, error) {
	var items []model.CartItem
	err := r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Order("added_at ASC, id ASC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("get items of cart %d: %w", cartID, err)
	}
	return items, nil
}

func (r *CartRepo) GetCartItem(ctx context.Context, cartID, itemID int64) (*model.CartItem, error) {
	var item model.CartItem
	err := r.db.WithContext(ctx).
		Where("id = ? AND cart_id = ?", itemID, cartID).
		First(&item).Error
	if err != nil {
		return nil, notFound(err, apperr.ErrItemNotFound, "get cart item %d", itemID)
	}
	return &item, nil
}

func (r *CartRepo) GetCartItemByProduct(ctx context.Context, cartID, productID int64) (*model.CartItem, error) {
	var item model.CartItem
	err := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		First(&item).Error
	if err != nil {
		return nil, notFound(err, apperr.ErrItemNotFound, "get cart item for product %d", productID)
	}
	return &item, nil
}

// UpsertCartItem 新增品項; 同一台車已有該商品時數量相加, 單價維持原本的快照
func (r *CartRepo) UpsertCartItem(ctx context.Context, item *model.CartItem) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"quantity": gorm.Expr("cart_items.quantity + excluded.quantity"),
			}),
		}).
		Create(item).Error
	if err != nil {
		return fmt.Errorf("upsert cart item: %w", err)
	}
	return nil
}

func (r *CartRepo) UpdateCartItemQuantity(ctx context.Context, itemID int64, quantity int) error {
	res := r.db.WithContext(ctx).Model(&model.CartItem{}).
		Where("id = ?", itemID).
		Update("quantity", quantity)
	if res.Error != nil {
		return fmt.Errorf("update cart item %d: %w", itemID, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrItemNotFound
	}
	return nil
}

func (r *CartRepo) DeleteCartItem(ctx context.Context, cartID, itemID int64) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND cart_id = ?", itemID, cartID).
		Delete(&model.CartItem{})
	if res.Error != nil {
		return fmt.Errorf("delete cart item %d: %w", itemID, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrItemNotFound
	}
	return nil
}

// DeleteCartItems removes the listed items and reports how many rows went away.
// Checkout compares the count against what it read to detect concurrent edits.
func (r *CartRepo) DeleteCartItems(ctx context.Context, cartID int64, itemIDs []int64) (int64, error) {
	if len(itemIDs) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Where("cart_id = ? AND id IN ?", cartID, itemIDs).
		Delete(&model.CartItem{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete items of cart %d: %w", cartID, res.Error)
	}
	return res.RowsAffected, nil
}

func (r *CartRepo) ClearCart(ctx context.Context, cartID int64) error {
	err := r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&model.CartItem{}).Error
	if err != nil {
		return fmt.Errorf("clear cart %d: %w", cartID, err)
	}
	return nil
}
