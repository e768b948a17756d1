package db

import (
	"context"
	"fmt"

	"github.com/Dafoe17/retail-platform-backend/internal/domain/model"
	"github.com/Dafoe17/retail-platform-backend/internal/pkg/apperr"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type IOrderRepository interface {
	CreateOrder(ctx context.Context, order *model.Order) error
	GetOrderByID(ctx context.Context, id int64) (*model.Order, error)
	ListOrders(ctx context.Context, filter model.OrderFilter) (*model.Page[model.Order], error)
	CompareAndSetOrderStatus(ctx context.Context, id int64, from []model.OrderStatus, to model.OrderStatus) error
	AppendOrderStatusHistory(ctx context.Context, entry *model.OrderStatusHistory) error
}

type OrderRepo struct {
	db *gorm.DB
}

var _ IOrderRepository = (*OrderRepo)(nil)

func NewOrderRepo(db *gorm.DB) *OrderRepo {
	return &OrderRepo{db: db}
}

// CreateOrder 連同 Items 與 StatusHistory 一起寫入, 寫入後依 id 產生訂單編號.
// 必須在 transaction 內呼叫.
func (r *OrderRepo) CreateOrder(ctx context.Context, order *model.Order) error {
	order.OrderNumber = "TMP-" + uuid.NewString()
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return fmt.Errorf("create order: %w", err)
	}

	number := model.FormatOrderNumber(order.CreatedAt, order.ID)
	err := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", order.ID).
		Update("order_number", number).Error
	if err != nil {
		return fmt.Errorf("assign order number to %d: %w", order.ID, err)
	}
	order.OrderNumber = number
	return nil
}

func preloadOrderDetail(q *gorm.DB) *gorm.DB {
	return q.
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("changed_at ASC, id ASC")
		})
}

func (r *OrderRepo) GetOrderByID(ctx context.Context, id int64) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Scopes(preloadOrderDetail).
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err, apperr.ErrOrderNotFound, "get order %d", id)
	}
	return &order, nil
}

func orderFilterScope(f model.OrderFilter) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		if f.UserID != nil {
			q = q.Where("user_id = ?", *f.UserID)
		}
		if f.Status != nil {
			q = q.Where("status = ?", string(*f.Status))
		}
		return q
	}
}

func (r *OrderRepo) ListOrders(ctx context.Context, filter model.OrderFilter) (*model.Page[model.Order], error) {
	page := &model.Page[model.Order]{Page: filter.Page, PageSize: filter.PageSize}

	err := r.db.WithContext(ctx).Model(&model.Order{}).
		Scopes(orderFilterScope(filter)).
		Count(&page.Total).Error
	if err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}

	err = r.db.WithContext(ctx).
		Scopes(orderFilterScope(filter)).
		Preload("Items").
		Order("created_at DESC, id DESC").
		Offset((filter.Page - 1) * filter.PageSize).
		Limit(filter.PageSize).
		Find(&page.Items).Error
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return page, nil
}

// CompareAndSetOrderStatus 只有目前狀態仍在 from 之中才會更新,
// 否則回傳 ErrInvalidTransition (狀態已被其他請求改變)
func (r *OrderRepo) CompareAndSetOrderStatus(ctx context.Context, id int64, from []model.OrderStatus, to model.OrderStatus) error {
	fromStatuses := make([]string, 0, len(from))
	for _, st := range from {
		fromStatuses = append(fromStatuses, string(st))
	}
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status IN ?", id, fromStatuses).
		Update("status", string(to))
	if res.Error != nil {
		return fmt.Errorf("set status of order %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrInvalidTransition
	}
	return nil
}

func (r *OrderRepo) AppendOrderStatusHistory(ctx context.Context, entry *model.OrderStatusHistory) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("append status history of order %d: %w", entry.OrderID, err)
	}
	return nil
}
