package service

import (
	"context"
	"time"

	"github.com/Dafoe17/retail-platform-backend/internal/domain/model"
	"github.com/Dafoe17/retail-platform-backend/internal/domain/model/event"
	"github.com/Dafoe17/retail-platform-backend/internal/infra/producer"
	"github.com/Dafoe17/retail-platform-backend/internal/infra/repository/db"
	"github.com/Dafoe17/retail-platform-backend/internal/pkg/apperr"
	"github.com/Dafoe17/retail-platform-backend/internal/pkg/util"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type ListOrdersQuery struct {
	Status   *model.OrderStatus
	Page     int
	PageSize int
}

type IOrderService interface {
	ListOrders(ctx context.Context, actor model.Identity, query ListOrdersQuery) (*model.Page[model.Order], error)
	GetOrder(ctx context.Context, actor model.Identity, orderID int64) (*model.Order, error)
	Cancel(ctx context.Context, actor model.Identity, orderID int64, comment string) (*model.Order, error)
	UpdateStatus(ctx context.Context, actor model.Identity, orderID int64, status model.OrderStatus, comment string) (*model.Order, error)
}

type OrderService struct {
	store           db.IStore
	events          producer.IOrderEventProducer
	cache           ProductCacheInvalidator
	logger          zerolog.Logger
	metrics         *orderMetrics
	defaultPageSize int
	maxPageSize     int
}

var _ IOrderService = (*OrderService)(nil)

func NewOrderService(store db.IStore, events producer.IOrderEventProducer, cache ProductCacheInvalidator, logger zerolog.Logger, defaultPageSize, maxPageSize int) *OrderService {
	if util.IsNil(store) {
		panic("NewOrderService: store cannot be nil")
	}
	if util.IsNil(events) {
		events = producer.NopOrderEventProducer{}
	}
	if util.IsNil(cache) {
		cache = NopProductCacheInvalidator{}
	}
	return &OrderService{
		store:           store,
		events:          events,
		cache:           cache,
		logger:          logger,
		metrics:         newOrderMetrics(),
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
	}
}

// ListOrders 一般使用者只看得到自己的訂單, admin 看全部
func (s *OrderService) ListOrders(ctx context.Context, actor model.Identity, query ListOrdersQuery) (*model.Page[model.Order], error) {
	if query.Status != nil && !query.Status.IsValid() {
		return nil, apperr.ErrInvalidStatus.WithMessage("unknown order status %q", *query.Status)
	}
	page, size := util.NormalizePage(query.Page, query.PageSize, s.defaultPageSize, s.maxPageSize)
	filter := model.OrderFilter{Status: query.Status, Page: page, PageSize: size}
	if !actor.IsAdmin() {
		uid := actor.UserID
		filter.UserID = &uid
	}
	return s.store.ListOrders(ctx, filter)
}

// GetOrder 別人的訂單一律當作不存在
func (s *OrderService) GetOrder(ctx context.Context, actor model.Identity, orderID int64) (*model.Order, error) {
	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !canSee(actor, order) {
		return nil, apperr.ErrOrderNotFound
	}
	return order, nil
}

func canSee(actor model.Identity, order *model.Order) bool {
	return actor.IsAdmin() || order.UserID == actor.UserID
}

// Cancel 只能從 pending/confirmed/processing 取消, 並歸還所有品項的庫存
// 錯誤:
//   - ErrOrderNotFound
//   - ErrInvalidTransition: 目前狀態不可取消, 或狀態已被並發請求改變
func (s *OrderService) Cancel(ctx context.Context, actor model.Identity, orderID int64, comment string) (order *model.Order, err error) {
	ctx, span := tracer().Start(ctx, "OrderService.Cancel",
		trace.WithAttributes(attribute.Int64("order.id", orderID)))
	defer func() { endSpan(span, err) }()

	if comment == "" {
		comment = "cancelled by customer"
		if actor.IsAdmin() {
			comment = "cancelled by admin"
		}
	}
	return s.transition(ctx, actor, orderID, model.OrderStatusCancelled, comment)
}

// UpdateStatus admin 專用, 依狀態機推進訂單
// 錯誤:
//   - ErrForbidden
//   - ErrInvalidStatus: 不認得的狀態
//   - ErrOrderNotFound
//   - ErrInvalidTransition
func (s *OrderService) UpdateStatus(ctx context.Context, actor model.Identity, orderID int64, status model.OrderStatus, comment string) (order *model.Order, err error) {
	ctx, span := tracer().Start(ctx, "OrderService.UpdateStatus",
		trace.WithAttributes(
			attribute.Int64("order.id", orderID),
			attribute.String("order.status", string(status)),
		))
	defer func() { endSpan(span, err) }()

	if !actor.IsAdmin() {
		return nil, apperr.ErrForbidden
	}
	if !status.IsValid() {
		return nil, apperr.ErrInvalidStatus.WithMessage("unknown order status %q", status)
	}
	return s.transition(ctx, actor, orderID, status, comment)
}

/*
transition 在同一個 transaction 內:
檢查狀態機 -> 以 compare-and-set 更新狀態 -> 取消時歸還庫存 -> 寫入歷程.
提交後送出事件並清除被歸還商品的快取.
*/
func (s *OrderService) transition(ctx context.Context, actor model.Identity, orderID int64, to model.OrderStatus, comment string) (*model.Order, error) {
	txCtx := context.WithoutCancel(ctx)
	var (
		order *model.Order
		from  model.OrderStatus
	)
	err := s.store.ExecTx(txCtx, func(tx db.IStore) error {
		current, err := tx.GetOrderByID(txCtx, orderID)
		if err != nil {
			return err
		}
		if !canSee(actor, current) {
			return apperr.ErrOrderNotFound
		}

		from = current.Status
		if !from.CanTransitionTo(to) {
			return apperr.ErrInvalidTransition.WithMessage("cannot change order from %s to %s", from, to)
		}
		if err := tx.CompareAndSetOrderStatus(txCtx, current.ID, []model.OrderStatus{from}, to); err != nil {
			return err
		}
		if to == model.OrderStatusCancelled {
			changes := make([]stockChange, 0, len(current.Items))
			for _, item := range current.Items {
				changes = append(changes, stockChange{productID: item.ProductID, quantity: item.Quantity})
			}
			for _, c := range inProductOrder(changes) {
				if err := tx.RestoreStock(txCtx, c.productID, c.quantity); err != nil {
					return err
				}
			}
		}
		err = tx.AppendOrderStatusHistory(txCtx, &model.OrderStatusHistory{
			OrderID:   current.ID,
			Status:    to,
			Comment:   comment,
			ChangedAt: time.Now().UTC(),
		})
		if err != nil {
			return err
		}

		order, err = tx.GetOrderByID(txCtx, current.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.transition(txCtx, string(from), string(to))
	if to == model.OrderStatusCancelled {
		ids := make([]int64, 0, len(order.Items))
		for _, item := range order.Items {
			ids = append(ids, item.ProductID)
		}
		s.cache.InvalidateProducts(txCtx, ids...)
		publishOrderEvent(txCtx, s.events, s.logger, event.NewOrderCancelledEvent(order, from))
	} else {
		publishOrderEvent(txCtx, s.events, s.logger, event.NewOrderStatusChangedEvent(order, from, comment))
	}

	s.logger.Info().
		Int64("order_id", order.ID).
		Str("from", string(from)).
		Str("to", string(to)).
		Int64("actor_id", actor.UserID).
		Msg("order status changed")
	return order, nil
}
