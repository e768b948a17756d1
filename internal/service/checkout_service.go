package service

import (
	"context"
	"errors"
	"math"
	"sort"
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

const eventPublishTimeout = 5 * time.Second

type CheckoutRequest struct {
	ShippingAddress model.ShippingAddress
	Comment         string
}

type ICheckoutService interface {
	Checkout(ctx context.Context, userID int64, req CheckoutRequest) (*model.Order, error)
}

type CheckoutService struct {
	store   db.IStore
	pricing PricingPolicy
	events  producer.IOrderEventProducer
	cache   ProductCacheInvalidator
	logger  zerolog.Logger
	metrics *orderMetrics
}

var _ ICheckoutService = (*CheckoutService)(nil)

func NewCheckoutService(store db.IStore, pricing PricingPolicy, events producer.IOrderEventProducer, cache ProductCacheInvalidator, logger zerolog.Logger) *CheckoutService {
	if util.IsNil(store) {
		panic("NewCheckoutService: store cannot be nil")
	}
	if util.IsNil(pricing) {
		pricing = ZeroPricingPolicy{}
	}
	if util.IsNil(events) {
		events = producer.NopOrderEventProducer{}
	}
	if util.IsNil(cache) {
		cache = NopProductCacheInvalidator{}
	}
	return &CheckoutService{
		store:   store,
		pricing: pricing,
		events:  events,
		cache:   cache,
		logger:  logger,
		metrics: newOrderMetrics(),
	}
}

/*
Checkout 把使用者的購物車轉成訂單, 整段在同一個 transaction:

 1. 購物車不可為空, 收件地址必須完整
 2. 重新檢查每個品項 (上架中, 庫存足夠)
 3. 計算小計/運費/稅金
 4. 條件式扣庫存, 任一筆失敗整筆 rollback
 5. 建立訂單, 品項快照, 以及 pending 歷程
 6. 比對後刪除購物車品項, 數量不符代表購物車在結帳途中被改過

交易開始後不理會呼叫端取消.
事件發送與快取清除在提交後執行, 失敗只記 log.

錯誤:
  - ErrEmptyCart
  - ErrInvalidAddress
  - ErrProductUnavailable
  - ErrInsufficientStock
  - ErrCartChanged
*/
func (s *CheckoutService) Checkout(ctx context.Context, userID int64, req CheckoutRequest) (order *model.Order, err error) {
	ctx, span := tracer().Start(ctx, "CheckoutService.Checkout",
		trace.WithAttributes(attribute.Int64("user.id", userID)))
	defer func() { endSpan(span, err) }()

	txCtx := context.WithoutCancel(ctx)
	var productIDs []int64
	err = s.store.ExecTx(txCtx, func(tx db.IStore) error {
		cart, err := tx.GetCartByOwner(txCtx, model.CartOwner{UserID: userID})
		if errors.Is(err, apperr.ErrCartNotFound) {
			return apperr.ErrEmptyCart
		}
		if err != nil {
			return err
		}
		items, err := tx.GetCartItems(txCtx, cart.ID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return apperr.ErrEmptyCart
		}
		if err := req.ShippingAddress.Validate(); err != nil {
			return err
		}

		productIDs = make([]int64, 0, len(items))
		for _, item := range items {
			productIDs = append(productIDs, item.ProductID)
		}
		products, err := tx.GetProductsByIDs(txCtx, productIDs)
		if err != nil {
			return err
		}
		orderItems, subtotal, err := snapshotLines(items, products)
		if err != nil {
			return err
		}

		quote, err := s.pricing.Quote(txCtx, subtotal, items)
		if err != nil {
			return err
		}
		total := model.ComputeTotal(subtotal, quote.ShippingCost, quote.Tax, quote.Discount)
		if total < 0 {
			return apperr.ErrValidation.WithMessage("order total cannot be negative")
		}

		changes := make([]stockChange, 0, len(items))
		for _, item := range items {
			changes = append(changes, stockChange{productID: item.ProductID, quantity: item.Quantity})
		}
		for _, c := range inProductOrder(changes) {
			if err := tx.DecrementStock(txCtx, c.productID, c.quantity); err != nil {
				return err
			}
		}

		now := time.Now().UTC()
		order = &model.Order{
			UserID:          userID,
			Status:          model.OrderStatusPending,
			Subtotal:        subtotal,
			ShippingCost:    quote.ShippingCost,
			Discount:        quote.Discount,
			Tax:             quote.Tax,
			Total:           total,
			ShippingAddress: req.ShippingAddress,
			Comment:         req.Comment,
			Items:           orderItems,
			StatusHistory: []model.OrderStatusHistory{{
				Status:    model.OrderStatusPending,
				Comment:   "order created",
				ChangedAt: now,
			}},
		}
		if err := tx.CreateOrder(txCtx, order); err != nil {
			return err
		}

		itemIDs := make([]int64, 0, len(items))
		for _, item := range items {
			itemIDs = append(itemIDs, item.ID)
		}
		deleted, err := tx.DeleteCartItems(txCtx, cart.ID, itemIDs)
		if err != nil {
			return err
		}
		if deleted != int64(len(itemIDs)) {
			return apperr.ErrCartChanged
		}
		return tx.TouchCart(txCtx, cart.ID)
	})
	if err != nil {
		s.metrics.checkoutFail(txCtx, err)
		s.logger.Info().Err(err).Int64("user_id", userID).Msg("checkout rejected")
		return nil, err
	}

	span.SetAttributes(
		attribute.Int64("order.id", order.ID),
		attribute.String("order.number", order.OrderNumber),
		attribute.Int64("order.total", order.Total),
	)
	s.metrics.checkoutDone(txCtx, order.Total)
	s.cache.InvalidateProducts(txCtx, productIDs...)
	publishOrderEvent(txCtx, s.events, s.logger, event.NewOrderCreatedEvent(order))

	s.logger.Info().
		Int64("user_id", userID).
		Int64("order_id", order.ID).
		Str("order_number", order.OrderNumber).
		Int64("total", order.Total).
		Msg("order created")
	return order, nil
}

// snapshotLines 依目前商品資料檢查每個品項並建立訂單品項快照.
// 單價沿用加入購物車時凍結的價格.
func snapshotLines(items []model.CartItem, products []model.Product) ([]model.OrderItem, int64, error) {
	byID := make(map[int64]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	var subtotal int64
	lines := make([]model.OrderItem, 0, len(items))
	for _, item := range items {
		p, ok := byID[item.ProductID]
		if !ok || !p.IsActive {
			return nil, 0, apperr.ErrProductUnavailable.WithMessage("product %d is no longer available", item.ProductID)
		}
		if p.Stock < int64(item.Quantity) {
			return nil, 0, apperr.ErrInsufficientStock.WithMessage("only %d of %q in stock", p.Stock, p.Name)
		}
		if subtotal > math.MaxInt64-item.Subtotal() {
			return nil, 0, apperr.ErrValidation.WithMessage("order subtotal is too large")
		}
		lines = append(lines, model.OrderItem{
			ProductID:   p.ID,
			ProductName: p.Name,
			ProductSlug: p.Slug,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Subtotal:    item.Subtotal(),
		})
		subtotal += item.Subtotal()
	}
	return lines, subtotal, nil
}

type stockChange struct {
	productID int64
	quantity  int
}

// inProductOrder 依 product id 排序, 同一批庫存更新的列鎖順序固定
func inProductOrder(changes []stockChange) []stockChange {
	sort.Slice(changes, func(i, j int) bool { return changes[i].productID < changes[j].productID })
	return changes
}

// publishOrderEvent 交易提交後送出事件, 失敗不影響已成立的訂單
func publishOrderEvent(ctx context.Context, events producer.IOrderEventProducer, logger zerolog.Logger, evt event.Event) {
	ctx, cancel := context.WithTimeout(ctx, eventPublishTimeout)
	defer cancel()
	if err := events.ProduceOrderEvent(ctx, evt); err != nil {
		logger.Error().Err(err).
			Str("event_type", string(evt.Type())).
			Str("key", evt.Key()).
			Msg("publish order event failed")
	}
}
