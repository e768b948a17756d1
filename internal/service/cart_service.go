package service

import (
	"context"
	"errors"
	"time"

	"github.com/Dafoe17/retail-platform-backend/internal/domain/model"
	"github.com/Dafoe17/retail-platform-backend/internal/infra/repository/db"
	"github.com/Dafoe17/retail-platform-backend/internal/pkg/apperr"
	"github.com/Dafoe17/retail-platform-backend/internal/pkg/util"
	"github.com/rs/zerolog"
)

type ICartService interface {
	GetCart(ctx context.Context, owner model.CartOwner) (*model.CartView, error)
	AddItem(ctx context.Context, owner model.CartOwner, productID int64, quantity int) (*model.CartView, error)
	UpdateItemQuantity(ctx context.Context, owner model.CartOwner, itemID int64, quantity int) (*model.CartView, error)
	RemoveItem(ctx context.Context, owner model.CartOwner, itemID int64) (*model.CartView, error)
	Clear(ctx context.Context, owner model.CartOwner) (*model.CartView, error)
}

/*
購物車的所有異動都在 ExecTx 內讀 db 後寫入,
回傳的 CartView 在交易提交後才組出來, 商品資訊同樣直接讀 db.
*/
type CartService struct {
	store  db.IStore
	logger zerolog.Logger
}

var _ ICartService = (*CartService)(nil)

func NewCartService(store db.IStore, logger zerolog.Logger) *CartService {
	if util.IsNil(store) {
		panic("NewCartService: store cannot be nil")
	}
	return &CartService{store: store, logger: logger}
}

// getOrCreateCart 找不到就建立, 並發建立時以唯一索引保證只有一台
func getOrCreateCart(ctx context.Context, store db.IStore, owner model.CartOwner) (*model.Cart, error) {
	if !owner.Valid() {
		return nil, apperr.ErrCartNotFound.WithMessage("cart owner is missing")
	}
	cart, err := store.GetCartByOwner(ctx, owner)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, apperr.ErrCartNotFound) {
		return nil, err
	}
	if err := store.CreateCartIfAbsent(ctx, owner); err != nil {
		return nil, err
	}
	return store.GetCartByOwner(ctx, owner)
}

func (s *CartService) GetCart(ctx context.Context, owner model.CartOwner) (*model.CartView, error) {
	var cart *model.Cart
	err := s.store.ExecTx(ctx, func(tx db.IStore) error {
		var err error
		cart, err = getOrCreateCart(ctx, tx, owner)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.view(ctx, cart)
}

// AddItem 加入商品, 已存在則合併數量.
// 單價在第一次加入時凍結, 合併不會改價.
// 錯誤:
//   - ErrInvalidQuantity: 數量不在 1..99
//   - ErrProductNotFound / ErrProductUnavailable: 商品不存在或已下架
//   - ErrQuantityExceeded: 合併後超過 99
//   - ErrInsufficientStock: (合併後) 數量大於目前庫存
func (s *CartService) AddItem(ctx context.Context, owner model.CartOwner, productID int64, quantity int) (*model.CartView, error) {
	if !model.IsValidQuantity(quantity) {
		return nil, apperr.ErrInvalidQuantity
	}

	var cart *model.Cart
	err := s.store.ExecTx(ctx, func(tx db.IStore) error {
		var err error
		cart, err = getOrCreateCart(ctx, tx, owner)
		if err != nil {
			return err
		}

		product, err := tx.GetProductByID(ctx, productID)
		if err != nil {
			return err
		}
		if !product.IsActive {
			return apperr.ErrProductUnavailable.WithMessage("product %q is not available", product.Name)
		}

		existing, err := tx.GetCartItemByProduct(ctx, cart.ID, productID)
		switch {
		case err == nil:
			merged := existing.Quantity + quantity
			if merged > model.MaxItemQuantity {
				return apperr.ErrQuantityExceeded
			}
			if int64(merged) > product.Stock {
				return apperr.ErrInsufficientStock.WithMessage("only %d of %q in stock", product.Stock, product.Name)
			}
			if err := tx.UpdateCartItemQuantity(ctx, existing.ID, merged); err != nil {
				return err
			}
		case errors.Is(err, apperr.ErrItemNotFound):
			if int64(quantity) > product.Stock {
				return apperr.ErrInsufficientStock.WithMessage("only %d of %q in stock", product.Stock, product.Name)
			}
			item := &model.CartItem{
				CartID:    cart.ID,
				ProductID: productID,
				Quantity:  quantity,
				UnitPrice: product.Price,
				AddedAt:   time.Now().UTC(),
			}
			if err := tx.UpsertCartItem(ctx, item); err != nil {
				return err
			}
			// 並發加入同一商品時會合併到既有的那一列, 重新檢查合併後數量
			saved, err := tx.GetCartItemByProduct(ctx, cart.ID, productID)
			if err != nil {
				return err
			}
			if saved.Quantity > model.MaxItemQuantity {
				return apperr.ErrQuantityExceeded
			}
			if int64(saved.Quantity) > product.Stock {
				return apperr.ErrInsufficientStock.WithMessage("only %d of %q in stock", product.Stock, product.Name)
			}
		default:
			return err
		}
		return tx.TouchCart(ctx, cart.ID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug().Int64("cart_id", cart.ID).Int64("product_id", productID).Int("quantity", quantity).Msg("cart item added")
	return s.view(ctx, cart)
}

// UpdateItemQuantity 直接設定數量 (非累加)
// 錯誤:
//   - ErrInvalidQuantity
//   - ErrItemNotFound: 品項不屬於此購物車
//   - ErrInsufficientStock
func (s *CartService) UpdateItemQuantity(ctx context.Context, owner model.CartOwner, itemID int64, quantity int) (*model.CartView, error) {
	if !model.IsValidQuantity(quantity) {
		return nil, apperr.ErrInvalidQuantity
	}

	var cart *model.Cart
	err := s.store.ExecTx(ctx, func(tx db.IStore) error {
		var err error
		cart, err = getOrCreateCart(ctx, tx, owner)
		if err != nil {
			return err
		}
		item, err := tx.GetCartItem(ctx, cart.ID, itemID)
		if err != nil {
			return err
		}
		product, err := tx.GetProductByID(ctx, item.ProductID)
		if err != nil {
			return err
		}
		if int64(quantity) > product.Stock {
			return apperr.ErrInsufficientStock.WithMessage("only %d of %q in stock", product.Stock, product.Name)
		}
		if err := tx.UpdateCartItemQuantity(ctx, item.ID, quantity); err != nil {
			return err
		}
		return tx.TouchCart(ctx, cart.ID)
	})
	if err != nil {
		return nil, err
	}
	return s.view(ctx, cart)
}

// RemoveItem 移除不存在的品項回傳 ErrItemNotFound
func (s *CartService) RemoveItem(ctx context.Context, owner model.CartOwner, itemID int64) (*model.CartView, error) {
	var cart *model.Cart
	err := s.store.ExecTx(ctx, func(tx db.IStore) error {
		var err error
		cart, err = getOrCreateCart(ctx, tx, owner)
		if err != nil {
			return err
		}
		if err := tx.DeleteCartItem(ctx, cart.ID, itemID); err != nil {
			return err
		}
		return tx.TouchCart(ctx, cart.ID)
	})
	if err != nil {
		return nil, err
	}
	return s.view(ctx, cart)
}

// Clear 清空購物車, 重複呼叫結果相同
func (s *CartService) Clear(ctx context.Context, owner model.CartOwner) (*model.CartView, error) {
	var cart *model.Cart
	err := s.store.ExecTx(ctx, func(tx db.IStore) error {
		var err error
		cart, err = getOrCreateCart(ctx, tx, owner)
		if err != nil {
			return err
		}
		if err := tx.ClearCart(ctx, cart.ID); err != nil {
			return err
		}
		return tx.TouchCart(ctx, cart.ID)
	})
	if err != nil {
		return nil, err
	}
	return s.view(ctx, cart)
}

func (s *CartService) view(ctx context.Context, cart *model.Cart) (*model.CartView, error) {
	items, err := s.store.GetCartItems(ctx, cart.ID)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.store.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return BuildCartView(cart, items, products), nil
}

// BuildCartView 組合購物車畫面, 商品缺失時該行標記為不可購買
func BuildCartView(cart *model.Cart, items []model.CartItem, products []model.Product) *model.CartView {
	byID := make(map[int64]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	view := &model.CartView{
		ID:        cart.ID,
		UserID:    cart.UserID,
		Items:     make([]model.CartLineView, 0, len(items)),
		CreatedAt: cart.CreatedAt,
		UpdatedAt: cart.UpdatedAt,
	}
	for _, item := range items {
		line := model.CartLineView{
			ItemID:    item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Subtotal:  item.Subtotal(),
			AddedAt:   item.AddedAt,
		}
		if p, ok := byID[item.ProductID]; ok {
			line.ProductName = p.Name
			line.ProductSlug = p.Slug
			line.ProductImage = p.MainImage()
			line.IsAvailable = p.IsAvailable()
			line.StockAvailable = p.Stock
		}
		view.Total += line.Subtotal
		view.ItemsCount += line.Quantity
		view.Items = append(view.Items, line)
	}
	return view
}
