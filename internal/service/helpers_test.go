package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Dafoe17/retail-platform-backend/internal/domain/model"
	"github.com/Dafoe17/retail-platform-backend/internal/domain/model/event"
	"github.com/Dafoe17/retail-platform-backend/internal/infra/repository/db"
	"github.com/Dafoe17/retail-platform-backend/internal/pkg/apperr"
	"github.com/stretchr/testify/require"
)

var errInjected = errors.New("injected failure")

type recordingEvents struct {
	mu     sync.Mutex
	events []event.Event
}

func (r *recordingEvents) ProduceOrderEvent(_ context.Context, evt event.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return nil
}

func (r *recordingEvents) types() []event.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]event.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type())
	}
	return out
}

type recordingInvalidator struct {
	mu  sync.Mutex
	ids []int64
}

func (r *recordingInvalidator) InvalidateProducts(_ context.Context, ids ...int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, ids...)
}

// stockLog 記錄 transaction 內扣/補庫存的商品順序
type stockLog struct {
	mu        sync.Mutex
	decrement []int64
	restore   []int64
}

// faultyStore 在 transaction 內把指定操作換成失敗
type faultyStore struct {
	db.IStore
	failCreateOrder bool
	shortDelete     bool
	failSetStock    bool
	// missItemLookup 第一次查購物車品項時假裝不存在, 模擬並發加入同一商品
	missItemLookup bool
	missed         bool
	stock          *stockLog
}

func (f *faultyStore) ExecTx(ctx context.Context, fn func(db.IStore) error) error {
	return f.IStore.ExecTx(ctx, func(tx db.IStore) error {
		return fn(&faultyStore{
			IStore:          tx,
			failCreateOrder: f.failCreateOrder,
			shortDelete:     f.shortDelete,
			failSetStock:    f.failSetStock,
			missItemLookup:  f.missItemLookup,
			stock:           f.stock,
		})
	})
}

func (f *faultyStore) CreateOrder(ctx context.Context, order *model.Order) error {
	if f.failCreateOrder {
		return errInjected
	}
	return f.IStore.CreateOrder(ctx, order)
}

func (f *faultyStore) DeleteCartItems(ctx context.Context, cartID int64, itemIDs []int64) (int64, error) {
	if f.shortDelete {
		n, err := f.IStore.DeleteCartItems(ctx, cartID, itemIDs[:len(itemIDs)-1])
		return n, err
	}
	return f.IStore.DeleteCartItems(ctx, cartID, itemIDs)
}

func (f *faultyStore) SetStock(ctx context.Context, id int64, stock int64) error {
	if f.failSetStock {
		return errInjected
	}
	return f.IStore.SetStock(ctx, id, stock)
}

func (f *faultyStore) GetCartItemByProduct(ctx context.Context, cartID, productID int64) (*model.CartItem, error) {
	if f.missItemLookup && !f.missed {
		f.missed = true
		return nil, apperr.ErrItemNotFound
	}
	return f.IStore.GetCartItemByProduct(ctx, cartID, productID)
}

func (f *faultyStore) DecrementStock(ctx context.Context, productID int64, quantity int) error {
	if f.stock != nil {
		f.stock.mu.Lock()
		f.stock.decrement = append(f.stock.decrement, productID)
		f.stock.mu.Unlock()
	}
	return f.IStore.DecrementStock(ctx, productID, quantity)
}

func (f *faultyStore) RestoreStock(ctx context.Context, productID int64, quantity int) error {
	if f.stock != nil {
		f.stock.mu.Lock()
		f.stock.restore = append(f.stock.restore, productID)
		f.stock.mu.Unlock()
	}
	return f.IStore.RestoreStock(ctx, productID, quantity)
}

// cachedProducts 帶有清快取能力的商品 repository
type cachedProducts struct {
	db.IProductRepository
	*recordingInvalidator
}

func validAddress() model.ShippingAddress {
	return model.ShippingAddress{
		RecipientName: "Ada Lovelace",
		Phone:         "+15551234567",
		Country:       "US",
		City:          "Springfield",
		Street:        "Evergreen Terrace",
		Building:      "742",
		PostalCode:    "49007",
	}
}

func productStock(t *testing.T, store db.IStore, id int64) int64 {
	t.Helper()
	p, err := store.GetProductByID(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}
