package db_test

import (
	"context"
	"testing"
	"time"

	"github.com/Dafoe17/retail-platform-backend/internal/domain/model"
	"github.com/Dafoe17/retail-platform-backend/internal/infra/repository/db"
	"github.com/Dafoe17/retail-platform-backend/internal/infra/repository/db/dbtest"
	"github.com/Dafoe17/retail-platform-backend/internal/pkg/apperr"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type CartRepoTestSuite struct {
	suite.Suite
	ctx   context.Context
	store *db.Store
}

func (suite *CartRepoTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.store = dbtest.NewStore(suite.T())
}

func (suite *CartRepoTestSuite) TestCreateCartIfAbsent_OnePerOwner() {
	user := dbtest.SeedUser(suite.T(), suite.store, model.RoleCustomer)
	owner := model.CartOwner{UserID: user.ID}

	_, err := suite.store.GetCartByOwner(suite.ctx, owner)
	require.ErrorIs(suite.T(), err, apperr.ErrCartNotFound)

	require.NoError(suite.T(), suite.store.CreateCartIfAbsent(suite.ctx, owner))
	require.NoError(suite.T(), suite.store.CreateCartIfAbsent(suite.ctx, owner))

	cart, err := suite.store.GetCartByOwner(suite.ctx, owner)
	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), cart.UserID)
	require.Equal(suite.T(), user.ID, *cart.UserID)
}

func (suite *CartRepoTestSuite) TestAnonymousCart() {
	owner := model.CartOwner{SessionID: "7f1f3c5e-session"}
	require.NoError(suite.T(), suite.store.CreateCartIfAbsent(suite.ctx, owner))

	cart, err := suite.store.GetCartByOwner(suite.ctx, owner)
	require.NoError(suite.T(), err)
	require.Nil(suite.T(), cart.UserID)
	require.Equal(suite.T(), "7f1f3c5e-session", *cart.SessionID)

	_, err = suite.store.GetCartByOwner(suite.ctx, model.CartOwner{})
	require.ErrorIs(suite.T(), err, apperr.ErrCartNotFound)
}

func (suite *CartRepoTestSuite) TestItems() {
	owner := model.CartOwner{SessionID: "s-items"}
	require.NoError(suite.T(), suite.store.CreateCartIfAbsent(suite.ctx, owner))
	cart, err := suite.store.GetCartByOwner(suite.ctx, owner)
	require.NoError(suite.T(), err)

	a := dbtest.SeedProduct(suite.T(), suite.store, "a", 1000, 10)
	b := dbtest.SeedProduct(suite.T(), suite.store, "b", 500, 10)
	now := time.Now().UTC()
	itemA := &model.CartItem{CartID: cart.ID, ProductID: a.ID, Quantity: 2, UnitPrice: a.Price, AddedAt: now}
	itemB := &model.CartItem{CartID: cart.ID, ProductID: b.ID, Quantity: 1, UnitPrice: b.Price, AddedAt: now.Add(time.Second)}
	require.NoError(suite.T(), suite.store.UpsertCartItem(suite.ctx, itemA))
	require.NoError(suite.T(), suite.store.UpsertCartItem(suite.ctx, itemB))

	// 同商品只有一列, 數量相加且保留原單價
	dup := &model.CartItem{CartID: cart.ID, ProductID: a.ID, Quantity: 1, UnitPrice: a.Price + 999, AddedAt: now}
	require.NoError(suite.T(), suite.store.UpsertCartItem(suite.ctx, dup))

	got, err := suite.store.GetCartItemByProduct(suite.ctx, cart.ID, a.ID)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), itemA.ID, got.ID)
	require.Equal(suite.T(), 3, got.Quantity)
	require.Equal(suite.T(), a.Price, got.UnitPrice)

	require.NoError(suite.T(), suite.store.UpdateCartItemQuantity(suite.ctx, itemA.ID, 5))
	got, err = suite.store.GetCartItem(suite.ctx, cart.ID, itemA.ID)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), 5, got.Quantity)
	require.Equal(suite.T(), int64(5000), got.Subtotal())

	items, err := suite.store.GetCartItems(suite.ctx, cart.ID)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), items, 2)
	require.Equal(suite.T(), itemA.ID, items[0].ID)

	require.NoError(suite.T(), suite.store.DeleteCartItem(suite.ctx, cart.ID, itemB.ID))
	require.ErrorIs(suite.T(), suite.store.DeleteCartItem(suite.ctx, cart.ID, itemB.ID), apperr.ErrItemNotFound)

	n, err := suite.store.DeleteCartItems(suite.ctx, cart.ID, []int64{itemA.ID, itemB.ID})
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), int64(1), n)

	require.NoError(suite.T(), suite.store.ClearCart(suite.ctx, cart.ID))
	require.NoError(suite.T(), suite.store.ClearCart(suite.ctx, cart.ID))
}

func (suite *CartRepoTestSuite) TestGetCartItem_OtherCart() {
	require.NoError(suite.T(), suite.store.CreateCartIfAbsent(suite.ctx, model.CartOwner{SessionID: "one"}))
	require.NoError(suite.T(), suite.store.CreateCartIfAbsent(suite.ctx, model.CartOwner{SessionID: "two"}))
	one, err := suite.store.GetCartByOwner(suite.ctx, model.CartOwner{SessionID: "one"})
	require.NoError(suite.T(), err)
	two, err := suite.store.GetCartByOwner(suite.ctx, model.CartOwner{SessionID: "two"})
	require.NoError(suite.T(), err)

	p := dbtest.SeedProduct(suite.T(), suite.store, "p", 100, 1)
	item := &model.CartItem{CartID: one.ID, ProductID: p.ID, Quantity: 1, UnitPrice: 100, AddedAt: time.Now()}
	require.NoError(suite.T(), suite.store.UpsertCartItem(suite.ctx, item))

	_, err = suite.store.GetCartItem(suite.ctx, two.ID, item.ID)
	require.ErrorIs(suite.T(), err, apperr.ErrItemNotFound)
}

func TestCartRepoTestSuite(t *testing.T) {
	suite.Run(t, new(CartRepoTestSuite))
}
