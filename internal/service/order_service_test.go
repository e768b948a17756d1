package service

import (
	"context"
	"testing"

	"github.com/Dafoe17/retail-platform-backend/internal/domain/model"
	"github.com/Dafoe17/retail-platform-backend/internal/domain/model/event"
	"github.com/Dafoe17/retail-platform-backend/internal/infra/repository/db"
	"github.com/Dafoe17/retail-platform-backend/internal/infra/repository/db/dbtest"
	"github.com/Dafoe17/retail-platform-backend/internal/pkg/apperr"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type OrderServiceTestSuite struct {
	suite.Suite
	ctx      context.Context
	store    *db.Store
	events   *recordingEvents
	cache    *recordingInvalidator
	carts    *CartService
	checkout *CheckoutService
	orders   *OrderService
	customer model.Identity
	admin    model.Identity
}

func (suite *OrderServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.store = dbtest.NewStore(suite.T())
	suite.events = &recordingEvents{}
	suite.cache = &recordingInvalidator{}
	suite.carts = NewCartService(suite.store, zerolog.Nop())
	suite.checkout = NewCheckoutService(suite.store, nil, nil, nil, zerolog.Nop())
	suite.orders = NewOrderService(suite.store, suite.events, suite.cache, zerolog.Nop(), 20, 100)

	customer := dbtest.SeedUser(suite.T(), suite.store, model.RoleCustomer)
	admin := dbtest.SeedUser(suite.T(), suite.store, model.RoleAdmin)
	suite.customer = model.Identity{UserID: customer.ID, Role: customer.Role}
	suite.admin = model.Identity{UserID: admin.ID, Role: admin.Role}
}

// placeOrder 以 customer 身分買 qty 個新商品, 回傳訂單與商品
func (suite *OrderServiceTestSuite) placeOrder(who model.Identity, stock int64, qty int) (*model.Order, *model.Product) {
	p := dbtest.SeedProduct(suite.T(), suite.store, "item", 1000, stock)
	_, err := suite.carts.AddItem(suite.ctx, model.CartOwner{UserID: who.UserID}, p.ID, qty)
	require.NoError(suite.T(), err)
	order, err := suite.checkout.Checkout(suite.ctx, who.UserID, CheckoutRequest{ShippingAddress: validAddress()})
	require.NoError(suite.T(), err)
	return order, p
}

func (suite *OrderServiceTestSuite) advance(orderID int64, statuses ...model.OrderStatus) {
	for _, st := range statuses {
		_, err := suite.orders.UpdateStatus(suite.ctx, suite.admin, orderID, st, "")
		require.NoError(suite.T(), err)
	}
}

func (suite *OrderServiceTestSuite) TestCancel_RestoresStock() {
	order, p := suite.placeOrder(suite.customer, 5, 3)
	require.Equal(suite.T(), int64(2), productStock(suite.T(), suite.store, p.ID))

	cancelled, err := suite.orders.Cancel(suite.ctx, suite.customer, order.ID, "")
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), model.OrderStatusCancelled, cancelled.Status)
	require.Equal(suite.T(), int64(5), productStock(suite.T(), suite.store, p.ID))

	require.Len(suite.T(), cancelled.StatusHistory, 2)
	require.Equal(suite.T(), model.OrderStatusCancelled, cancelled.StatusHistory[1].Status)
	require.Equal(suite.T(), "cancelled by customer", cancelled.StatusHistory[1].Comment)

	require.Equal(suite.T(), []event.EventType{event.OrderCancelledEventName}, suite.events.types())
	require.Equal(suite.T(), []int64{p.ID}, suite.cache.ids)

	// 已取消不能再取消
	_, err = suite.orders.Cancel(suite.ctx, suite.customer, order.ID, "")
	require.ErrorIs(suite.T(), err, apperr.ErrInvalidTransition)
	require.Equal(suite.T(), int64(5), productStock(suite.T(), suite.store, p.ID))
}

func (suite *OrderServiceTestSuite) TestCancel_RestoresInProductOrder() {
	a := dbtest.SeedProduct(suite.T(), suite.store, "press", 3000, 4)
	b := dbtest.SeedProduct(suite.T(), suite.store, "funnel", 500, 4)
	owner := model.CartOwner{UserID: suite.customer.UserID}
	_, err := suite.carts.AddItem(suite.ctx, owner, b.ID, 1)
	require.NoError(suite.T(), err)
	_, err = suite.carts.AddItem(suite.ctx, owner, a.ID, 3)
	require.NoError(suite.T(), err)
	order, err := suite.checkout.Checkout(suite.ctx, suite.customer.UserID, CheckoutRequest{ShippingAddress: validAddress()})
	require.NoError(suite.T(), err)

	log := &stockLog{}
	orders := NewOrderService(&faultyStore{IStore: suite.store, stock: log}, suite.events, suite.cache, zerolog.Nop(), 20, 100)
	_, err = orders.Cancel(suite.ctx, suite.customer, order.ID, "")
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), []int64{a.ID, b.ID}, log.restore)
	require.Equal(suite.T(), int64(4), productStock(suite.T(), suite.store, a.ID))
	require.Equal(suite.T(), int64(4), productStock(suite.T(), suite.store, b.ID))
}

func (suite *OrderServiceTestSuite) TestCancel_FromProcessing() {
	order, p := suite.placeOrder(suite.customer, 2, 2)
	suite.advance(order.ID, model.OrderStatusConfirmed, model.OrderStatusProcessing)

	_, err := suite.orders.Cancel(suite.ctx, suite.customer, order.ID, "changed my mind")
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), int64(2), productStock(suite.T(), suite.store, p.ID))
}

func (suite *OrderServiceTestSuite) TestCancel_ShippedIsRejected() {
	order, p := suite.placeOrder(suite.customer, 5, 1)
	suite.advance(order.ID, model.OrderStatusConfirmed, model.OrderStatusProcessing, model.OrderStatusShipped)

	_, err := suite.orders.Cancel(suite.ctx, suite.customer, order.ID, "")
	require.ErrorIs(suite.T(), err, apperr.ErrInvalidTransition)
	require.Equal(suite.T(), apperr.KindConflict, apperr.KindOf(err))

	stored, err := suite.store.GetOrderByID(suite.ctx, order.ID)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), model.OrderStatusShipped, stored.Status)
	require.Len(suite.T(), stored.StatusHistory, 4)
	require.Equal(suite.T(), int64(4), productStock(suite.T(), suite.store, p.ID))
}

func (suite *OrderServiceTestSuite) TestCancel_OtherCustomersOrder() {
	order, _ := suite.placeOrder(suite.customer, 5, 1)
	stranger := dbtest.SeedUser(suite.T(), suite.store, model.RoleCustomer)

	_, err := suite.orders.Cancel(suite.ctx, model.Identity{UserID: stranger.ID, Role: model.RoleCustomer}, order.ID, "")
	require.ErrorIs(suite.T(), err, apperr.ErrOrderNotFound)

	_, err = suite.orders.Cancel(suite.ctx, suite.admin, order.ID, "")
	require.NoError(suite.T(), err)
}

func (suite *OrderServiceTestSuite) TestUpdateStatus_Lifecycle() {
	order, p := suite.placeOrder(suite.customer, 5, 2)
	suite.advance(order.ID,
		model.OrderStatusConfirmed,
		model.OrderStatusProcessing,
		model.OrderStatusShipped,
		model.OrderStatusDelivered,
	)

	refunded, err := suite.orders.UpdateStatus(suite.ctx, suite.admin, order.ID, model.OrderStatusRefunded, "damaged")
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), model.OrderStatusRefunded, refunded.Status)
	require.Len(suite.T(), refunded.StatusHistory, 6)
	require.Equal(suite.T(), "damaged", refunded.StatusHistory[5].Comment)
	// 退款不回補庫存
	require.Equal(suite.T(), int64(3), productStock(suite.T(), suite.store, p.ID))

	for _, st := range []model.OrderStatus{model.OrderStatusPending, model.OrderStatusCancelled, model.OrderStatusDelivered} {
		_, err = suite.orders.UpdateStatus(suite.ctx, suite.admin, order.ID, st, "")
		require.ErrorIs(suite.T(), err, apperr.ErrInvalidTransition, "to %s", st)
	}
	require.Len(suite.T(), suite.events.types(), 5)
}

func (suite *OrderServiceTestSuite) TestUpdateStatus_Rejections() {
	order, _ := suite.placeOrder(suite.customer, 5, 1)

	_, err := suite.orders.UpdateStatus(suite.ctx, suite.customer, order.ID, model.OrderStatusConfirmed, "")
	require.ErrorIs(suite.T(), err, apperr.ErrForbidden)

	_, err = suite.orders.UpdateStatus(suite.ctx, suite.admin, order.ID, model.OrderStatus("lost"), "")
	require.ErrorIs(suite.T(), err, apperr.ErrInvalidStatus)

	_, err = suite.orders.UpdateStatus(suite.ctx, suite.admin, order.ID, model.OrderStatusShipped, "")
	require.ErrorIs(suite.T(), err, apperr.ErrInvalidTransition)

	_, err = suite.orders.UpdateStatus(suite.ctx, suite.admin, 9999, model.OrderStatusConfirmed, "")
	require.ErrorIs(suite.T(), err, apperr.ErrOrderNotFound)
}

func (suite *OrderServiceTestSuite) TestUpdateStatus_CancelRestoresStock() {
	order, p := suite.placeOrder(suite.customer, 4, 4)
	suite.advance(order.ID, model.OrderStatusConfirmed)

	_, err := suite.orders.UpdateStatus(suite.ctx, suite.admin, order.ID, model.OrderStatusCancelled, "out of region")
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), int64(4), productStock(suite.T(), suite.store, p.ID))
}

func (suite *OrderServiceTestSuite) TestListAndGet_Ownership() {
	mine, _ := suite.placeOrder(suite.customer, 5, 1)
	otherUser := dbtest.SeedUser(suite.T(), suite.store, model.RoleCustomer)
	other := model.Identity{UserID: otherUser.ID, Role: model.RoleCustomer}
	theirs, _ := suite.placeOrder(other, 5, 1)
	suite.advance(theirs.ID, model.OrderStatusConfirmed)

	page, err := suite.orders.ListOrders(suite.ctx, suite.customer, ListOrdersQuery{})
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), int64(1), page.Total)
	require.Equal(suite.T(), mine.ID, page.Items[0].ID)
	require.Equal(suite.T(), 20, page.PageSize)

	page, err = suite.orders.ListOrders(suite.ctx, suite.admin, ListOrdersQuery{})
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), int64(2), page.Total)

	confirmed := model.OrderStatusConfirmed
	page, err = suite.orders.ListOrders(suite.ctx, suite.admin, ListOrdersQuery{Status: &confirmed})
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), int64(1), page.Total)
	require.Equal(suite.T(), theirs.ID, page.Items[0].ID)

	bogus := model.OrderStatus("bogus")
	_, err = suite.orders.ListOrders(suite.ctx, suite.admin, ListOrdersQuery{Status: &bogus})
	require.ErrorIs(suite.T(), err, apperr.ErrInvalidStatus)

	_, err = suite.orders.GetOrder(suite.ctx, suite.customer, theirs.ID)
	require.ErrorIs(suite.T(), err, apperr.ErrOrderNotFound)
	got, err := suite.orders.GetOrder(suite.ctx, suite.admin, theirs.ID)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), theirs.OrderNumber, got.OrderNumber)
}

func TestOrderServiceTestSuite(t *testing.T) {
	suite.Run(t, new(OrderServiceTestSuite))
}
