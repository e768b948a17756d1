package db_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/Dafoe17/retail-platform-backend/internal/domain/model"
	"github.com/Dafoe17/retail-platform-backend/internal/infra/repository/db"
	"github.com/Dafoe17/retail-platform-backend/internal/infra/repository/db/dbtest"
	"github.com/Dafoe17/retail-platform-backend/internal/pkg/apperr"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/sync/errgroup"
)

type ProductRepoTestSuite struct {
	suite.Suite
	ctx   context.Context
	store *db.Store
}

// SetupTest 每個測試使用全新的資料庫
func (suite *ProductRepoTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.store = dbtest.NewStore(suite.T())
}

func (suite *ProductRepoTestSuite) TestCreateProduct_DuplicateSlug() {
	p1 := &model.Product{Name: "Tea", Slug: "tea", Price: 100, Stock: 1, IsActive: true}
	p2 := &model.Product{Name: "Tea 2", Slug: "tea", Price: 200, Stock: 1, IsActive: true}

	require.NoError(suite.T(), suite.store.CreateProduct(suite.ctx, p1))
	require.NotZero(suite.T(), p1.ID)
	require.False(suite.T(), p1.CreatedAt.IsZero())

	err := suite.store.CreateProduct(suite.ctx, p2)
	require.ErrorIs(suite.T(), err, apperr.ErrSlugTaken)
}

func (suite *ProductRepoTestSuite) TestGetProductByID_NotFound() {
	_, err := suite.store.GetProductByID(suite.ctx, 9999)
	require.ErrorIs(suite.T(), err, apperr.ErrProductNotFound)
}

func (suite *ProductRepoTestSuite) TestInactiveProductIsStored() {
	p := &model.Product{Name: "Hidden", Slug: "hidden", Price: 100, Stock: 1, IsActive: false}
	require.NoError(suite.T(), suite.store.CreateProduct(suite.ctx, p))

	got, err := suite.store.GetProductByID(suite.ctx, p.ID)
	require.NoError(suite.T(), err)
	require.False(suite.T(), got.IsActive)
}

func (suite *ProductRepoTestSuite) TestDecrementStock() {
	p := dbtest.SeedProduct(suite.T(), suite.store, "coffee", 1000, 3)

	require.NoError(suite.T(), suite.store.DecrementStock(suite.ctx, p.ID, 2))

	err := suite.store.DecrementStock(suite.ctx, p.ID, 2)
	require.ErrorIs(suite.T(), err, apperr.ErrInsufficientStock)

	got, err := suite.store.GetProductByID(suite.ctx, p.ID)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), int64(1), got.Stock)

	require.ErrorIs(suite.T(), suite.store.DecrementStock(suite.ctx, p.ID, 0), apperr.ErrInvalidQuantity)
}

func (suite *ProductRepoTestSuite) TestDecrementStock_Concurrent() {
	p := dbtest.SeedProduct(suite.T(), suite.store, "last-units", 500, 5)

	var ok, short atomic.Int32
	var g errgroup.Group
	for i := 0; i < 12; i++ {
		g.Go(func() error {
			err := suite.store.DecrementStock(suite.ctx, p.ID, 1)
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, apperr.ErrInsufficientStock):
				short.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(suite.T(), g.Wait())
	require.Equal(suite.T(), int32(5), ok.Load())
	require.Equal(suite.T(), int32(7), short.Load())

	got, err := suite.store.GetProductByID(suite.ctx, p.ID)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), int64(0), got.Stock)
}

func (suite *ProductRepoTestSuite) TestRestoreStock() {
	p := dbtest.SeedProduct(suite.T(), suite.store, "milk", 100, 0)
	require.NoError(suite.T(), suite.store.RestoreStock(suite.ctx, p.ID, 4))

	got, err := suite.store.GetProductByID(suite.ctx, p.ID)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), int64(4), got.Stock)

	require.ErrorIs(suite.T(), suite.store.RestoreStock(suite.ctx, 424242, 1), apperr.ErrProductNotFound)
}

func (suite *ProductRepoTestSuite) TestDeactivateProduct() {
	p := dbtest.SeedProduct(suite.T(), suite.store, "old", 100, 1)
	require.NoError(suite.T(), suite.store.DeactivateProduct(suite.ctx, p.ID))

	got, err := suite.store.GetProductByID(suite.ctx, p.ID)
	require.NoError(suite.T(), err)
	require.False(suite.T(), got.IsActive)

	require.ErrorIs(suite.T(), suite.store.DeactivateProduct(suite.ctx, 31337), apperr.ErrProductNotFound)
}

func (suite *ProductRepoTestSuite) TestListProducts_FiltersAndSort() {
	cat := &model.Category{Name: "Drinks", Slug: "drinks", IsActive: true}
	require.NoError(suite.T(), suite.store.CreateCategory(suite.ctx, cat))

	mk := func(name string, price, stock int64, active bool, categoryID *int64) {
		p := &model.Product{Name: name, Slug: name, Description: name + " description", Price: price, Stock: stock, IsActive: active, CategoryID: categoryID}
		require.NoError(suite.T(), suite.store.CreateProduct(suite.ctx, p))
	}
	mk("Green Tea", 300, 5, true, &cat.ID)
	mk("Black Tea", 200, 0, true, &cat.ID)
	mk("Espresso", 500, 2, true, nil)
	mk("Retired Tea", 100, 9, false, &cat.ID)

	page, err := suite.store.ListProducts(suite.ctx, model.ProductFilter{
		Search: "TEA", SortBy: model.SortByPriceAsc, Page: 1, PageSize: 10,
	})
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), int64(2), page.Total)
	require.Equal(suite.T(), "Black Tea", page.Items[0].Name)
	require.Equal(suite.T(), "Green Tea", page.Items[1].Name)

	page, err = suite.store.ListProducts(suite.ctx, model.ProductFilter{
		CategoryID: &cat.ID, InStock: true, Page: 1, PageSize: 10,
	})
	require.NoError(suite.T(), err)
	require.Len(suite.T(), page.Items, 1)
	require.Equal(suite.T(), "Green Tea", page.Items[0].Name)

	minPrice, maxPrice := int64(250), int64(500)
	page, err = suite.store.ListProducts(suite.ctx, model.ProductFilter{
		MinPrice: &minPrice, MaxPrice: &maxPrice, SortBy: model.SortByPriceDesc, Page: 1, PageSize: 10,
	})
	require.NoError(suite.T(), err)
	require.Len(suite.T(), page.Items, 2)
	require.Equal(suite.T(), "Espresso", page.Items[0].Name)

	page, err = suite.store.ListProducts(suite.ctx, model.ProductFilter{
		IncludeInactive: true, SortBy: model.SortByName, Page: 2, PageSize: 3,
	})
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), int64(4), page.Total)
	require.Equal(suite.T(), 2, page.TotalPages())
	require.Len(suite.T(), page.Items, 1)
	require.Equal(suite.T(), "Retired Tea", page.Items[0].Name)
}

func (suite *ProductRepoTestSuite) TestGetProductsByIDs() {
	a := dbtest.SeedProduct(suite.T(), suite.store, "a", 1, 1)
	b := dbtest.SeedProduct(suite.T(), suite.store, "b", 2, 2)

	got, err := suite.store.GetProductsByIDs(suite.ctx, []int64{b.ID, a.ID, 777})
	require.NoError(suite.T(), err)
	require.Len(suite.T(), got, 2)
	require.Equal(suite.T(), a.ID, got[0].ID)
	require.Equal(suite.T(), a.Images, got[0].Images)

	got, err = suite.store.GetProductsByIDs(suite.ctx, nil)
	require.NoError(suite.T(), err)
	require.Empty(suite.T(), got)
}

func TestProductRepoTestSuite(t *testing.T) {
	suite.Run(t, new(ProductRepoTestSuite))
}
