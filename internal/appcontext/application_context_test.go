package appcontext

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Dafoe17/retail-platform-backend/internal/config"
	"github.com/Dafoe17/retail-platform-backend/internal/domain/model"
	"github.com/Dafoe17/retail-platform-backend/internal/infra/producer"
	"github.com/Dafoe17/retail-platform-backend/internal/infra/ratelimit"
	"github.com/Dafoe17/retail-platform-backend/internal/infra/repository/redis_decorator"
	"github.com/Dafoe17/retail-platform-backend/internal/service"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("ENV", "test")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", ":memory:")
	t.Setenv("AUTH_TOKEN_KEY", "abcdefghijklmnopqrstuvwxyz012345")
	t.Setenv("ADMIN_EMAIL", "root@shop.test")
	t.Setenv("ADMIN_PASSWORD", "root-password")
	cf, err := config.Load("")
	require.NoError(t, err)
	return cf
}

func TestApplicationContext_LocalMode(t *testing.T) {
	cf := testConfig(t)
	ctx := context.Background()

	app, err := NewApplicationContext(ctx, cf)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, app.Shutdown(context.Background())) })

	assert.Nil(t, app.RedisClient)
	assert.IsType(t, producer.NopOrderEventProducer{}, app.OrderEvents)
	assert.IsType(t, &ratelimit.LocalTokenBucket{}, app.Limiter)

	res, err := app.AuthService.Login(ctx, "root@shop.test", "root-password")
	require.NoError(t, err)
	assert.True(t, res.User.IsAdmin())

	rec := httptest.NewRecorder()
	app.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestApplicationContext_WithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	t.Setenv("REDIS_ADDR", mr.Addr())
	cf := testConfig(t)

	app, err := NewApplicationContext(context.Background(), cf)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, app.Shutdown(context.Background())) })

	require.NotNil(t, app.RedisClient)
	assert.IsType(t, &redis_decorator.CacheAsideProductRepo{}, app.ProductRepo)
	assert.IsType(t, &ratelimit.RedisTokenBucket{}, app.Limiter)

	// 展示讀快取, 購物車讀 db
	ctx := context.Background()
	p, err := app.CatalogService.CreateProduct(ctx, service.ProductInput{Name: "Moka Pot", Price: 3200, Stock: &stock5, IsActive: true})
	require.NoError(t, err)
	owner := model.CartOwner{SessionID: "sess-redis"}
	_, err = app.CartService.AddItem(ctx, owner, p.ID, 1)
	require.NoError(t, err)
	_, err = app.CatalogService.GetProduct(ctx, p.ID, false)
	require.NoError(t, err)

	require.NoError(t, app.DbDao.SetStock(ctx, p.ID, 0))
	cached, err := app.CatalogService.GetProduct(ctx, p.ID, false)
	require.NoError(t, err)
	assert.Equal(t, int64(5), cached.Stock)

	view, err := app.CartService.GetCart(ctx, owner)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, int64(0), view.Items[0].StockAvailable)
	assert.False(t, view.Items[0].IsAvailable)
}

var stock5 int64 = 5

func TestApplicationContext_InitFails(t *testing.T) {
	cf := testConfig(t)
	cf.AuthTokenKey = "too-short"

	_, err := NewApplicationContext(context.Background(), cf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token maker")

	mr := miniredis.RunT(t)
	cf = testConfig(t)
	cf.RedisAddr = mr.Addr()
	mr.Close()
	_, err = NewApplicationContext(context.Background(), cf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis")
}
