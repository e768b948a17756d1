package appcontext

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Dafoe17/retail-platform-backend/internal/api/handler"
	"github.com/Dafoe17/retail-platform-backend/internal/api/router"
	"github.com/Dafoe17/retail-platform-backend/internal/config"
	"github.com/Dafoe17/retail-platform-backend/internal/infra/auth/token"
	kafkaproducer "github.com/Dafoe17/retail-platform-backend/internal/infra/kafka/producer"
	"github.com/Dafoe17/retail-platform-backend/internal/infra/producer"
	"github.com/Dafoe17/retail-platform-backend/internal/infra/ratelimit"
	"github.com/Dafoe17/retail-platform-backend/internal/infra/repository/db"
	"github.com/Dafoe17/retail-platform-backend/internal/infra/repository/redis_decorator"
	"github.com/Dafoe17/retail-platform-backend/internal/service"
	"github.com/Dafoe17/retail-platform-backend/internal/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	serviceVersion = "1.0.0"
	cachePrefix    = "shop"
)

type ApplicationContext struct {
	Cf     *config.Config
	Logger zerolog.Logger

	DbConn      *gorm.DB
	DbDao       *db.Store
	RedisClient *redis.Client
	// ProductRepo 有 redis 時為 cache-aside 包裝, 否則就是 DbDao
	ProductRepo   db.IProductRepository
	CacheInvalid  service.ProductCacheInvalidator
	KafkaProducer kafkaproducer.Producer
	OrderEvents   producer.IOrderEventProducer
	TokenMaker    token.Maker
	Limiter       ratelimit.Limiter

	AuthService     service.IAuthService
	CatalogService  service.ICatalogService
	CartService     service.ICartService
	CheckoutService service.ICheckoutService
	OrderService    service.IOrderService

	telemetryShutdown telemetry.ShutdownFunc
}

func NewApplicationContext(ctx context.Context, cf *config.Config) (*ApplicationContext, error) {
	app := ApplicationContext{
		Cf:     cf,
		Logger: NewLogger(cf),
	}
	if err := app.Init(ctx); err != nil {
		// 已建立的連線要收掉
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = app.Shutdown(shutdownCtx)
		return nil, err
	}
	return &app, nil
}

// NewLogger dev 用 console 輸出, 其餘 json
func NewLogger(cf *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cf.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var logger zerolog.Logger
	if cf.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stdout)
	}
	logger = logger.With().Timestamp().Str("service", cf.ServiceName).Logger()
	log.Logger = logger
	return logger
}

func (app *ApplicationContext) Init(ctx context.Context) error {
	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"telemetry", app.setUpTelemetry},
		{"database connection", app.setUpDbConn},
		{"database DAO", app.setUpDbDao},
		{"redis", app.setUpRedis},
		{"kafka producer", app.setUpKafkaProducer},
		{"token maker", app.setTokenMaker},
		{"rate limiter", app.setUpLimiter},
		{"services", app.setUpServices},
		{"admin account", app.ensureAdmin},
	}
	for _, step := range steps {
		app.Logger.Info().Msgf("Start setup %s", step.name)
		if err := step.fn(ctx); err != nil {
			return fmt.Errorf("setup %s: %w", step.name, err)
		}
		app.Logger.Info().Msgf("Finish setup %s", step.name)
	}
	return nil
}

func (app *ApplicationContext) setUpTelemetry(ctx context.Context) error {
	shutdown, err := telemetry.Setup(ctx, telemetry.Config{
		ServiceName:    app.Cf.ServiceName,
		ServiceVersion: serviceVersion,
		OTLPEndpoint:   app.Cf.OtelEndpoint,
	})
	if err != nil {
		return err
	}
	app.telemetryShutdown = shutdown
	return nil
}

func (app *ApplicationContext) setUpDbConn(ctx context.Context) error {
	var (
		conn *gorm.DB
		err  error
	)
	switch app.Cf.DbDriver {
	case "sqlite":
		conn, err = db.GetSqliteConn(app.Cf.SqlitePath, db.WithSilentLogger())
	default:
		conn, err = db.GetDbConn(app.Cf.DbName, app.Cf.DbHost, app.Cf.DbPort, app.Cf.DbUser, app.Cf.DbPas, db.WithSilentLogger())
	}
	if err != nil {
		return err
	}
	app.DbConn = conn
	return nil
}

func (app *ApplicationContext) setUpDbDao(ctx context.Context) error {
	var opts []db.StoreOption
	if app.Cf.DbDriver == "postgres" {
		opts = append(opts, db.WithIsolation(sql.LevelReadCommitted))
	}
	app.DbDao = db.NewStore(app.DbConn, opts...)
	if err := app.DbDao.InitMigrate(); err != nil {
		return err
	}
	return app.DbDao.Ping(ctx)
}

// setUpRedis REDIS_ADDR 為空時不使用快取
func (app *ApplicationContext) setUpRedis(ctx context.Context) error {
	app.ProductRepo = app.DbDao
	app.CacheInvalid = service.NopProductCacheInvalidator{}
	if app.Cf.RedisAddr == "" {
		app.Logger.Warn().Msg("REDIS_ADDR not set, product cache disabled")
		return nil
	}

	app.RedisClient = redis.NewClient(&redis.Options{
		Addr:     app.Cf.RedisAddr,
		Password: app.Cf.RedisPassword,
		DB:       app.Cf.RedisDB,
	})
	cache := redis_decorator.NewProductCache(app.RedisClient, cachePrefix, app.Cf.ProductCacheTTL)
	if err := cache.Ping(ctx); err != nil {
		return err
	}
	repo := redis_decorator.NewCacheAsideProductRepo(app.DbDao, cache)
	app.ProductRepo = repo
	app.CacheInvalid = repo
	return nil
}

// setUpKafkaProducer KAFKA_BROKERS 為空時事件只丟棄
func (app *ApplicationContext) setUpKafkaProducer(ctx context.Context) error {
	if len(app.Cf.KafkaBrokers) == 0 {
		app.Logger.Warn().Msg("KAFKA_BROKERS not set, order events disabled")
		app.OrderEvents = producer.NopOrderEventProducer{}
		return nil
	}
	p, err := kafkaproducer.New(kafkaproducer.DefaultConfig(app.Cf.KafkaBrokers, app.Cf.KafkaOrderTopic))
	if err != nil {
		return err
	}
	app.KafkaProducer = p
	app.OrderEvents = producer.NewOrderEventProducer(p)
	return nil
}

func (app *ApplicationContext) setTokenMaker(ctx context.Context) error {
	maker, err := token.NewPasetoMaker(app.Cf.AuthTokenKey)
	if err != nil {
		return err
	}
	app.TokenMaker = maker
	return nil
}

// setUpLimiter 有 redis 時跨實例共用, 否則各自在記憶體計數
func (app *ApplicationContext) setUpLimiter(ctx context.Context) error {
	cfg := ratelimit.Config{
		Capacity:        app.Cf.RateLimitCapacity,
		RefillPerSecond: app.Cf.RateLimitRefillPerSecond,
		KeyPrefix:       cachePrefix + ":ratelimit",
	}
	if app.RedisClient != nil {
		limiter, err := ratelimit.NewRedisTokenBucket(app.RedisClient, cfg)
		if err != nil {
			return err
		}
		app.Limiter = limiter
		return nil
	}
	limiter, err := ratelimit.NewLocalTokenBucket(cfg)
	if err != nil {
		return err
	}
	app.Limiter = limiter
	return nil
}

func (app *ApplicationContext) setUpServices(ctx context.Context) error {
	app.AuthService = service.NewAuthService(app.DbDao, app.TokenMaker, service.AuthConfig{
		AccessTokenDuration:  app.Cf.AccessTokenDuration,
		RefreshTokenDuration: app.Cf.RefreshTokenDuration,
		BcryptCost:           bcrypt.DefaultCost,
	}, app.Logger)
	app.CatalogService = service.NewCatalogService(app.DbDao, app.ProductRepo, app.Logger, app.Cf.DefaultPageSize, app.Cf.MaxPageSize)
	app.CartService = service.NewCartService(app.DbDao, app.Logger)

	pricing := service.FlatRatePricingPolicy{
		ShippingCost:          app.Cf.ShippingFlatCost,
		FreeShippingThreshold: app.Cf.FreeShippingThreshold,
		TaxBasisPoints:        app.Cf.TaxRateBps,
	}
	app.CheckoutService = service.NewCheckoutService(app.DbDao, pricing, app.OrderEvents, app.CacheInvalid, app.Logger)
	app.OrderService = service.NewOrderService(app.DbDao, app.OrderEvents, app.CacheInvalid, app.Logger, app.Cf.DefaultPageSize, app.Cf.MaxPageSize)
	return nil
}

func (app *ApplicationContext) ensureAdmin(ctx context.Context) error {
	if app.Cf.AdminEmail == "" || app.Cf.AdminPassword == "" {
		return nil
	}
	return app.AuthService.EnsureAdmin(ctx, app.Cf.AdminEmail, app.Cf.AdminPassword)
}

// Router 組裝 handler 與路由
func (app *ApplicationContext) Router() *chi.Mux {
	server := &router.Server{
		HealthHandler:  handler.NewHealthHandler(app.DbDao),
		AuthHandler:    handler.NewAuthHandler(app.AuthService),
		CatalogHandler: handler.NewCatalogHandler(app.CatalogService),
		CartHandler:    handler.NewCartHandler(app.CartService, app.CheckoutService),
		OrderHandler:   handler.NewOrderHandler(app.OrderService),
	}
	return router.SetupRouter(server, app.AuthService, app.Limiter, app.Logger)
}

// Shutdown 依建立的反序關閉
func (app *ApplicationContext) Shutdown(ctx context.Context) error {
	var errs []error
	if app.KafkaProducer != nil {
		if err := app.KafkaProducer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close kafka producer: %w", err))
		}
	}
	if app.RedisClient != nil {
		if err := app.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if app.DbConn != nil {
		if sqlDB, err := app.DbConn.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close database: %w", err))
			}
		}
	}
	if app.telemetryShutdown != nil {
		if err := app.telemetryShutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown telemetry: %w", err))
		}
	}
	return errors.Join(errs...)
}
