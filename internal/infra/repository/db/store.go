package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dafoe17/retail-platform-backend/internal/domain/model"
	"github.com/Dafoe17/retail-platform-backend/internal/pkg/apperr"
	"gorm.io/gorm"
)

// IStore 統一的資料庫介面, ExecTx 內拿到的 IStore 綁定同一個 transaction
type IStore interface {
	IProductRepository
	ICategoryRepository
	ICartRepository
	IOrderRepository
	IUserRepository
	IRefreshTokenRepository

	ExecTx(ctx context.Context, fn func(IStore) error) error
	InitMigrate() error
	Ping(ctx context.Context) error
}

type Store struct {
	db     *gorm.DB
	txOpts *sql.TxOptions
	*ProductRepo
	*CategoryRepo
	*CartRepo
	*OrderRepo
	*UserRepo
	*RefreshTokenRepo
}

var _ IStore = (*Store)(nil)

type StoreOption func(*Store)

// WithIsolation sets the isolation level used by ExecTx.
func WithIsolation(level sql.IsolationLevel) StoreOption {
	return func(s *Store) {
		s.txOpts = &sql.TxOptions{Isolation: level}
	}
}

func NewStore(conn *gorm.DB, opts ...StoreOption) *Store {
	s := newStore(conn, nil)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func newStore(conn *gorm.DB, txOpts *sql.TxOptions) *Store {
	return &Store{
		db:               conn,
		txOpts:           txOpts,
		ProductRepo:      NewProductRepo(conn),
		CategoryRepo:     NewCategoryRepo(conn),
		CartRepo:         NewCartRepo(conn),
		OrderRepo:        NewOrderRepo(conn),
		UserRepo:         NewUserRepo(conn),
		RefreshTokenRepo: NewRefreshTokenRepo(conn),
	}
}

// ExecTx runs fn inside one transaction. Any error or panic rolls back,
// a nil return commits.
func (s *Store) ExecTx(ctx context.Context, fn func(IStore) error) error {
	txFn := func(tx *gorm.DB) error {
		return fn(newStore(tx, s.txOpts))
	}
	var err error
	if s.txOpts != nil {
		err = s.db.WithContext(ctx).Transaction(txFn, s.txOpts)
	} else {
		err = s.db.WithContext(ctx).Transaction(txFn)
	}
	return err
}

// InitMigrate 初始化 db schema, 冪等
func (s *Store) InitMigrate() error {
	return s.db.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.Category{},
		&model.Product{},
		&model.Cart{},
		&model.CartItem{},
		&model.Order{},
		&model.OrderItem{},
		&model.OrderStatusHistory{},
	)
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// notFound maps gorm.ErrRecordNotFound to the given typed error.
func notFound(err error, target *apperr.Error, format string, args ...any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return target.Wrap(err)
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
