package db

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type ConnOption func(*gorm.Config)

// WithSilentLogger 關閉 gorm SQL log
func WithSilentLogger() ConnOption {
	return func(c *gorm.Config) {
		c.Logger = logger.Default.LogMode(logger.Silent)
	}
}

func newGormConfig(opts ...ConnOption) *gorm.Config {
	cf := &gorm.Config{
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(cf)
	}
	return cf
}

func GetDbConn(dbname, host, port, user, pas string, opts ...ConnOption) (*gorm.DB, error) {
	// 資料來源名稱 (DSN)
	dsn := fmt.Sprintf("user=%s password=%s host=%s port=%s dbname=%s sslmode=disable TimeZone=UTC", user, pas, host, port, dbname)

	db, err := gorm.Open(postgres.Open(dsn), newGormConfig(opts...))
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return db, nil
}

// GetSqliteConn opens a SQLite database; path may be ":memory:".
// SQLite allows one writer, so the pool is capped at a single connection.
func GetSqliteConn(path string, opts ...ConnOption) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), newGormConfig(opts...))
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}
