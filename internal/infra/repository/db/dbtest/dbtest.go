// Package dbtest builds migrated in-memory stores for tests.
package dbtest

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/Dafoe17/retail-platform-backend/internal/domain/model"
	"github.com/Dafoe17/retail-platform-backend/internal/infra/repository/db"
	"github.com/stretchr/testify/require"
)

var seq atomic.Int64

// NewStore returns a Store over a fresh in-memory SQLite database.
func NewStore(t testing.TB) *db.Store {
	t.Helper()
	conn, err := db.GetSqliteConn(":memory:", db.WithSilentLogger())
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	store := db.NewStore(conn)
	require.NoError(t, store.InitMigrate())
	return store
}

// SeedProduct inserts an active product with a unique slug.
func SeedProduct(t testing.TB, store db.IStore, name string, price, stock int64) *model.Product {
	t.Helper()
	n := seq.Add(1)
	p := &model.Product{
		Name:     name,
		Slug:     fmt.Sprintf("%s-%d", name, n),
		Price:    price,
		Stock:    stock,
		IsActive: true,
		Images:   []string{fmt.Sprintf("https://img.example.com/%d.png", n)},
	}
	require.NoError(t, store.CreateProduct(context.Background(), p))
	return p
}

// SeedUser inserts an active user with the given role.
func SeedUser(t testing.TB, store db.IStore, role model.Role) *model.User {
	t.Helper()
	n := seq.Add(1)
	u := &model.User{
		Email:        fmt.Sprintf("user%d@example.com", n),
		PasswordHash: "x",
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, store.CreateUser(context.Background(), u))
	return u
}
