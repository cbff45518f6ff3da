package recipe

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestStore opens a private in-memory sqlite database.
func newTestStore(t *testing.T) *GormStore {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&Recipe{}, &Ingredient{}))
	return NewGormStore(db)
}

// failingStore fails the failAt-th CreateIngredient call.
type failingStore struct {
	Store
	failAt int
	calls  *int
}

func newFailingStore(inner Store, failAt int) failingStore {
	return failingStore{Store: inner, failAt: failAt, calls: new(int)}
}

func (f failingStore) WithinTransaction(ctx context.Context, fn func(tx Store) error) error {
	return f.Store.WithinTransaction(ctx, func(tx Store) error {
		return fn(failingStore{Store: tx, failAt: f.failAt, calls: f.calls})
	})
}

func (f failingStore) CreateIngredient(ctx context.Context, ing *Ingredient) error {
	*f.calls++
	if *f.calls == f.failAt {
		return errors.New("disk full")
	}
	return f.Store.CreateIngredient(ctx, ing)
}
