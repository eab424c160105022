package repository

import (
	"context"
	"testing"

	"backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Product{},
		&model.Order{},
		&model.OrderItem{},
		&model.Counter{},
		&model.AuditLog{},
	))
	return db
}

func TestCounterNextIsGapFree(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCounterRepository(db)
	ctx := context.Background()

	for want := 1; want <= 5; want++ {
		got, err := repo.Next(ctx, "orders_202608")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestCounterKeysAreIndependent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCounterRepository(db)
	ctx := context.Background()

	n, err := repo.Next(ctx, "orders_202608")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = repo.Next(ctx, "orders_202608")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// A new period starts its own sequence at 1.
	n, err = repo.Next(ctx, "orders_202609")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCounterNextRollsBackWithTransaction(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCounterRepository(db)
	txManager := NewTransactionManager(db)
	ctx := context.Background()

	errBoom := assert.AnError
	err := txManager.RunInTx(ctx, func(txCtx context.Context) error {
		n, err := repo.Next(txCtx, "orders_202608")
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)

	// The rolled-back increment was never consumed, so the number is reissued.
	n, err := repo.Next(ctx, "orders_202608")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestGetDBPrefersTransaction(t *testing.T) {
	db := setupTestDB(t)
	txManager := NewTransactionManager(db)
	productRepo := NewProductRepository(db)
	ctx := context.Background()

	err := txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := productRepo.Create(txCtx, &model.Product{ID: "SKU-001", Name: "School Shirt"}); err != nil {
			return err
		}
		// Visible inside the transaction.
		_, err := productRepo.FindByID(txCtx, "SKU-001")
		require.NoError(t, err)
		return assert.AnError
	})
	require.Error(t, err)

	// Rolled back: not visible outside.
	_, err = productRepo.FindByID(ctx, "SKU-001")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
