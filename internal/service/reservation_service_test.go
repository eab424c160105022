package service

import (
	"context"
	"errors"
	"testing"

	"backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReserveDebitsStock(t *testing.T) {
	db := setupTestDB(t)
	seedProduct(t, db, "SKU-001", "School Shirt", 150, 20)

	svc := NewReservationService(repository.NewProductRepository(db))

	products, err := svc.Reserve(context.Background(), []ItemQuantity{{ProductID: "SKU-001", Quantity: 5}})
	require.NoError(t, err)
	assert.Equal(t, 15, products["SKU-001"].Stock)
	assert.Equal(t, 15, productStock(t, db, "SKU-001"))
}

func TestReserveNeverGoesNegative(t *testing.T) {
	db := setupTestDB(t)
	seedProduct(t, db, "SKU-001", "School Shirt", 150, 3)

	svc := NewReservationService(repository.NewProductRepository(db))

	_, err := svc.Reserve(context.Background(), []ItemQuantity{{ProductID: "SKU-001", Quantity: 4}})
	require.Error(t, err)

	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	require.Len(t, insufficient.Items, 1)
	assert.Equal(t, "SKU-001", insufficient.Items[0].ProductID)
	assert.Equal(t, 4, insufficient.Items[0].Requested)
	assert.Equal(t, 3, insufficient.Items[0].Available)

	// Nothing was written.
	assert.Equal(t, 3, productStock(t, db, "SKU-001"))
}

func TestReserveIsAllOrNothing(t *testing.T) {
	db := setupTestDB(t)
	seedProduct(t, db, "SKU-001", "School Shirt", 150, 50)
	seedProduct(t, db, "SKU-002", "School Skirt", 220, 2)

	svc := NewReservationService(repository.NewProductRepository(db))

	_, err := svc.Reserve(context.Background(), []ItemQuantity{
		{ProductID: "SKU-001", Quantity: 10},
		{ProductID: "SKU-002", Quantity: 5},
	})
	require.Error(t, err)

	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	require.Len(t, insufficient.Items, 1)
	assert.Equal(t, "SKU-002", insufficient.Items[0].ProductID)

	// The sufficient line must not have been applied either.
	assert.Equal(t, 50, productStock(t, db, "SKU-001"))
	assert.Equal(t, 2, productStock(t, db, "SKU-002"))
}

func TestReserveFoldsDuplicateLines(t *testing.T) {
	db := setupTestDB(t)
	seedProduct(t, db, "SKU-001", "School Shirt", 150, 10)

	svc := NewReservationService(repository.NewProductRepository(db))

	// Two lines for the same product net to a single adjustment of 7.
	products, err := svc.Reserve(context.Background(), []ItemQuantity{
		{ProductID: "SKU-001", Quantity: 3},
		{ProductID: "SKU-001", Quantity: 4},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, products["SKU-001"].Stock)
	assert.Equal(t, 3, productStock(t, db, "SKU-001"))
}

func TestReserveUnknownProduct(t *testing.T) {
	db := setupTestDB(t)

	svc := NewReservationService(repository.NewProductRepository(db))

	_, err := svc.Reserve(context.Background(), []ItemQuantity{{ProductID: "NOPE", Quantity: 1}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrProductNotFound))
}

func TestReleaseSkipsDeletedProducts(t *testing.T) {
	db := setupTestDB(t)
	seedProduct(t, db, "SKU-001", "School Shirt", 150, 5)

	svc := NewReservationService(repository.NewProductRepository(db))

	// A credit for a product that no longer exists has nowhere to go and is
	// silently dropped; the remaining credits still apply.
	products, err := svc.Release(context.Background(), []ItemQuantity{
		{ProductID: "SKU-001", Quantity: 2},
		{ProductID: "GONE", Quantity: 3},
	})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, 7, productStock(t, db, "SKU-001"))
}

func TestAdjustNetsMixedDeltas(t *testing.T) {
	db := setupTestDB(t)
	seedProduct(t, db, "SKU-001", "School Shirt", 150, 10)
	seedProduct(t, db, "SKU-002", "School Skirt", 220, 10)

	svc := NewReservationService(repository.NewProductRepository(db))

	products, err := svc.Adjust(context.Background(), map[string]int{
		"SKU-001": -6,
		"SKU-002": +4,
	})
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, 4, productStock(t, db, "SKU-001"))
	assert.Equal(t, 14, productStock(t, db, "SKU-002"))
}

func TestAdjustRetriedAfterRollbackAppliesOnce(t *testing.T) {
	db := setupTestDB(t)
	seedProduct(t, db, "SKU-001", "School Shirt", 150, 10)

	svc := NewReservationService(repository.NewProductRepository(db))
	txManager := repository.NewTransactionManager(db)
	ctx := context.Background()

	// First attempt rolls back; the retry re-reads stock from scratch, so
	// exactly one debit lands.
	err := txManager.RunInTx(ctx, func(txCtx context.Context) error {
		_, err := svc.Reserve(txCtx, []ItemQuantity{{ProductID: "SKU-001", Quantity: 4}})
		require.NoError(t, err)
		return assert.AnError
	})
	require.Error(t, err)
	assert.Equal(t, 10, productStock(t, db, "SKU-001"))

	err = txManager.RunInTx(ctx, func(txCtx context.Context) error {
		_, err := svc.Reserve(txCtx, []ItemQuantity{{ProductID: "SKU-001", Quantity: 4}})
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 6, productStock(t, db, "SKU-001"))
}

func TestAdjustReportsEveryShortfall(t *testing.T) {
	db := setupTestDB(t)
	seedProduct(t, db, "SKU-001", "School Shirt", 150, 1)
	seedProduct(t, db, "SKU-002", "School Skirt", 220, 2)

	svc := NewReservationService(repository.NewProductRepository(db))

	_, err := svc.Adjust(context.Background(), map[string]int{
		"SKU-001": -5,
		"SKU-002": -5,
	})
	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Len(t, insufficient.Items, 2)
	assert.Contains(t, err.Error(), "available 1")
	assert.Contains(t, err.Error(), "available 2")
}
