package service

import (
	"context"
	"errors"
	"testing"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestProductService(db *gorm.DB) ProductService {
	auditSvc := NewAuditService(repository.NewAuditRepository(db))
	return NewProductService(repository.NewProductRepository(db), auditSvc, repository.NewTransactionManager(db))
}

func TestCreateProductNormalizesID(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestProductService(db)

	product, err := svc.CreateProduct(context.Background(), "", CreateProductRequest{
		ID:    "  sku-001 ",
		Name:  "School Shirt",
		Price: "150.00",
		Stock: 20,
	})
	require.NoError(t, err)
	assert.Equal(t, "SKU-001", product.ID)
	assert.Equal(t, model.ProductStatusAvailable, product.Status)
	assert.True(t, product.Price.Equal(decimal.NewFromInt(150)))
}

func TestCreateProductRejectsDuplicateID(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestProductService(db)
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, "", CreateProductRequest{ID: "SKU-001", Name: "School Shirt", Price: "150"})
	require.NoError(t, err)

	// Same code, different case.
	_, err = svc.CreateProduct(ctx, "", CreateProductRequest{ID: "sku-001", Name: "Other", Price: "10"})
	assert.True(t, errors.Is(err, ErrDuplicateProduct))
}

func TestCreateProductRejectsBadPrice(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestProductService(db)
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, "", CreateProductRequest{ID: "SKU-001", Name: "X", Price: "abc"})
	assert.Error(t, err)
	_, err = svc.CreateProduct(ctx, "", CreateProductRequest{ID: "SKU-001", Name: "X", Price: "-5"})
	assert.Error(t, err)
}

func TestUpdateProductNeverTouchesStock(t *testing.T) {
	db := setupTestDB(t)
	seedProduct(t, db, "SKU-001", "School Shirt", 150, 20)
	svc := newTestProductService(db)

	product, err := svc.UpdateProduct(context.Background(), "", "SKU-001", UpdateProductRequest{
		Name:   "School Shirt v2",
		Price:  "175",
		Status: model.ProductStatusTemporarilyOut,
	})
	require.NoError(t, err)
	assert.Equal(t, "School Shirt v2", product.Name)
	assert.Equal(t, model.ProductStatusTemporarilyOut, product.Status)
	assert.Equal(t, 20, productStock(t, db, "SKU-001"))
}

func TestGetProductNotFound(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestProductService(db)

	_, err := svc.GetProduct(context.Background(), "NOPE")
	assert.True(t, errors.Is(err, ErrProductNotFound))
}

func TestDeleteProductThenList(t *testing.T) {
	db := setupTestDB(t)
	seedProduct(t, db, "SKU-001", "School Shirt", 150, 20)
	seedProduct(t, db, "SKU-002", "School Skirt", 220, 5)
	svc := newTestProductService(db)
	ctx := context.Background()

	require.NoError(t, svc.DeleteProduct(ctx, "", "SKU-001"))

	products, total, err := svc.GetProducts(ctx, 1, 20, "", "")
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, products, 1)
	assert.Equal(t, "SKU-002", products[0].ID)
}

func TestGetProductsSearchAndStatusFilter(t *testing.T) {
	db := setupTestDB(t)
	seedProduct(t, db, "SKU-001", "School Shirt", 150, 20)
	seedProduct(t, db, "SKU-002", "Sports Shorts", 90, 5)
	require.NoError(t, db.Model(&model.Product{}).Where("id = ?", "SKU-002").
		Update("status", model.ProductStatusPendingProduction).Error)
	svc := newTestProductService(db)
	ctx := context.Background()

	products, total, err := svc.GetProducts(ctx, 1, 20, "Shirt", "")
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, products, 1)
	assert.Equal(t, "SKU-001", products[0].ID)

	products, total, err = svc.GetProducts(ctx, 1, 20, "", model.ProductStatusPendingProduction)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, products, 1)
	assert.Equal(t, "SKU-002", products[0].ID)
}
