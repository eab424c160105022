package service

import (
	"testing"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/shopspring/decimal"
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

func seedProduct(t *testing.T, db *gorm.DB, id, name string, price int64, stock int) {
	t.Helper()
	require.NoError(t, db.Create(&model.Product{
		ID:     id,
		Name:   name,
		Type:   "shirt",
		Size:   "M",
		Price:  decimal.NewFromInt(price),
		Stock:  stock,
		Status: model.ProductStatusAvailable,
	}).Error)
}

func productStock(t *testing.T, db *gorm.DB, id string) int {
	t.Helper()
	var p model.Product
	require.NoError(t, db.First(&p, "id = ?", id).Error)
	return p.Stock
}

func newTestOrderService(db *gorm.DB) OrderService {
	auditSvc := NewAuditService(repository.NewAuditRepository(db))
	return NewOrderService(
		repository.NewOrderRepository(db),
		repository.NewCounterRepository(db),
		NewReservationService(repository.NewProductRepository(db)),
		auditSvc,
		repository.NewTransactionManager(db),
		nil,
		PeriodMonthly,
	)
}
