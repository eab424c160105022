package repository

import (
	"context"
	"time"

	"backend/internal/model"

	"gorm.io/gorm"
)

type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	Update(ctx context.Context, order *model.Order) error
	ReplaceItems(ctx context.Context, orderNumber string, items []model.OrderItem) error
	UpdateStatus(ctx context.Context, orderNumber, status string) error
	Delete(ctx context.Context, orderNumber string) error
	FindByNumberWithItems(ctx context.Context, orderNumber string) (*model.Order, error)
	List(ctx context.Context, page, limit int, status string, from, to *time.Time) ([]model.Order, int64, error)
	CountByStatus(ctx context.Context, status string) (int64, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	return GetDB(ctx, r.db).Create(order).Error
}

func (r *orderRepository) Update(ctx context.Context, order *model.Order) error {
	return GetDB(ctx, r.db).Save(order).Error
}

// ReplaceItems swaps an order's line items wholesale. Used by order edits,
// where the new item set is written as a fresh snapshot.
func (r *orderRepository) ReplaceItems(ctx context.Context, orderNumber string, items []model.OrderItem) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("order_number = ?", orderNumber).Delete(&model.OrderItem{}).Error; err != nil {
		return err
	}
	for i := range items {
		items[i].OrderNumber = orderNumber
		if err := db.Create(&items[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, orderNumber, status string) error {
	return GetDB(ctx, r.db).Model(&model.Order{}).Where("order_number = ?", orderNumber).Update("status", status).Error
}

func (r *orderRepository) Delete(ctx context.Context, orderNumber string) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("order_number = ?", orderNumber).Delete(&model.OrderItem{}).Error; err != nil {
		return err
	}
	return db.Where("order_number = ?", orderNumber).Delete(&model.Order{}).Error
}

func (r *orderRepository) FindByNumberWithItems(ctx context.Context, orderNumber string) (*model.Order, error) {
	var order model.Order
	if err := GetDB(ctx, r.db).
		Preload("Items").
		First(&order, "order_number = ?", orderNumber).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) List(ctx context.Context, page, limit int, status string, from, to *time.Time) ([]model.Order, int64, error) {
	var orders []model.Order
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Order{})
	if status != "" {
		db = db.Where("status = ?", status)
	}
	if from != nil {
		db = db.Where("order_date >= ?", *from)
	}
	if to != nil {
		db = db.Where("order_date <= ?", *to)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.
		Preload("Items").
		Order("order_number DESC").
		Offset(offset).Limit(limit).
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

func (r *orderRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	var n int64
	err := GetDB(ctx, r.db).Model(&model.Order{}).Where("status = ?", status).Count(&n).Error
	return n, err
}
