package repository

import (
	"context"

	"backend/internal/model"

	"gorm.io/gorm"
)

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*model.Product, error)
	FindByIDForUpdate(ctx context.Context, id string) (*model.Product, error)
	UpdateStock(ctx context.Context, id string, stock int) error
	List(ctx context.Context, page, limit int, search, status string) ([]model.Product, int64, error)
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	return GetDB(ctx, r.db).Create(product).Error
}

func (r *productRepository) Update(ctx context.Context, product *model.Product) error {
	return GetDB(ctx, r.db).Save(product).Error
}

func (r *productRepository) Delete(ctx context.Context, id string) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Product{}).Error
}

func (r *productRepository) FindByID(ctx context.Context, id string) (*model.Product, error) {
	var product model.Product
	if err := GetDB(ctx, r.db).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByIDForUpdate locks the product row for the rest of the transaction.
// Every stock read that precedes a stock write must go through here.
func (r *productRepository) FindByIDForUpdate(ctx context.Context, id string) (*model.Product, error) {
	var product model.Product
	if err := lockForUpdate(GetDB(ctx, r.db)).
		Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) UpdateStock(ctx context.Context, id string, stock int) error {
	return GetDB(ctx, r.db).Model(&model.Product{}).Where("id = ?", id).Update("stock", stock).Error
}

func (r *productRepository) List(ctx context.Context, page, limit int, search, status string) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Product{})
	if search != "" {
		db = db.Where("name LIKE ? OR id LIKE ?", "%"+search+"%", "%"+search+"%")
	}
	if status != "" {
		db = db.Where("status = ?", status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at desc").Offset(offset).Limit(limit).Find(&products).Error; err != nil {
		return nil, 0, err
	}

	return products, total, nil
}
