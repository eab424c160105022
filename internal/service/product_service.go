package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DTOs
type CreateProductRequest struct {
	ID     string `json:"id" binding:"required"`
	Name   string `json:"name" binding:"required"`
	Type   string `json:"type"`
	Size   string `json:"size"`
	Price  string `json:"price" binding:"required"`
	Stock  int    `json:"stock" binding:"min=0"`
	Status string `json:"status" binding:"omitempty,oneof=available pending-production temporarily-out"`
}

// UpdateProductRequest deliberately has no stock field: stock moves only
// through the reservation transaction.
type UpdateProductRequest struct {
	Name   string `json:"name" binding:"required"`
	Type   string `json:"type"`
	Size   string `json:"size"`
	Price  string `json:"price" binding:"required"`
	Status string `json:"status" binding:"omitempty,oneof=available pending-production temporarily-out"`
}

type ProductService interface {
	GetProducts(ctx context.Context, page, limit int, search, status string) ([]model.Product, int64, error)
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	CreateProduct(ctx context.Context, userID string, req CreateProductRequest) (*model.Product, error)
	UpdateProduct(ctx context.Context, userID string, id string, req UpdateProductRequest) (*model.Product, error)
	DeleteProduct(ctx context.Context, userID string, id string) error
}

type productService struct {
	productRepo repository.ProductRepository
	auditor     AuditRecorder
	txManager   repository.TransactionManager
}

func NewProductService(productRepo repository.ProductRepository, auditor AuditRecorder, txManager repository.TransactionManager) ProductService {
	return &productService{productRepo: productRepo, auditor: auditor, txManager: txManager}
}

func (s *productService) GetProducts(ctx context.Context, page, limit int, search, status string) ([]model.Product, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.productRepo.List(ctx, page, limit, search, status)
}

func (s *productService) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, normalizeProductID(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrProductNotFound, id)
		}
		return nil, err
	}
	return product, nil
}

func (s *productService) CreateProduct(ctx context.Context, userID string, req CreateProductRequest) (*model.Product, error) {
	id := normalizeProductID(req.ID)

	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		return nil, fmt.Errorf("invalid price %q", req.Price)
	}

	status := req.Status
	if status == "" {
		status = model.ProductStatusAvailable
	}

	product := &model.Product{
		ID:     id,
		Name:   req.Name,
		Type:   req.Type,
		Size:   req.Size,
		Price:  price,
		Stock:  req.Stock,
		Status: status,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.productRepo.FindByID(txCtx, id); err == nil {
			return fmt.Errorf("%w: %s", ErrDuplicateProduct, id)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check product id: %w", err)
		}
		return s.productRepo.Create(txCtx, product)
	})
	if err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, userID, model.ActionCreateProduct, product.ID, product.Name, req)
	return product, nil
}

func (s *productService) UpdateProduct(ctx context.Context, userID string, id string, req UpdateProductRequest) (*model.Product, error) {
	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		return nil, fmt.Errorf("invalid price %q", req.Price)
	}

	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	product.Name = req.Name
	product.Type = req.Type
	product.Size = req.Size
	product.Price = price
	if req.Status != "" {
		product.Status = req.Status
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	s.auditor.Record(ctx, userID, model.ActionUpdateProduct, product.ID, product.Name, req)
	return product, nil
}

func (s *productService) DeleteProduct(ctx context.Context, userID string, id string) error {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return err
	}

	if err := s.productRepo.Delete(ctx, product.ID); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	s.auditor.Record(ctx, userID, model.ActionDeleteProduct, product.ID, product.Name, nil)
	return nil
}

// Product codes are human-assigned and stored uppercase.
func normalizeProductID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}
