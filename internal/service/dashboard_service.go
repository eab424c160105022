package service

import (
	"context"

	"backend/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DashboardResponse mirrors the figures the dashboard page shows: order
// counts per status, revenue and low-stock products.
type DashboardResponse struct {
	TotalOrders     int64           `json:"total_orders"`
	PendingOrders   int64           `json:"pending_orders"`
	PaidOrders      int64           `json:"paid_orders"`
	SplitOrders     int64           `json:"split_orders"`
	CancelledOrders int64           `json:"cancelled_orders"`
	TotalRevenue    decimal.Decimal `json:"total_revenue"`
	TotalProducts   int64           `json:"total_products"`
	LowStockCount   int64           `json:"low_stock_count"`
	LowStock        []model.Product `json:"low_stock"`
}

// lowStockThreshold matches the products page filter ("stock < 10")
const lowStockThreshold = 10

type DashboardService interface {
	GetDashboard(ctx context.Context) (DashboardResponse, error)
}

type dashboardService struct {
	db *gorm.DB
}

func NewDashboardService(db *gorm.DB) DashboardService {
	return &dashboardService{db: db}
}

func (s *dashboardService) GetDashboard(ctx context.Context) (DashboardResponse, error) {
	var res DashboardResponse

	orderCounts := []struct {
		status string
		target *int64
	}{
		{model.OrderStatusPending, &res.PendingOrders},
		{model.OrderStatusPaid, &res.PaidOrders},
		{model.OrderStatusSplit, &res.SplitOrders},
		{model.OrderStatusCancelled, &res.CancelledOrders},
	}

	if err := s.db.WithContext(ctx).Model(&model.Order{}).Count(&res.TotalOrders).Error; err != nil {
		return res, err
	}
	for _, c := range orderCounts {
		if err := s.db.WithContext(ctx).Model(&model.Order{}).Where("status = ?", c.status).Count(c.target).Error; err != nil {
			return res, err
		}
	}

	// Revenue: total of every non-cancelled order.
	var revenue struct {
		Value decimal.Decimal
	}
	if err := s.db.WithContext(ctx).Model(&model.Order{}).
		Select("COALESCE(SUM(total_amount), 0) as value").
		Where("status <> ?", model.OrderStatusCancelled).
		Scan(&revenue).Error; err != nil {
		return res, err
	}
	res.TotalRevenue = revenue.Value

	if err := s.db.WithContext(ctx).Model(&model.Product{}).Count(&res.TotalProducts).Error; err != nil {
		return res, err
	}

	if err := s.db.WithContext(ctx).
		Where("stock < ?", lowStockThreshold).
		Order("stock asc").
		Find(&res.LowStock).Error; err != nil {
		return res, err
	}
	res.LowStockCount = int64(len(res.LowStock))

	return res, nil
}
