package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	ws "backend/internal/websocket"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DTOs
type OrderItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

// OrderRequest carries both create and edit payloads — the original order
// form is the same in both modes. Dates use the form's "2006-01-02" layout.
type OrderRequest struct {
	CustomerName      string             `json:"customer_name" binding:"required"`
	Items             []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
	Status            string             `json:"status" binding:"omitempty,oneof=pending paid split cancelled"`
	PaymentMethod     string             `json:"payment_method"`
	OrderDate         string             `json:"order_date"`
	LastPaymentDate   string             `json:"last_payment_date"`
	InstallmentsCount int                `json:"installments_count"`
	InstallmentNumber int                `json:"installment_number"`
}

type OrderService interface {
	CreateOrder(ctx context.Context, userID string, req OrderRequest) (*model.Order, error)
	UpdateOrder(ctx context.Context, userID string, orderNumber string, req OrderRequest) (*model.Order, error)
	CancelOrder(ctx context.Context, userID string, orderNumber string) (*model.Order, error)
	DeleteOrder(ctx context.Context, userID string, orderNumber string) error
	GetOrder(ctx context.Context, orderNumber string) (*model.Order, error)
	ListOrders(ctx context.Context, page, limit int, status string, from, to *time.Time) ([]model.Order, int64, error)
}

type orderService struct {
	orderRepo   repository.OrderRepository
	counterRepo repository.CounterRepository
	reservation ReservationService
	auditor     AuditRecorder
	txManager   repository.TransactionManager
	hub         *ws.Hub
	period      CounterPeriod
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	counterRepo repository.CounterRepository,
	reservation ReservationService,
	auditor AuditRecorder,
	txManager repository.TransactionManager,
	hub *ws.Hub,
	period CounterPeriod,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		counterRepo: counterRepo,
		reservation: reservation,
		auditor:     auditor,
		txManager:   txManager,
		hub:         hub,
		period:      period,
	}
}

func (s *orderService) CreateOrder(ctx context.Context, userID string, req OrderRequest) (*model.Order, error) {
	status := req.Status
	if status == "" {
		status = model.OrderStatusPending
	}
	if status == model.OrderStatusCancelled {
		return nil, fmt.Errorf("%w: a new order cannot start cancelled", ErrInvalidTransition)
	}

	orderDate, err := parseFormDate(req.OrderDate, time.Now())
	if err != nil {
		return nil, fmt.Errorf("invalid order_date: %w", err)
	}
	lastPayment, err := parseOptionalFormDate(req.LastPaymentDate)
	if err != nil {
		return nil, fmt.Errorf("invalid last_payment_date: %w", err)
	}

	var order *model.Order
	var events [][]byte
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		// Reserve first: a failed reservation must not burn a sequence number.
		products, err := s.reservation.Reserve(txCtx, toItemQuantities(req.Items))
		if err != nil {
			return err
		}

		items, total := buildItems(req.Items, products)

		instCount, instNumber, instAmount, err := computeInstallments(status, total, req.InstallmentsCount, req.InstallmentNumber)
		if err != nil {
			return err
		}

		seq, err := s.counterRepo.Next(txCtx, counterKey(orderDate, s.period))
		if err != nil {
			return fmt.Errorf("failed to mint order number: %w", err)
		}

		order = &model.Order{
			OrderNumber:       formatOrderNumber(orderDate, seq),
			CustomerName:      req.CustomerName,
			Status:            status,
			PaymentMethod:     req.PaymentMethod,
			OrderDate:         orderDate,
			LastPaymentDate:   lastPayment,
			TotalAmount:       total,
			InstallmentsCount: instCount,
			InstallmentNumber: instNumber,
			InstallmentAmount: instAmount,
			Items:             items,
		}
		if err := s.orderRepo.Create(txCtx, order); err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		// Broadcast only after commit; a retried attempt must leave no trace.
		events = append(stockEventPayloads(products), orderCreatedPayload(order)...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, userID, model.ActionCreateOrder, order.OrderNumber, order.CustomerName, req)
	s.broadcast(events)
	return order, nil
}

func (s *orderService) UpdateOrder(ctx context.Context, userID string, orderNumber string, req OrderRequest) (*model.Order, error) {
	lastPayment, err := parseOptionalFormDate(req.LastPaymentDate)
	if err != nil {
		return nil, fmt.Errorf("invalid last_payment_date: %w", err)
	}

	var order *model.Order
	var events [][]byte
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		existing, err := s.orderRepo.FindByNumberWithItems(txCtx, orderNumber)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", ErrOrderNotFound, orderNumber)
			}
			return fmt.Errorf("failed to load order: %w", err)
		}

		status := req.Status
		if status == "" {
			status = existing.Status
		}
		if !model.CanTransitionOrder(existing.Status, status) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, existing.Status, status)
		}

		// Net out the stock movement in one pass. The old reservation is
		// credited back (unless the order was already cancelled and holds
		// none) and the new one debited (unless the order is being
		// cancelled), so an edit touching the same product adjusts its row
		// exactly once.
		deltas := make(map[string]int)
		if existing.Status != model.OrderStatusCancelled {
			for _, it := range existing.Items {
				deltas[it.ProductID] += it.Quantity
			}
		}
		if status != model.OrderStatusCancelled {
			for _, it := range req.Items {
				deltas[it.ProductID] -= it.Quantity
			}
		}
		products, err := s.reservation.Adjust(txCtx, deltas)
		if err != nil {
			return err
		}

		items, total, err := s.snapshotItems(txCtx, req.Items, products, existing.Items)
		if err != nil {
			return err
		}

		instCount, instNumber, instAmount, err := computeInstallments(status, total, req.InstallmentsCount, req.InstallmentNumber)
		if err != nil {
			return err
		}

		existing.CustomerName = req.CustomerName
		existing.Status = status
		existing.PaymentMethod = req.PaymentMethod
		existing.LastPaymentDate = lastPayment
		existing.TotalAmount = total
		existing.InstallmentsCount = instCount
		existing.InstallmentNumber = instNumber
		existing.InstallmentAmount = instAmount
		if req.OrderDate != "" {
			orderDate, err := parseFormDate(req.OrderDate, existing.OrderDate)
			if err != nil {
				return fmt.Errorf("invalid order_date: %w", err)
			}
			existing.OrderDate = orderDate
		}

		if err := s.orderRepo.ReplaceItems(txCtx, existing.OrderNumber, items); err != nil {
			return fmt.Errorf("failed to replace order items: %w", err)
		}
		existing.Items = items
		if err := s.orderRepo.Update(txCtx, existing); err != nil {
			return fmt.Errorf("failed to update order: %w", err)
		}

		events = stockEventPayloads(products)
		order = existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, userID, model.ActionUpdateOrder, order.OrderNumber, order.CustomerName, req)
	s.broadcast(events)
	return order, nil
}

func (s *orderService) CancelOrder(ctx context.Context, userID string, orderNumber string) (*model.Order, error) {
	var order *model.Order
	var events [][]byte
	released := false
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		existing, err := s.orderRepo.FindByNumberWithItems(txCtx, orderNumber)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", ErrOrderNotFound, orderNumber)
			}
			return fmt.Errorf("failed to load order: %w", err)
		}

		// The stored status is the single source of truth for "has this
		// order's stock already been returned": a second cancel is a no-op.
		if existing.Status == model.OrderStatusCancelled {
			order = existing
			return nil
		}

		products, err := s.reservation.Release(txCtx, itemsToQuantities(existing.Items))
		if err != nil {
			return err
		}
		if err := s.orderRepo.UpdateStatus(txCtx, existing.OrderNumber, model.OrderStatusCancelled); err != nil {
			return fmt.Errorf("failed to cancel order: %w", err)
		}
		existing.Status = model.OrderStatusCancelled
		events = stockEventPayloads(products)
		order = existing
		released = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if released {
		s.auditor.Record(ctx, userID, model.ActionCancelOrder, order.OrderNumber, order.CustomerName, map[string]any{
			"returned_items": order.Items,
		})
		s.broadcast(events)
	}
	return order, nil
}

func (s *orderService) DeleteOrder(ctx context.Context, userID string, orderNumber string) error {
	var customer string
	var events [][]byte
	var returned []model.OrderItem
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		existing, err := s.orderRepo.FindByNumberWithItems(txCtx, orderNumber)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", ErrOrderNotFound, orderNumber)
			}
			return fmt.Errorf("failed to load order: %w", err)
		}

		// A cancelled order already gave its reservation back.
		if existing.Status != model.OrderStatusCancelled {
			products, err := s.reservation.Release(txCtx, itemsToQuantities(existing.Items))
			if err != nil {
				return err
			}
			events = stockEventPayloads(products)
			returned = existing.Items
		}

		customer = existing.CustomerName
		return s.orderRepo.Delete(txCtx, existing.OrderNumber)
	})
	if err != nil {
		return err
	}

	if len(returned) > 0 {
		s.auditor.Record(ctx, userID, model.ActionReturnStock, orderNumber, customer, map[string]any{
			"returned_items": returned,
		})
	}
	s.auditor.Record(ctx, userID, model.ActionDeleteOrder, orderNumber, customer, nil)
	s.broadcast(events)
	return nil
}

func (s *orderService) GetOrder(ctx context.Context, orderNumber string) (*model.Order, error) {
	order, err := s.orderRepo.FindByNumberWithItems(ctx, orderNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, orderNumber)
		}
		return nil, err
	}
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, page, limit int, status string, from, to *time.Time) ([]model.Order, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.orderRepo.List(ctx, page, limit, status, from, to)
}

// snapshotItems builds the stored line items for an order write. Name, type
// and unit price are frozen at order time; the products map from the stock
// adjustment is preferred, old item snapshots fill in for products the
// adjustment never touched (e.g. an unchanged quantity on a cancelled edit).
func (s *orderService) snapshotItems(ctx context.Context, reqs []OrderItemRequest, products map[string]*model.Product, oldItems []model.OrderItem) ([]model.OrderItem, decimal.Decimal, error) {
	oldByProduct := make(map[string]model.OrderItem, len(oldItems))
	for _, it := range oldItems {
		oldByProduct[it.ProductID] = it
	}

	items := make([]model.OrderItem, 0, len(reqs))
	total := decimal.Zero
	for _, req := range reqs {
		var item model.OrderItem
		if p, ok := products[req.ProductID]; ok {
			item = model.OrderItem{ProductID: p.ID, ProductName: p.Name, ProductType: p.Type, UnitPrice: p.Price}
		} else if old, ok := oldByProduct[req.ProductID]; ok {
			item = model.OrderItem{ProductID: old.ProductID, ProductName: old.ProductName, ProductType: old.ProductType, UnitPrice: old.UnitPrice}
		} else {
			return nil, decimal.Zero, fmt.Errorf("%w: %s", ErrProductNotFound, req.ProductID)
		}
		item.Quantity = req.Quantity
		items = append(items, item)
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(req.Quantity))))
	}
	return items, total, nil
}

// buildItems is the create-path variant of snapshotItems: every product is
// guaranteed present in the reservation result.
func buildItems(reqs []OrderItemRequest, products map[string]*model.Product) ([]model.OrderItem, decimal.Decimal) {
	items := make([]model.OrderItem, 0, len(reqs))
	total := decimal.Zero
	for _, req := range reqs {
		p := products[req.ProductID]
		item := model.OrderItem{
			ProductID:   p.ID,
			ProductName: p.Name,
			ProductType: p.Type,
			Quantity:    req.Quantity,
			UnitPrice:   p.Price,
		}
		items = append(items, item)
		total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(req.Quantity))))
	}
	return items, total
}

// computeInstallments mirrors the split-payment math of the order form:
// base = ceil(total/count) per installment, remainder folded into the last
// one, and a zero amount while installment_number is 0 ("not yet paid").
func computeInstallments(status string, total decimal.Decimal, count, number int) (*int, *int, decimal.Decimal, error) {
	if status != model.OrderStatusSplit {
		return nil, nil, total, nil
	}
	if count < 2 {
		return nil, nil, decimal.Zero, fmt.Errorf("installments_count must be at least 2, got %d", count)
	}
	if number < 0 || number > count {
		return nil, nil, decimal.Zero, fmt.Errorf("installment_number must be between 0 and %d, got %d", count, number)
	}

	var amount decimal.Decimal
	switch {
	case number == 0:
		amount = decimal.Zero
	case number < count:
		amount = total.Div(decimal.NewFromInt(int64(count))).Ceil()
	default:
		base := total.Div(decimal.NewFromInt(int64(count))).Ceil()
		amount = total.Sub(base.Mul(decimal.NewFromInt(int64(count - 1))))
	}
	return &count, &number, amount, nil
}

func toItemQuantities(reqs []OrderItemRequest) []ItemQuantity {
	out := make([]ItemQuantity, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, ItemQuantity{ProductID: r.ProductID, Quantity: r.Quantity})
	}
	return out
}

func itemsToQuantities(items []model.OrderItem) []ItemQuantity {
	out := make([]ItemQuantity, 0, len(items))
	for _, it := range items {
		out = append(out, ItemQuantity{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return out
}

func parseFormDate(s string, fallback time.Time) (time.Time, error) {
	if s == "" {
		return fallback, nil
	}
	return time.Parse("2006-01-02", s)
}

func parseOptionalFormDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// stockEventPayloads renders one stock_updated event per touched product.
// They are collected inside the transaction but broadcast only after commit,
// so a retried attempt leaves no trace on connected clients.
func stockEventPayloads(products map[string]*model.Product) [][]byte {
	events := make([][]byte, 0, len(products))
	for _, p := range products {
		payload, err := json.Marshal(map[string]any{
			"event": "stock_updated",
			"data":  map[string]any{"product_id": p.ID, "stock": p.Stock},
		})
		if err != nil {
			continue
		}
		events = append(events, payload)
	}
	return events
}

func orderCreatedPayload(o *model.Order) [][]byte {
	payload, err := json.Marshal(map[string]any{
		"event": "order_created",
		"data": map[string]any{
			"order_number":  o.OrderNumber,
			"customer_name": o.CustomerName,
			"status":        o.Status,
			"total_amount":  o.TotalAmount,
		},
	})
	if err != nil {
		return nil
	}
	return [][]byte{payload}
}

func (s *orderService) broadcast(events [][]byte) {
	if s.hub == nil {
		return
	}
	for _, payload := range events {
		s.hub.Broadcast <- payload
	}
}

