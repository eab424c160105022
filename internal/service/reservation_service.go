package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"backend/internal/model"
	"backend/internal/repository"

	"gorm.io/gorm"
)

// ItemQuantity is one product line of a reservation request
type ItemQuantity struct {
	ProductID string
	Quantity  int
}

// ReservationService applies signed stock deltas to products as a single
// all-or-nothing operation. It never opens its own transaction: callers run
// it inside TransactionManager.RunInTx so the stock adjustment commits or
// rolls back together with the order mutation that caused it. Stock is
// re-read on every invocation — nothing is cached across a retry.
type ReservationService interface {
	// Reserve debits stock for every item and returns the locked products so
	// the caller can snapshot name/type/price from the same read. If any item
	// would go negative the whole call fails with *InsufficientStockError and
	// nothing is written.
	Reserve(ctx context.Context, items []ItemQuantity) (map[string]*model.Product, error)

	// Release credits stock back. Products that no longer exist are skipped:
	// there is nothing left to return the stock to.
	Release(ctx context.Context, items []ItemQuantity) (map[string]*model.Product, error)

	// Adjust applies signed deltas (positive = credit, negative = debit) in
	// one pass, so an order edit touching the same product nets to a single
	// read-modify-write instead of a release racing a reserve.
	Adjust(ctx context.Context, deltas map[string]int) (map[string]*model.Product, error)
}

type reservationService struct {
	productRepo repository.ProductRepository
}

func NewReservationService(productRepo repository.ProductRepository) ReservationService {
	return &reservationService{productRepo: productRepo}
}

func (s *reservationService) Reserve(ctx context.Context, items []ItemQuantity) (map[string]*model.Product, error) {
	return s.Adjust(ctx, sumDeltas(items, -1))
}

func (s *reservationService) Release(ctx context.Context, items []ItemQuantity) (map[string]*model.Product, error) {
	return s.Adjust(ctx, sumDeltas(items, +1))
}

func (s *reservationService) Adjust(ctx context.Context, deltas map[string]int) (map[string]*model.Product, error) {
	// Lock rows in a fixed order so two concurrent adjustments can never
	// deadlock on each other.
	ids := make([]string, 0, len(deltas))
	for id := range deltas {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	touched := make(map[string]*model.Product, len(ids))
	var insufficient []InsufficientItem

	for _, id := range ids {
		delta := deltas[id]
		if delta == 0 {
			continue
		}

		product, err := s.productRepo.FindByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				if delta > 0 {
					continue
				}
				return nil, fmt.Errorf("%w: %s", ErrProductNotFound, id)
			}
			return nil, fmt.Errorf("failed to load product %s: %w", id, err)
		}

		next := product.Stock + delta
		if next < 0 {
			insufficient = append(insufficient, InsufficientItem{
				ProductID:   product.ID,
				ProductName: product.Name,
				Requested:   -delta,
				Available:   product.Stock,
			})
			continue
		}

		product.Stock = next
		touched[id] = product
	}

	if len(insufficient) > 0 {
		return nil, &InsufficientStockError{Items: insufficient}
	}

	for _, id := range ids {
		product, ok := touched[id]
		if !ok {
			continue
		}
		if err := s.productRepo.UpdateStock(ctx, id, product.Stock); err != nil {
			return nil, fmt.Errorf("failed to update stock for %s: %w", id, err)
		}
	}

	return touched, nil
}

// sumDeltas folds item quantities into one signed delta per product, so an
// order listing the same product twice is handled as a single adjustment.
func sumDeltas(items []ItemQuantity, sign int) map[string]int {
	deltas := make(map[string]int, len(items))
	for _, it := range items {
		deltas[it.ProductID] += sign * it.Quantity
	}
	return deltas
}
