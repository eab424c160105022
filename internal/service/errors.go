package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrOrderNotFound     = errors.New("order not found")
	ErrDuplicateProduct  = errors.New("product id already exists")
	ErrInvalidTransition = errors.New("invalid order status transition")
)

// InsufficientItem describes one product that could not cover a requested debit
type InsufficientItem struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Requested   int    `json:"requested"`
	Available   int    `json:"available"`
}

// InsufficientStockError reports every line item whose debit would have taken
// stock negative. The operation it aborts applies no partial effect.
type InsufficientStockError struct {
	Items []InsufficientItem
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Items))
	for _, it := range e.Items {
		parts = append(parts, fmt.Sprintf("%q (%s): requested %d, available %d", it.ProductName, it.ProductID, it.Requested, it.Available))
	}
	return "insufficient stock: " + strings.Join(parts, "; ")
}
