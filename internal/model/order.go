package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderStatus constants
const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusSplit     = "split"
	OrderStatusCancelled = "cancelled"
)

// validOrderTransitions encodes the order lifecycle. "paid" and "cancelled"
// are terminal; a split order may advance another installment (split -> split).
var validOrderTransitions = map[string]map[string]bool{
	OrderStatusPending: {
		OrderStatusPending:   true,
		OrderStatusPaid:      true,
		OrderStatusSplit:     true,
		OrderStatusCancelled: true,
	},
	OrderStatusSplit: {
		OrderStatusSplit:     true,
		OrderStatusPaid:      true,
		OrderStatusCancelled: true,
	},
	OrderStatusPaid:      {OrderStatusPaid: true},
	OrderStatusCancelled: {},
}

// CanTransitionOrder reports whether an order may move from one status to another
func CanTransitionOrder(from, to string) bool {
	return validOrderTransitions[from][to]
}

// ValidOrderStatus reports whether s is a recognised order status
func ValidOrderStatus(s string) bool {
	_, ok := validOrderTransitions[s]
	return ok
}

// Order is a customer order. OrderNumber (YYYYMMDD-NNNN, minted from the
// period counter inside the create transaction) is the primary key.
// Item name/type/price are snapshotted at order time so later product edits
// never change historical orders.
type Order struct {
	OrderNumber       string          `gorm:"type:varchar(20);primaryKey" json:"order_number"`
	CustomerName      string          `gorm:"type:varchar(255);not null" json:"customer_name"`
	Status            string          `gorm:"type:varchar(20);default:'pending';not null;index" json:"status"`
	PaymentMethod     string          `gorm:"type:varchar(50)" json:"payment_method"`
	OrderDate         time.Time       `gorm:"not null;index" json:"order_date"`
	LastPaymentDate   *time.Time      `json:"last_payment_date"`
	TotalAmount       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	InstallmentsCount *int            `gorm:"type:int" json:"installments_count"`
	InstallmentNumber *int            `gorm:"type:int" json:"installment_number"` // 0 means no installment paid yet
	InstallmentAmount decimal.Decimal `gorm:"type:decimal(12,2)" json:"installment_amount"`
	Items             []OrderItem     `gorm:"foreignKey:OrderNumber;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// OrderItem is a line item within an Order
type OrderItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	OrderNumber string          `gorm:"type:varchar(20);not null;index" json:"order_number"`
	ProductID   string          `gorm:"type:varchar(50);not null;index" json:"product_id"`
	ProductName string          `gorm:"type:varchar(255);not null" json:"product_name"`
	ProductType string          `gorm:"type:varchar(100)" json:"product_type"`
	Quantity    int             `gorm:"type:int;not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
}

// BeforeCreate assigns the item ID up front so the same model works on
// postgres and the sqlite test database.
func (i *OrderItem) BeforeCreate(_ *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
