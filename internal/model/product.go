package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProductStatus constants
const (
	ProductStatusAvailable         = "available"
	ProductStatusPendingProduction = "pending-production"
	ProductStatusTemporarilyOut    = "temporarily-out"
)

// ValidProductStatus reports whether s is one of the recognised product statuses
func ValidProductStatus(s string) bool {
	return s == ProductStatusAvailable || s == ProductStatusPendingProduction || s == ProductStatusTemporarilyOut
}

// Product represents a garment item in the shop catalog.
// ID is the human-assigned uppercase product code (e.g. "SKU-001") and doubles
// as the primary key. Stock is only ever mutated through the reservation
// transaction or at product creation — never by plain updates.
type Product struct {
	ID        string          `gorm:"type:varchar(50);primaryKey" json:"id"`
	Name      string          `gorm:"type:varchar(255);not null" json:"name"`
	Type      string          `gorm:"type:varchar(100)" json:"type"`
	Size      string          `gorm:"type:varchar(20)" json:"size"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Stock     int             `gorm:"type:int;default:0;not null" json:"stock"`
	Status    string          `gorm:"type:varchar(30);default:'available';not null" json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	DeletedAt gorm.DeletedAt  `gorm:"index" json:"-"`
}
