package model

// Counter holds the running sequence for order numbers within one period.
// The ID scopes the period, e.g. "orders_202608" (monthly) or
// "orders_20260831" (daily). It must be incremented inside the same
// transaction that creates the order so concurrent creates can never mint
// duplicate numbers.
type Counter struct {
	ID         string `gorm:"type:varchar(30);primaryKey" json:"id"`
	LastNumber int    `gorm:"type:int;default:0;not null" json:"last_number"`
}
