package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ActionCreateProduct = "CREATE_PRODUCT"
	ActionUpdateProduct = "UPDATE_PRODUCT"
	ActionDeleteProduct = "DELETE_PRODUCT"
	ActionCreateOrder   = "CREATE_ORDER"
	ActionUpdateOrder   = "UPDATE_ORDER"
	ActionCancelOrder   = "CANCEL_ORDER"
	ActionDeleteOrder   = "DELETE_ORDER"
	ActionReturnStock   = "RETURN_STOCK"
	ActionLogin         = "LOGIN"
	ActionLogout        = "LOGOUT"
	ActionCreateUser    = "CREATE_USER"
	ActionUpdateUser    = "UPDATE_USER"
	ActionDeleteUser    = "DELETE_USER"
)

// AuditLog tracks who did what and when. Entries are written best-effort
// after the primary operation commits; they are never read back to enforce
// any invariant.
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // nil for unauthenticated/system actions
	User       *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	Details    string     `gorm:"type:jsonb" json:"details"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(_ *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
