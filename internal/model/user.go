package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role constants. "super-platinum-admin" is the top tier and the only role
// allowed to manage other admins.
const (
	RoleUser       = "user"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super-platinum-admin"
)

// ValidRole reports whether r is one of the recognised roles
func ValidRole(r string) bool {
	return r == RoleUser || r == RoleAdmin || r == RoleSuperAdmin
}

// User is a staff account. Password holds a bcrypt hash, never plaintext.
type User struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Username    string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"username"`
	DisplayName string         `gorm:"type:varchar(255)" json:"display_name"`
	Phone       string         `gorm:"type:varchar(20)" json:"phone"`
	Password    string         `gorm:"type:varchar(255);not null" json:"-"`
	Role        string         `gorm:"type:varchar(30);default:'user';not null" json:"role"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
