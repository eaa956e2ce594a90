package model

import (
	"time"

	"gorm.io/gorm"
)

// User represents the user model stored in the database.
// Email is unique within a tenant, not globally.
type User struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	TenantID  uint           `json:"tenant_id" gorm:"uniqueIndex:idx_users_tenant_email;not null"`
	Email     string         `json:"email" gorm:"type:varchar(100);uniqueIndex:idx_users_tenant_email;not null"`
	Password  string         `json:"-" gorm:"type:varchar(255)"`
	Role      string         `json:"role" gorm:"type:varchar(50);not null;default:'member'"` // 'owner', 'admin', 'member'
	Active    bool           `json:"active" gorm:"default:true"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
