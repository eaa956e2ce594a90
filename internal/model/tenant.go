package model

import (
	"time"

	"gorm.io/gorm"
)

// Subscription statuses a tenant can be in.
const (
	SubscriptionTrial     = "trial"
	SubscriptionActive    = "active"
	SubscriptionPastDue   = "past_due"
	SubscriptionCancelled = "cancelled"
)

// Tenant represents the tenant model stored in the database
// This is the core of our multi-tenant architecture
type Tenant struct {
	ID                 uint           `json:"id" gorm:"primaryKey"`
	Name               string         `json:"name" gorm:"type:varchar(100);uniqueIndex"`
	Description        string         `json:"description" gorm:"type:text"`
	OwnerID            uint           `json:"owner_id" gorm:"index;not null"`
	SubscriptionStatus string         `json:"subscription_status" gorm:"type:varchar(20);not null;default:'trial'"`
	Active             bool           `json:"active" gorm:"default:true"`
	Settings           string         `json:"settings" gorm:"type:jsonb"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations - users and workspaces are removed together with the tenant
	Users      []User      `json:"users,omitempty" gorm:"foreignKey:TenantID;constraint:OnDelete:CASCADE"`
	Workspaces []Workspace `json:"workspaces,omitempty" gorm:"foreignKey:TenantID;constraint:OnDelete:CASCADE"`
}
