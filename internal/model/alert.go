package model

import (
	"time"
)

// Alert severities.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// DataQualityAlert flags a problem detected in ingested data. The open
// alerts listing filters on resolved = false.
type DataQualityAlert struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	TenantID  uint      `json:"tenant_id" gorm:"index;not null"`
	MetricID  *uint     `json:"metric_id,omitempty" gorm:"index"`
	Severity  string    `json:"severity" gorm:"type:varchar(20);not null;default:'warning'"`
	Message   string    `json:"message" gorm:"type:text;not null"`
	Resolved  bool      `json:"resolved" gorm:"default:false;index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
