package model

import (
	"time"
)

// RawConnectorRecord is one row of the append-only staging log.
// Uniqueness on (tenant_id, source_id, source_record_id) makes
// re-ingesting the same upstream record a duplicate rejection, never an
// update. The key carries tenant_id because a source is tenant-owned:
// two tenants ingesting the same connector name may legitimately reuse
// the same upstream record ids.
type RawConnectorRecord struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	RawID          string    `json:"raw_id" gorm:"type:uuid;uniqueIndex;not null"`
	TenantID       uint      `json:"tenant_id" gorm:"uniqueIndex:idx_raw_source_record;not null"`
	SourceID       string    `json:"source_id" gorm:"type:varchar(100);uniqueIndex:idx_raw_source_record;not null"`
	SourceType     string    `json:"source_type" gorm:"type:varchar(100);not null"`
	SourceRecordID string    `json:"source_record_id" gorm:"type:varchar(255);uniqueIndex:idx_raw_source_record;not null"`
	Payload        string    `json:"payload" gorm:"type:jsonb"`
	IngestedAt     time.Time `json:"ingested_at" gorm:"index"`
	Processed      bool      `json:"processed" gorm:"default:false;index"`
}
