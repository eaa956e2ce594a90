package model

import (
	"time"
)

// ConnectorData holds the latest snapshot of records pulled from one
// connector for one data type. Re-ingestion replaces the snapshot in
// place (last-write-wins), keyed by (tenant_id, connector_id, data_type).
type ConnectorData struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	TenantID    uint      `json:"tenant_id" gorm:"uniqueIndex:idx_connector_data_key;not null"`
	ConnectorID string    `json:"connector_id" gorm:"type:varchar(100);uniqueIndex:idx_connector_data_key;not null"`
	DataType    string    `json:"data_type" gorm:"type:varchar(100);uniqueIndex:idx_connector_data_key;not null"`
	Data        string    `json:"data" gorm:"type:jsonb"` // JSON array snapshot; empty when chunked
	Chunked     bool      `json:"chunked" gorm:"default:false"`
	RecordCount int       `json:"record_count" gorm:"not null;default:0"`
	Metadata    string    `json:"metadata" gorm:"type:jsonb"`
	SyncedAt    time.Time `json:"synced_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ConnectorDataChunk shards an oversized snapshot. Readers reassemble
// chunks in ascending ChunkIndex order.
type ConnectorDataChunk struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	ConnectorDataID uint      `json:"connector_data_id" gorm:"uniqueIndex:idx_connector_chunk;not null"`
	TenantID        uint      `json:"tenant_id" gorm:"index;not null"`
	ChunkIndex      int       `json:"chunk_index" gorm:"uniqueIndex:idx_connector_chunk;not null"`
	Data            string    `json:"data" gorm:"type:jsonb"` // JSON array of records in this chunk
	CreatedAt       time.Time `json:"created_at"`
}
