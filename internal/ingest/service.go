package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"insight-service/internal/apperr"
	"insight-service/internal/model"
	"insight-service/pkg/config"
	"insight-service/pkg/database"
	"insight-service/prometheus"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Record is one flat key/value map pulled from a connector.
type Record map[string]any

// IngestRequest describes one batch of connector records for a tenant.
type IngestRequest struct {
	TenantID    uint           `json:"-"`
	ConnectorID string         `json:"connector_id"`
	DataType    string         `json:"data_type"`
	SourceType  string         `json:"source_type"`
	Records     []Record       `json:"records"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// IngestResult reports what a successful ingestion stored.
type IngestResult struct {
	RecordCount int       `json:"record_count"`
	SyncedAt    time.Time `json:"synced_at"`
	Chunked     bool      `json:"chunked"`
}

// Service performs connector ingestion. Each call is one transaction:
// the snapshot upsert, chunk rewrite and staging appends either all
// commit or all roll back.
type Service struct {
	db  *gorm.DB
	cfg config.IngestConfig
	log *zap.Logger
}

// NewService creates an ingestion service.
func NewService(db *gorm.DB, cfg config.IngestConfig, log *zap.Logger) *Service {
	return &Service{db: db, cfg: cfg, log: log}
}

// Ingest validates the request and performs an atomic insert-or-replace
// keyed by (tenant, connector, data_type). The previous snapshot for
// that key is discarded; concurrent ingests for the same key serialize
// on the unique index so the last writer wins without torn state.
func (s *Service) Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error) {
	if req.TenantID == 0 {
		return nil, apperr.New(apperr.Configuration, "missing tenant context")
	}
	if req.ConnectorID == "" {
		return nil, apperr.New(apperr.Validation, "connector_id is required")
	}
	if req.DataType == "" {
		return nil, apperr.New(apperr.Validation, "data_type is required")
	}
	if req.Records == nil {
		return nil, apperr.New(apperr.Validation, "records array is required")
	}
	if req.SourceType == "" {
		req.SourceType = req.ConnectorID
	}

	payload, err := json.Marshal(req.Records)
	if err != nil {
		return nil, apperr.Wrap(apperr.Validation, err, "records are not serializable")
	}
	metadata := "{}"
	if req.Metadata != nil {
		raw, err := json.Marshal(req.Metadata)
		if err != nil {
			return nil, apperr.Wrap(apperr.Validation, err, "metadata is not serializable")
		}
		metadata = string(raw)
	}

	syncedAt := time.Now().UTC()
	chunked := len(payload) > s.cfg.ChunkThresholdBytes

	defer prometheus.TrackDBOperation("upsert")(time.Now())
	err = database.WithTenant(ctx, s.db, req.TenantID, func(tx *gorm.DB) error {
		row := snapshotRow(req, payload, metadata, chunked, syncedAt)

		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "tenant_id"}, {Name: "connector_id"}, {Name: "data_type"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"data", "chunked", "record_count", "metadata", "synced_at", "updated_at",
			}),
		}).Create(&row).Error; err != nil {
			return fmt.Errorf("snapshot upsert failed: %w", err)
		}

		// Re-read the key to get a reliable row ID after a conflict update.
		var stored model.ConnectorData
		if err := tx.Where("tenant_id = ? AND connector_id = ? AND data_type = ?",
			req.TenantID, req.ConnectorID, req.DataType).First(&stored).Error; err != nil {
			return fmt.Errorf("snapshot readback failed: %w", err)
		}

		if err := tx.Where("connector_data_id = ?", stored.ID).
			Delete(&model.ConnectorDataChunk{}).Error; err != nil {
			return fmt.Errorf("chunk cleanup failed: %w", err)
		}
		if chunked {
			if err := s.writeChunks(tx, &stored, req.Records); err != nil {
				return err
			}
		}

		return s.stageRecords(tx, req, syncedAt)
	})
	if err != nil {
		if _, ok := apperr.KindOf(err); ok {
			return nil, err
		}
		prometheus.RecordError("persistence")
		return nil, apperr.Wrap(apperr.Persistence, err, "ingestion aborted")
	}

	prometheus.RecordIngest(req.ConnectorID, req.DataType, len(req.Records))
	s.log.Info("Connector batch ingested",
		zap.Uint("tenant_id", req.TenantID),
		zap.String("connector_id", req.ConnectorID),
		zap.String("data_type", req.DataType),
		zap.Int("record_count", len(req.Records)),
		zap.Bool("chunked", chunked))

	return &IngestResult{RecordCount: len(req.Records), SyncedAt: syncedAt, Chunked: chunked}, nil
}

// snapshotRow builds the compact connector_data row. A chunked snapshot
// stores an empty JSON array in the compact column, never the empty
// string: the column is jsonb and postgres rejects "" as invalid JSON.
// Readers key off the Chunked flag, not the column contents.
func snapshotRow(req IngestRequest, payload []byte, metadata string, chunked bool, syncedAt time.Time) model.ConnectorData {
	row := model.ConnectorData{
		TenantID:    req.TenantID,
		ConnectorID: req.ConnectorID,
		DataType:    req.DataType,
		Data:        string(payload),
		Chunked:     chunked,
		RecordCount: len(req.Records),
		Metadata:    metadata,
		SyncedAt:    syncedAt,
	}
	if chunked {
		row.Data = "[]"
	}
	return row
}

func (s *Service) writeChunks(tx *gorm.DB, parent *model.ConnectorData, records []Record) error {
	size := s.cfg.ChunkSizeRecords
	if size <= 0 {
		size = 500
	}
	for i, index := 0, 0; i < len(records); i, index = i+size, index+1 {
		end := i + size
		if end > len(records) {
			end = len(records)
		}
		data, err := json.Marshal(records[i:end])
		if err != nil {
			return apperr.Wrap(apperr.Validation, err, "chunk is not serializable")
		}
		chunk := model.ConnectorDataChunk{
			ConnectorDataID: parent.ID,
			TenantID:        parent.TenantID,
			ChunkIndex:      index,
			Data:            string(data),
		}
		if err := tx.Create(&chunk).Error; err != nil {
			return fmt.Errorf("chunk insert failed: %w", err)
		}
	}
	return nil
}

// stagingConflict targets the staging dedupe key. The key is scoped by
// tenant_id: sources are tenant-owned, so two tenants ingesting the
// same connector name with overlapping upstream record ids must both
// land in the staging log.
var stagingConflict = clause.OnConflict{
	Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "source_id"}, {Name: "source_record_id"}},
	DoNothing: true,
}

// stageRecords appends each record to the raw staging log. Uniqueness
// on (tenant_id, source_id, source_record_id) turns re-ingestion of the
// same upstream record into a silent duplicate rejection.
func (s *Service) stageRecords(tx *gorm.DB, req IngestRequest, ingestedAt time.Time) error {
	if len(req.Records) == 0 {
		return nil
	}
	rows := make([]model.RawConnectorRecord, 0, len(req.Records))
	for _, rec := range req.Records {
		payload, err := json.Marshal(rec)
		if err != nil {
			return apperr.Wrap(apperr.Validation, err, "record is not serializable")
		}
		rows = append(rows, model.RawConnectorRecord{
			RawID:          uuid.New().String(),
			TenantID:       req.TenantID,
			SourceID:       req.ConnectorID,
			SourceType:     req.SourceType,
			SourceRecordID: sourceRecordID(rec, payload),
			Payload:        string(payload),
			IngestedAt:     ingestedAt,
		})
	}
	if err := tx.Clauses(stagingConflict).CreateInBatches(rows, 100).Error; err != nil {
		return fmt.Errorf("staging append failed: %w", err)
	}
	return nil
}

// sourceRecordID picks the upstream identifier for a record. Connectors
// commonly carry one under "id" or "record_id"; when neither exists the
// payload hash keeps re-ingestion of identical records idempotent.
func sourceRecordID(rec Record, payload []byte) string {
	for _, key := range []string{"id", "record_id", "external_id"} {
		if v, ok := rec[key]; ok {
			if s := fmt.Sprintf("%v", v); s != "" {
				return s
			}
		}
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// Snapshot returns the latest stored records for one connector key,
// reassembling chunked payloads in chunk-index order.
func (s *Service) Snapshot(ctx context.Context, tenantID uint, connectorID, dataType string) ([]Record, *model.ConnectorData, error) {
	if tenantID == 0 {
		return nil, nil, apperr.New(apperr.Configuration, "missing tenant context")
	}

	var stored model.ConnectorData
	var records []Record
	defer prometheus.TrackDBOperation("query")(time.Now())
	err := database.WithTenant(ctx, s.db, tenantID, func(tx *gorm.DB) error {
		if err := tx.Where("tenant_id = ? AND connector_id = ? AND data_type = ?",
			tenantID, connectorID, dataType).First(&stored).Error; err != nil {
			return err
		}
		if !stored.Chunked {
			if stored.Data == "" {
				return nil
			}
			return json.Unmarshal([]byte(stored.Data), &records)
		}

		var chunks []model.ConnectorDataChunk
		if err := tx.Where("connector_data_id = ?", stored.ID).
			Order("chunk_index ASC").Find(&chunks).Error; err != nil {
			return err
		}
		for _, chunk := range chunks {
			var part []Record
			if err := json.Unmarshal([]byte(chunk.Data), &part); err != nil {
				return err
			}
			records = append(records, part...)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperr.Newf(apperr.NotFound, "no snapshot for connector %s/%s", connectorID, dataType)
		}
		return nil, nil, apperr.Wrap(apperr.Persistence, err, "snapshot read failed")
	}
	return records, &stored, nil
}

// ListConnectorData returns all snapshot rows for a tenant, most
// recently synced first.
func (s *Service) ListConnectorData(ctx context.Context, tenantID uint) ([]model.ConnectorData, error) {
	if tenantID == 0 {
		return nil, apperr.New(apperr.Configuration, "missing tenant context")
	}
	var rows []model.ConnectorData
	err := database.WithTenant(ctx, s.db, tenantID, func(tx *gorm.DB) error {
		return tx.Where("tenant_id = ?", tenantID).
			Order("synced_at DESC").Find(&rows).Error
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.Persistence, err, "connector data listing failed")
	}
	return rows, nil
}
