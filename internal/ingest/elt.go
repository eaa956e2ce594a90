package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"insight-service/internal/model"
	"insight-service/pkg/config"
	"insight-service/pkg/database"
	"insight-service/prometheus"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Processor consumes one staged record. The consumer delivers
// at-least-once: a crash between Process and the flag update replays
// the row on the next poll, so implementations must be idempotent.
type Processor interface {
	Process(ctx context.Context, rec model.RawConnectorRecord) error
}

// StagingStore is the consumer's view of the raw staging log.
type StagingStore interface {
	FetchUnprocessed(ctx context.Context, limit int) ([]model.RawConnectorRecord, error)
	MarkProcessed(ctx context.Context, ids []uint) error
	CountUnprocessed(ctx context.Context) (int64, error)
}

// GormStagingStore is the production StagingStore. It crosses tenants
// by design, so every call runs on the explicit RLS bypass path rather
// than a tenant session.
type GormStagingStore struct {
	db *gorm.DB
}

// NewGormStagingStore creates a StagingStore backed by the given database.
func NewGormStagingStore(db *gorm.DB) *GormStagingStore {
	return &GormStagingStore{db: db}
}

func (s *GormStagingStore) FetchUnprocessed(ctx context.Context, limit int) ([]model.RawConnectorRecord, error) {
	var batch []model.RawConnectorRecord
	err := database.WithBypass(ctx, s.db, func(tx *gorm.DB) error {
		return tx.Where("processed = ?", false).
			Order("ingested_at ASC, id ASC").
			Limit(limit).
			Find(&batch).Error
	})
	return batch, err
}

func (s *GormStagingStore) MarkProcessed(ctx context.Context, ids []uint) error {
	return database.WithBypass(ctx, s.db, func(tx *gorm.DB) error {
		return tx.Model(&model.RawConnectorRecord{}).
			Where("id IN ?", ids).
			Update("processed", true).Error
	})
}

func (s *GormStagingStore) CountUnprocessed(ctx context.Context) (int64, error) {
	var count int64
	err := database.WithBypass(ctx, s.db, func(tx *gorm.DB) error {
		return tx.Model(&model.RawConnectorRecord{}).
			Where("processed = ?", false).
			Count(&count).Error
	})
	return count, err
}

// Consumer polls the raw staging log for unprocessed rows, hands them
// to a Processor in ingestion order, and flips the processed flag.
type Consumer struct {
	store     StagingStore
	processor Processor
	interval  time.Duration
	batchSize int
	log       *zap.Logger
}

// NewConsumer creates an ELT consumer.
func NewConsumer(store StagingStore, processor Processor, cfg config.IngestConfig, log *zap.Logger) *Consumer {
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 200
	}
	return &Consumer{store: store, processor: processor, interval: interval, batchSize: batchSize, log: log}
}

// Run polls until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.log.Info("ELT consumer started", zap.Duration("interval", c.interval), zap.Int("batch_size", c.batchSize))
	for {
		select {
		case <-ctx.Done():
			c.log.Info("ELT consumer stopped")
			return
		case <-ticker.C:
			if _, err := c.RunOnce(ctx); err != nil {
				c.log.Error("ELT poll failed", zap.Error(err))
			}
		}
	}
}

// RunOnce drains one batch of unprocessed rows and returns how many
// were marked processed.
func (c *Consumer) RunOnce(ctx context.Context) (int, error) {
	backlog, err := c.store.CountUnprocessed(ctx)
	if err != nil {
		return 0, fmt.Errorf("staging backlog count failed: %w", err)
	}
	prometheus.StagingBacklogGauge.Set(float64(backlog))
	if backlog == 0 {
		return 0, nil
	}

	batch, err := c.store.FetchUnprocessed(ctx, c.batchSize)
	if err != nil {
		return 0, fmt.Errorf("staging poll failed: %w", err)
	}

	done := make([]uint, 0, len(batch))
	for _, rec := range batch {
		if err := c.processor.Process(ctx, rec); err != nil {
			// Leave the row unprocessed; it is retried on the next poll.
			c.log.Warn("Staged record processing failed",
				zap.String("raw_id", rec.RawID),
				zap.String("source_id", rec.SourceID),
				zap.Error(err))
			continue
		}
		done = append(done, rec.ID)
	}
	if len(done) == 0 {
		return 0, nil
	}

	if err := c.store.MarkProcessed(ctx, done); err != nil {
		// The records were processed but the flag update failed; the
		// next poll re-delivers them, which the at-least-once contract
		// allows.
		return 0, fmt.Errorf("processed flag update failed: %w", err)
	}

	prometheus.ELTProcessedCounter.Add(float64(len(done)))
	c.log.Debug("Staged records consumed", zap.Int("count", len(done)))
	return len(done), nil
}

// AlertStore records data quality alerts raised by staging processors.
type AlertStore interface {
	HasOpenAlert(ctx context.Context, tenantID uint, message string) (bool, error)
	CreateAlert(ctx context.Context, alert *model.DataQualityAlert) error
}

// GormAlertStore is the production AlertStore, on the bypass path for
// the same reason as GormStagingStore.
type GormAlertStore struct {
	db *gorm.DB
}

// NewGormAlertStore creates an AlertStore backed by the given database.
func NewGormAlertStore(db *gorm.DB) *GormAlertStore {
	return &GormAlertStore{db: db}
}

func (s *GormAlertStore) HasOpenAlert(ctx context.Context, tenantID uint, message string) (bool, error) {
	var existing model.DataQualityAlert
	err := database.WithBypass(ctx, s.db, func(tx *gorm.DB) error {
		return tx.Where("tenant_id = ? AND message = ? AND resolved = ?", tenantID, message, false).
			First(&existing).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *GormAlertStore) CreateAlert(ctx context.Context, alert *model.DataQualityAlert) error {
	return database.WithBypass(ctx, s.db, func(tx *gorm.DB) error {
		return tx.Create(alert).Error
	})
}

// QualityChecker is a Processor that raises data quality alerts for
// staged records whose payloads are empty or not valid JSON objects.
// Re-processing the same record finds the existing open alert and does
// nothing, keeping the processor idempotent.
type QualityChecker struct {
	alerts AlertStore
}

// NewQualityChecker creates the default staging processor.
func NewQualityChecker(alerts AlertStore) *QualityChecker {
	return &QualityChecker{alerts: alerts}
}

func (q *QualityChecker) Process(ctx context.Context, rec model.RawConnectorRecord) error {
	var fields map[string]any
	parseErr := json.Unmarshal([]byte(rec.Payload), &fields)
	if parseErr == nil && len(fields) > 0 {
		return nil
	}

	message := fmt.Sprintf("connector %s delivered an empty record (%s)", rec.SourceID, rec.SourceRecordID)
	if parseErr != nil {
		message = fmt.Sprintf("connector %s delivered a malformed record (%s)", rec.SourceID, rec.SourceRecordID)
	}

	exists, err := q.alerts.HasOpenAlert(ctx, rec.TenantID, message)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return q.alerts.CreateAlert(ctx, &model.DataQualityAlert{
		TenantID: rec.TenantID,
		Severity: model.SeverityWarning,
		Message:  message,
	})
}
