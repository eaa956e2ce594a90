package narrative

import (
	"context"
	"errors"
	"time"

	"insight-service/internal/model"
	"insight-service/pkg/database"
	"insight-service/prometheus"

	"gorm.io/gorm"
)

// DataStore reads the latest analytic rows for a tenant. A nil row with
// a nil error means no data exists for that type; the caller skips the
// corresponding narrative section.
type DataStore interface {
	LatestMetric(ctx context.Context, tenantID uint, metricType string) (*model.BusinessMetric, error)
	LatestForecast(ctx context.Context, tenantID uint, forecastType string) (*model.Forecast, error)
	LatestOptimization(ctx context.Context, tenantID uint, problemType string) (*model.OptimizationRun, error)
}

// GormStore is the production DataStore. "Latest" is always ordered by
// created_at DESC, id DESC so rows sharing a timestamp still resolve
// deterministically.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a DataStore backed by the given database.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) LatestMetric(ctx context.Context, tenantID uint, metricType string) (*model.BusinessMetric, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var row model.BusinessMetric
	err := database.WithTenant(ctx, s.db, tenantID, func(tx *gorm.DB) error {
		return tx.Where("tenant_id = ? AND metric_type = ?", tenantID, metricType).
			Order("created_at DESC, id DESC").
			First(&row).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *GormStore) LatestForecast(ctx context.Context, tenantID uint, forecastType string) (*model.Forecast, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var row model.Forecast
	err := database.WithTenant(ctx, s.db, tenantID, func(tx *gorm.DB) error {
		return tx.Where("tenant_id = ? AND forecast_type = ?", tenantID, forecastType).
			Order("created_at DESC, id DESC").
			First(&row).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *GormStore) LatestOptimization(ctx context.Context, tenantID uint, problemType string) (*model.OptimizationRun, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var row model.OptimizationRun
	err := database.WithTenant(ctx, s.db, tenantID, func(tx *gorm.DB) error {
		return tx.Where("tenant_id = ? AND problem_type = ?", tenantID, problemType).
			Order("created_at DESC, id DESC").
			First(&row).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}
