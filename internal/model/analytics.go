package model

import (
	"time"
)

// Metric types written by the analytic jobs and read by the narrative layer.
const (
	MetricInventoryHealth = "inventory_health"
	MetricCostSummary     = "cost_summary"
	MetricRevenueSummary  = "revenue_summary"
)

// BusinessMetric is a latest-value row written by external analytic jobs.
// "Latest" for a (tenant, metric_type) pair is defined as the row that
// sorts first by created_at DESC, id DESC - the id tie-break keeps the
// ordering deterministic when two rows share a timestamp.
type BusinessMetric struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	TenantID   uint      `json:"tenant_id" gorm:"index:idx_metrics_tenant_type;not null"`
	MetricType string    `json:"metric_type" gorm:"type:varchar(100);index:idx_metrics_tenant_type;not null"`
	Value      float64   `json:"value"`
	Unit       string    `json:"unit" gorm:"type:varchar(20)"`
	ExtraData  string    `json:"extra_data" gorm:"type:jsonb"` // thresholds, SKU lists, breakdowns
	CreatedAt  time.Time `json:"created_at" gorm:"index"`
}

// Forecast is a latest-value projection per (tenant, forecast_type).
type Forecast struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	TenantID     uint      `json:"tenant_id" gorm:"index:idx_forecasts_tenant_type;not null"`
	ForecastType string    `json:"forecast_type" gorm:"type:varchar(100);index:idx_forecasts_tenant_type;not null"`
	HorizonDays  int       `json:"horizon_days"`
	Points       string    `json:"points" gorm:"type:jsonb"`  // ordered [date, value] pairs
	Summary      string    `json:"summary" gorm:"type:jsonb"` // trend direction, expected change
	CreatedAt    time.Time `json:"created_at" gorm:"index"`
}

// Optimization action kinds produced by the solver jobs.
const (
	ActionReorder     = "reorder"
	ActionReduceStock = "reduce_stock"
)

// OptimizationRun records one solver execution per (tenant, problem_type).
type OptimizationRun struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	TenantID     uint      `json:"tenant_id" gorm:"index:idx_optimizations_tenant_type;not null"`
	ProblemType  string    `json:"problem_type" gorm:"type:varchar(100);index:idx_optimizations_tenant_type;not null"`
	Status       string    `json:"status" gorm:"type:varchar(20);not null;default:'completed'"`
	Actions      string    `json:"actions" gorm:"type:jsonb"` // ordered action list, best first
	TotalSavings float64   `json:"total_savings"`
	CreatedAt    time.Time `json:"created_at" gorm:"index"`
}
