package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counter metrics
var (
	// Login counters
	LoginCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "insight_login_total",
			Help: "Total number of login attempts",
		},
	)

	// Registration counters
	RegisterCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "insight_register_total",
			Help: "Total number of user registrations",
		},
	)

	// Ingestion counter by connector and data type
	IngestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insight_ingest_total",
			Help: "Total number of connector ingestion calls",
		},
		[]string{"connector", "data_type"},
	)

	// Records ingested counter
	IngestRecordCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insight_ingest_records_total",
			Help: "Total number of records accepted by ingestion",
		},
		[]string{"connector", "data_type"},
	)

	// Narrative generation counter by detected intent
	NarrativeCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insight_narrative_total",
			Help: "Total number of narrative generations by intent",
		},
		[]string{"intent"},
	)

	// LLM enrichment fallback counter
	LLMFallbackCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insight_llm_fallback_total",
			Help: "Total number of narrative generations that fell back to template output",
		},
		[]string{"reason"}, // "timeout", "error", "disabled"
	)

	// Tenant operation counter
	TenantOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insight_tenant_operations_total",
			Help: "Total number of tenant operations",
		},
		[]string{"operation"}, // "create", "access", "update", "delete"
	)

	// HTTP request counter by endpoint and status
	HTTPRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insight_http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status",
		},
		[]string{"endpoint", "method", "status"},
	)

	// Error counters by kind
	ErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insight_errors_total",
			Help: "Total number of errors by type",
		},
		[]string{"type"}, // "validation", "persistence", "upstream", etc.
	)

	// ELT consumer counter
	ELTProcessedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "insight_elt_processed_total",
			Help: "Total number of raw staging rows marked processed",
		},
	)
)

// Histogram metrics
var (
	// Request duration
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "insight_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	// Database operation duration
	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "insight_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"}, // "query", "insert", "update", "upsert"
	)
)

// Gauge metrics
var (
	// Unprocessed staging backlog
	StagingBacklogGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "insight_staging_backlog",
			Help: "Number of unprocessed raw staging rows at last poll",
		},
	)

	// Open data quality alerts per tenant
	OpenAlertsGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "insight_open_alerts",
			Help: "Number of unresolved data quality alerts per tenant",
		},
		[]string{"tenant_id"},
	)
)

// InitMetrics registers all metrics with the Prometheus registry
func InitMetrics() {
	prometheus.MustRegister(
		LoginCounter,
		RegisterCounter,
		IngestCounter,
		IngestRecordCounter,
		NarrativeCounter,
		LLMFallbackCounter,
		TenantOperationCounter,
		HTTPRequestCounter,
		ErrorCounter,
		ELTProcessedCounter,
		RequestDuration,
		DBOperationDuration,
		StagingBacklogGauge,
		OpenAlertsGauge,
	)
}

// GetPrometheusHandler returns the HTTP handler for the /metrics endpoint
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// TrackDBOperation returns a function that records the duration of a
// database operation when deferred.
func TrackDBOperation(operation string) func(time.Time) {
	return func(startTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DBOperationDuration.With(prometheus.Labels{"operation": operation}).Observe(duration)
	}
}

// MetricsMiddleware creates a middleware function that captures metrics for each request
func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			// Execute the request handler
			err := next(c)

			// Record request duration
			duration := time.Since(start).Seconds()
			status := strconv.Itoa(c.Response().Status)
			endpoint := c.Path()
			method := c.Request().Method

			RequestDuration.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Observe(duration)

			HTTPRequestCounter.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Inc()

			return err
		}
	}
}

// RecordError records an error by type
func RecordError(errorType string) {
	ErrorCounter.With(prometheus.Labels{"type": errorType}).Inc()
}

// RecordIngest records one ingestion call and its accepted record count
func RecordIngest(connector, dataType string, records int) {
	IngestCounter.With(prometheus.Labels{"connector": connector, "data_type": dataType}).Inc()
	IngestRecordCounter.With(prometheus.Labels{"connector": connector, "data_type": dataType}).Add(float64(records))
}

// RecordNarrative records a narrative generation by detected intent
func RecordNarrative(intent string) {
	NarrativeCounter.With(prometheus.Labels{"intent": intent}).Inc()
}

// RecordLLMFallback records a fall back to template output
func RecordLLMFallback(reason string) {
	LLMFallbackCounter.With(prometheus.Labels{"reason": reason}).Inc()
}

// RecordTenantOperation records a tenant operation
func RecordTenantOperation(operation string) {
	TenantOperationCounter.With(prometheus.Labels{"operation": operation}).Inc()
}

// UpdateOpenAlerts updates the open alerts gauge for a tenant
func UpdateOpenAlerts(tenantID uint, count int) {
	OpenAlertsGauge.With(prometheus.Labels{
		"tenant_id": strconv.FormatUint(uint64(tenantID), 10),
	}).Set(float64(count))
}
