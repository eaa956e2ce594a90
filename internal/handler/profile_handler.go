package handler

import (
	"encoding/json"
	"net/http"

	"insight-service/internal/ingest"
	"insight-service/internal/middleware"
	"insight-service/internal/profiler"
	"insight-service/pkg/logger"
	"insight-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Sample records inspected per connector when profiling from field names.
const profileSampleSize = 5

// ProfileHandler classifies the tenant's industry from its connector data.
type ProfileHandler struct {
	svc *ingest.Service
}

// NewProfileHandler creates the handler around the ingestion service.
func NewProfileHandler(svc *ingest.Service) *ProfileHandler {
	return &ProfileHandler{svc: svc}
}

// GetProfile builds the business profile from stored connector
// metadata and data samples.
func (h *ProfileHandler) GetProfile(c echo.Context) error {
	log := logger.FromContext(c)
	tenantID := middleware.TenantID(c)

	rows, err := h.svc.ListConnectorData(c.Request().Context(), tenantID)
	if err != nil {
		return respondAppError(c, log, err, "profile data retrieval failed")
	}

	metadata := make(map[string]string)
	var samples []map[string]any
	for _, row := range rows {
		if row.Metadata != "" {
			var m map[string]any
			if err := json.Unmarshal([]byte(row.Metadata), &m); err == nil {
				for k, v := range m {
					if s, ok := v.(string); ok && metadata[k] == "" {
						metadata[k] = s
					}
				}
			}
		}
		records, _, err := h.svc.Snapshot(c.Request().Context(), tenantID, row.ConnectorID, row.DataType)
		if err != nil {
			// A broken snapshot only weakens the field heuristics.
			log.Warn("Snapshot unavailable for profiling",
				zap.String("connector_id", row.ConnectorID),
				zap.String("data_type", row.DataType),
				zap.Error(err))
			continue
		}
		for i, rec := range records {
			if i == profileSampleSize {
				break
			}
			samples = append(samples, rec)
		}
	}

	profile := profiler.Classify(metadata, samples)
	prometheus.RecordTenantOperation("profile")
	log.Info("Business profile classified",
		zap.Uint("tenant_id", tenantID),
		zap.String("industry", profile.Industry),
		zap.String("matched_by", profile.MatchedBy))
	return c.JSON(http.StatusOK, profile)
}
