package handler

import (
	"errors"
	"net/http"

	"insight-service/internal/apperr"
	"insight-service/internal/ingest"
	"insight-service/internal/middleware"
	"insight-service/pkg/logger"
	"insight-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// IngestHandler exposes the connector ingestion surface.
type IngestHandler struct {
	svc *ingest.Service
}

// NewIngestHandler creates the handler around an ingestion service.
func NewIngestHandler(svc *ingest.Service) *IngestHandler {
	return &IngestHandler{svc: svc}
}

// Ingest accepts one batch of connector records for the tenant
func (h *IngestHandler) Ingest(c echo.Context) error {
	log := logger.FromContext(c)

	var req ingest.IngestRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse ingestion request", zap.Error(err))
		prometheus.RecordError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	req.TenantID = middleware.TenantID(c)

	result, err := h.svc.Ingest(c.Request().Context(), req)
	if err != nil {
		return respondAppError(c, log, err, "ingestion failed")
	}

	return c.JSON(http.StatusOK, result)
}

// Snapshot returns the latest stored records for one connector key
func (h *IngestHandler) Snapshot(c echo.Context) error {
	log := logger.FromContext(c)
	tenantID := middleware.TenantID(c)
	connectorID := c.Param("connector")
	dataType := c.Param("data_type")

	records, stored, err := h.svc.Snapshot(c.Request().Context(), tenantID, connectorID, dataType)
	if err != nil {
		return respondAppError(c, log, err, "snapshot retrieval failed")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"connector_id": stored.ConnectorID,
		"data_type":    stored.DataType,
		"record_count": stored.RecordCount,
		"synced_at":    stored.SyncedAt,
		"chunked":      stored.Chunked,
		"records":      records,
	})
}

// respondAppError maps typed error kinds onto HTTP statuses. The error
// message names the violated constraint; internal detail stays in logs.
func respondAppError(c echo.Context, log *zap.Logger, err error, fallback string) error {
	kind, ok := apperr.KindOf(err)
	if !ok {
		log.Error(fallback, zap.Error(err))
		prometheus.RecordError("internal")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": fallback})
	}

	prometheus.RecordError(kind.String())
	message := fallback
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		message = appErr.Msg
	}

	switch kind {
	case apperr.Validation:
		log.Warn(fallback, zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": message})
	case apperr.NotFound:
		log.Warn(fallback, zap.Error(err))
		return c.JSON(http.StatusNotFound, echo.Map{"error": message})
	case apperr.Upstream:
		log.Error(fallback, zap.Error(err))
		return c.JSON(http.StatusBadGateway, echo.Map{"error": message})
	default:
		log.Error(fallback, zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": message})
	}
}
