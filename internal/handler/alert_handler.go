package handler

import (
	"net/http"
	"strconv"
	"time"

	"insight-service/internal/middleware"
	"insight-service/internal/model"
	"insight-service/pkg/logger"
	"insight-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ListAlerts returns the tenant's data quality alerts. With ?open=true
// only unresolved alerts are returned.
func ListAlerts(c echo.Context) error {
	log := logger.FromContext(c)
	tenantID := middleware.TenantID(c)

	openOnly := false
	if v := c.QueryParam("open"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			prometheus.RecordError("validation")
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid open parameter"})
		}
		openOnly = parsed
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var alerts []model.DataQualityAlert
	err := withTenant(c, tenantID, func(tx *gorm.DB) error {
		query := tx.Where("tenant_id = ?", tenantID)
		if openOnly {
			query = query.Where("resolved = ?", false)
		}
		return query.Order("created_at DESC, id DESC").Find(&alerts).Error
	})
	if err != nil {
		log.Error("Failed to list alerts", zap.Error(err))
		prometheus.RecordError("persistence")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve alerts"})
	}

	if openOnly {
		prometheus.UpdateOpenAlerts(tenantID, len(alerts))
	}
	return c.JSON(http.StatusOK, alerts)
}

// ResolveAlert marks one alert as resolved
func ResolveAlert(c echo.Context) error {
	log := logger.FromContext(c)
	tenantID := middleware.TenantID(c)
	id := c.Param("id")

	defer prometheus.TrackDBOperation("update")(time.Now())
	var notFound bool
	err := withTenant(c, tenantID, func(tx *gorm.DB) error {
		result := tx.Model(&model.DataQualityAlert{}).
			Where("tenant_id = ? AND id = ?", tenantID, id).
			Update("resolved", true)
		if result.Error != nil {
			return result.Error
		}
		notFound = result.RowsAffected == 0
		return nil
	})
	if err != nil {
		log.Error("Failed to resolve alert", zap.String("alert_id", id), zap.Error(err))
		prometheus.RecordError("persistence")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to resolve alert"})
	}
	if notFound {
		prometheus.RecordError("not_found")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "alert not found"})
	}

	log.Info("Alert resolved", zap.String("alert_id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "alert resolved"})
}
