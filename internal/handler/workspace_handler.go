package handler

import (
	"net/http"
	"time"

	"insight-service/internal/middleware"
	"insight-service/internal/model"
	"insight-service/pkg/database"
	"insight-service/pkg/logger"
	"insight-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// WorkspaceRequest defines the structure for workspace creation/update requests
type WorkspaceRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ListWorkspaces returns all workspaces for the tenant
func ListWorkspaces(c echo.Context) error {
	log := logger.FromContext(c)
	tenantID := middleware.TenantID(c)

	defer prometheus.TrackDBOperation("query")(time.Now())
	var workspaces []model.Workspace
	err := withTenant(c, tenantID, func(tx *gorm.DB) error {
		return tx.Where("tenant_id = ?", tenantID).Order("created_at ASC").Find(&workspaces).Error
	})
	if err != nil {
		log.Error("Failed to list workspaces", zap.Error(err))
		prometheus.RecordError("persistence")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve workspaces"})
	}

	return c.JSON(http.StatusOK, workspaces)
}

// CreateWorkspace creates a workspace within the tenant
func CreateWorkspace(c echo.Context) error {
	log := logger.FromContext(c)
	tenantID := middleware.TenantID(c)

	var req WorkspaceRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		prometheus.RecordError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}
	if req.Name == "" {
		prometheus.RecordError("validation")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	workspace := model.Workspace{
		TenantID:    tenantID,
		Name:        req.Name,
		Description: req.Description,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	err := withTenant(c, tenantID, func(tx *gorm.DB) error {
		return tx.Create(&workspace).Error
	})
	if err != nil {
		log.Error("Failed to create workspace", zap.String("name", req.Name), zap.Error(err))
		prometheus.RecordError("persistence")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create workspace"})
	}

	log.Info("Workspace created",
		zap.Uint("workspace_id", workspace.ID),
		zap.String("name", workspace.Name))
	return c.JSON(http.StatusCreated, workspace)
}

// GetWorkspace retrieves a single workspace by ID
func GetWorkspace(c echo.Context) error {
	log := logger.FromContext(c)
	tenantID := middleware.TenantID(c)
	id := c.Param("id")

	defer prometheus.TrackDBOperation("query")(time.Now())
	var workspace model.Workspace
	err := withTenant(c, tenantID, func(tx *gorm.DB) error {
		return tx.Where("tenant_id = ?", tenantID).First(&workspace, id).Error
	})
	if err != nil {
		log.Error("Workspace not found", zap.String("workspace_id", id), zap.Error(err))
		prometheus.RecordError("not_found")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "workspace not found"})
	}

	return c.JSON(http.StatusOK, workspace)
}

// UpdateWorkspace updates a workspace's name or description
func UpdateWorkspace(c echo.Context) error {
	log := logger.FromContext(c)
	tenantID := middleware.TenantID(c)
	id := c.Param("id")

	var req WorkspaceRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		prometheus.RecordError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Description != "" {
		updates["description"] = req.Description
	}
	if len(updates) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no fields to update"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	var notFound bool
	err := withTenant(c, tenantID, func(tx *gorm.DB) error {
		result := tx.Model(&model.Workspace{}).
			Where("tenant_id = ? AND id = ?", tenantID, id).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		notFound = result.RowsAffected == 0
		return nil
	})
	if err != nil {
		log.Error("Failed to update workspace", zap.String("workspace_id", id), zap.Error(err))
		prometheus.RecordError("persistence")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update workspace"})
	}
	if notFound {
		prometheus.RecordError("not_found")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "workspace not found"})
	}

	log.Info("Workspace updated", zap.String("workspace_id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "workspace updated"})
}

// DeleteWorkspace removes a workspace
func DeleteWorkspace(c echo.Context) error {
	log := logger.FromContext(c)
	tenantID := middleware.TenantID(c)
	id := c.Param("id")

	defer prometheus.TrackDBOperation("update")(time.Now())
	var notFound bool
	err := withTenant(c, tenantID, func(tx *gorm.DB) error {
		result := tx.Where("tenant_id = ? AND id = ?", tenantID, id).Delete(&model.Workspace{})
		if result.Error != nil {
			return result.Error
		}
		notFound = result.RowsAffected == 0
		return nil
	})
	if err != nil {
		log.Error("Failed to delete workspace", zap.String("workspace_id", id), zap.Error(err))
		prometheus.RecordError("persistence")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete workspace"})
	}
	if notFound {
		prometheus.RecordError("not_found")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "workspace not found"})
	}

	log.Info("Workspace deleted", zap.String("workspace_id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "workspace deleted"})
}

// withTenant runs fn in a tenant-scoped transaction for the request.
func withTenant(c echo.Context, tenantID uint, fn func(tx *gorm.DB) error) error {
	return database.WithTenant(c.Request().Context(), database.GetDB(), tenantID, fn)
}
