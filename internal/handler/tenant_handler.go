package handler

import (
	"errors"
	"net/http"
	"strconv"
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

// CreateTenant opens an additional business for the authenticated user.
// The caller becomes the owner of the new tenant under the same email
// and password; Login disambiguates between the memberships by
// business_name. The new tenant has no session context yet, so the
// write runs on the bypass path.
func CreateTenant(c echo.Context) error {
	log := logger.FromContext(c)

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse tenant creation request", zap.Error(err))
		prometheus.RecordError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Name == "" {
		prometheus.RecordError("validation")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	currentTenantID := middleware.TenantID(c)
	email, _ := c.Get("email").(string)

	defer prometheus.TrackDBOperation("insert")(time.Now())
	var tenant model.Tenant
	err := database.WithBypass(c.Request().Context(), database.GetDB(), func(tx *gorm.DB) error {
		var existing model.Tenant
		if err := tx.Where("name = ?", req.Name).First(&existing).Error; err == nil {
			return errTenantNameTaken
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var current model.User
		if err := tx.Where("tenant_id = ? AND email = ?", currentTenantID, email).
			First(&current).Error; err != nil {
			return err
		}

		tenant = model.Tenant{
			Name:               req.Name,
			Description:        req.Description,
			SubscriptionStatus: model.SubscriptionTrial,
			Active:             true,
			Settings:           "{}",
		}
		if err := tx.Create(&tenant).Error; err != nil {
			return err
		}

		owner := model.User{
			TenantID: tenant.ID,
			Email:    current.Email,
			Password: current.Password,
			Role:     "owner",
			Active:   true,
		}
		if err := tx.Create(&owner).Error; err != nil {
			return err
		}

		tenant.OwnerID = owner.ID
		return tx.Model(&tenant).Update("owner_id", owner.ID).Error
	})
	if err != nil {
		if errors.Is(err, errTenantNameTaken) {
			prometheus.RecordError("tenant_name_taken")
			return c.JSON(http.StatusConflict, echo.Map{"error": "business name already registered"})
		}
		log.Error("Failed to create tenant", zap.Error(err))
		prometheus.RecordError("tenant_create_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant creation failed"})
	}

	prometheus.RecordTenantOperation("create")
	log.Info("Tenant created",
		zap.Uint("tenant_id", tenant.ID),
		zap.String("name", tenant.Name),
		zap.String("owner_email", email))
	return c.JSON(http.StatusCreated, tenant)
}

// GetTenant returns the authenticated user's tenant. The path ID must
// match the tenant claim; the JWT is the only way to reach another
// tenant and it never carries a foreign ID.
func GetTenant(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTenantOperation("access")

	tenantID := middleware.TenantID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || uint(id) != tenantID {
		log.Warn("Tenant ID mismatch",
			zap.String("requested", c.Param("id")),
			zap.Uint("tenant_id", tenantID))
		prometheus.RecordError("tenant_mismatch")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var tenant model.Tenant
	if result := database.GetDB().First(&tenant, tenantID); result.Error != nil {
		log.Error("Tenant not found", zap.Uint("tenant_id", tenantID), zap.Error(result.Error))
		prometheus.RecordError("tenant_not_found")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
	}

	return c.JSON(http.StatusOK, tenant)
}

// UpdateTenant updates the tenant's description, settings or
// subscription status.
func UpdateTenant(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTenantOperation("update")

	tenantID := middleware.TenantID(c)
	role, _ := c.Get("user_role").(string)
	if role != "owner" && role != "admin" {
		log.Warn("Insufficient role for tenant update", zap.String("role", role))
		prometheus.RecordError("insufficient_role")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "owner or admin role required"})
	}

	var req struct {
		Description        *string `json:"description,omitempty"`
		Settings           *string `json:"settings,omitempty"`
		SubscriptionStatus *string `json:"subscription_status,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse tenant update request", zap.Error(err))
		prometheus.RecordError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	updates := map[string]interface{}{}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Settings != nil {
		updates["settings"] = *req.Settings
	}
	if req.SubscriptionStatus != nil {
		switch *req.SubscriptionStatus {
		case model.SubscriptionTrial, model.SubscriptionActive,
			model.SubscriptionPastDue, model.SubscriptionCancelled:
			updates["subscription_status"] = *req.SubscriptionStatus
		default:
			prometheus.RecordError("invalid_subscription_status")
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid subscription_status"})
		}
	}
	if len(updates) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no fields to update"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	result := database.GetDB().Model(&model.Tenant{}).Where("id = ?", tenantID).Updates(updates)
	if result.Error != nil {
		log.Error("Failed to update tenant", zap.Uint("tenant_id", tenantID), zap.Error(result.Error))
		prometheus.RecordError("tenant_update_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant update failed"})
	}

	log.Info("Tenant updated", zap.Uint("tenant_id", tenantID))
	return c.JSON(http.StatusOK, echo.Map{"message": "tenant updated"})
}
