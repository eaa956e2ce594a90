package handler

import (
	"errors"
	"net/http"
	"time"

	"insight-service/internal/model"
	"insight-service/pkg/database"
	"insight-service/pkg/jwtutil"
	"insight-service/pkg/logger"
	"insight-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Register creates a new tenant and its owner user in one transaction.
// Registration runs before any tenant context exists, so it uses the
// explicit bypass path to write the owner row.
func Register(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RegisterCounter.Inc()

	// Parse request
	var req struct {
		Email        string `json:"email"`
		Password     string `json:"password"`
		BusinessName string `json:"business_name"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse registration request", zap.Error(err))
		prometheus.RecordError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Email == "" || req.Password == "" || req.BusinessName == "" {
		log.Error("Invalid registration data",
			zap.String("email", req.Email),
			zap.String("business_name", req.BusinessName),
			zap.Bool("password_provided", req.Password != ""))
		prometheus.RecordError("incomplete_registration")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email, password and business_name are required"})
	}

	// Hash password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		prometheus.RecordError("password_hash_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	var tenant model.Tenant
	var user model.User
	err = database.WithBypass(c.Request().Context(), database.GetDB(), func(tx *gorm.DB) error {
		var existing model.Tenant
		if err := tx.Where("name = ?", req.BusinessName).First(&existing).Error; err == nil {
			return errTenantNameTaken
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		tenant = model.Tenant{
			Name:               req.BusinessName,
			SubscriptionStatus: model.SubscriptionTrial,
			Active:             true,
			Settings:           "{}",
		}
		if err := tx.Create(&tenant).Error; err != nil {
			return err
		}

		user = model.User{
			TenantID: tenant.ID,
			Email:    req.Email,
			Password: string(hashedPassword),
			Role:     "owner",
			Active:   true,
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}

		// The owner column is only known after the user row exists.
		tenant.OwnerID = user.ID
		return tx.Model(&tenant).Update("owner_id", user.ID).Error
	})
	if err != nil {
		if errors.Is(err, errTenantNameTaken) {
			log.Error("Tenant name already taken", zap.String("business_name", req.BusinessName))
			prometheus.RecordError("tenant_name_taken")
			return c.JSON(http.StatusConflict, echo.Map{"error": "business name already registered"})
		}
		log.Error("Failed to register tenant", zap.Error(err))
		prometheus.RecordError("registration_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	prometheus.RecordTenantOperation("create")
	log.Info("Tenant registered",
		zap.String("email", user.Email),
		zap.Uint("tenant_id", tenant.ID),
		zap.String("business_name", tenant.Name))
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Registered successfully",
		"tenant": map[string]interface{}{
			"id":   tenant.ID,
			"name": tenant.Name,
		},
		"user": map[string]interface{}{
			"id":    user.ID,
			"email": user.Email,
			"role":  user.Role,
		},
	})
}

var errTenantNameTaken = errors.New("tenant name taken")

// oldestMembership picks the earliest-created membership so a login
// without business_name resolves to the same tenant every time.
func oldestMembership(memberships []model.User) model.User {
	best := memberships[0]
	for _, m := range memberships[1:] {
		if m.ID < best.ID {
			best = m
		}
	}
	return best
}

// Login authenticates a user and issues a JWT carrying the tenant
// context. Like Register, it runs before any tenant session exists.
func Login(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.LoginCounter.Inc()

	// Parse request
	var req struct {
		Email        string `json:"email"`
		Password     string `json:"password"`
		BusinessName string `json:"business_name,omitempty"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse login request", zap.Error(err))
		prometheus.RecordError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var user model.User
	var tenant model.Tenant
	err := database.WithBypass(c.Request().Context(), database.GetDB(), func(tx *gorm.DB) error {
		// Email is unique per tenant; business_name disambiguates a
		// user registered under several tenants.
		query := tx.Where("email = ? AND active = ?", req.Email, true)
		if req.BusinessName != "" {
			query = query.Joins("JOIN tenants ON tenants.id = users.tenant_id").
				Where("tenants.name = ?", req.BusinessName)
		}
		var memberships []model.User
		if err := query.Find(&memberships).Error; err != nil {
			return err
		}
		if len(memberships) == 0 {
			return gorm.ErrRecordNotFound
		}
		user = oldestMembership(memberships)
		return tx.First(&tenant, user.TenantID).Error
	})
	if err != nil {
		log.Error("User not found", zap.String("email", req.Email))
		prometheus.RecordError("user_not_found")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	// Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		log.Error("Invalid password", zap.String("email", req.Email))
		prometheus.RecordError("invalid_password")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	// Generate JWT token with the tenant context baked in
	tenantID := user.TenantID
	token, err := jwtutil.GenerateTokenWithTenant(user.Email, user.ID, &tenantID, tenant.Name, user.Role)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		prometheus.RecordError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}

	log.Info("User logged in",
		zap.String("email", user.Email),
		zap.Uint("tenant_id", user.TenantID),
		zap.String("tenant_name", tenant.Name),
		zap.String("role", user.Role))

	return c.JSON(http.StatusOK, echo.Map{
		"token": token,
		"user": map[string]interface{}{
			"id":    user.ID,
			"email": user.Email,
			"role":  user.Role,
		},
		"tenant": map[string]interface{}{
			"id":   tenant.ID,
			"name": tenant.Name,
		},
	})
}
