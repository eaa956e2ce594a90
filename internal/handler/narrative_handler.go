package handler

import (
	"net/http"

	"insight-service/internal/middleware"
	"insight-service/internal/narrative"
	"insight-service/pkg/logger"
	"insight-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// NarrativeHandler exposes the narrative/recommendation surface.
type NarrativeHandler struct {
	generator *narrative.Generator
}

// NewNarrativeHandler creates the handler around a generator.
func NewNarrativeHandler(generator *narrative.Generator) *NarrativeHandler {
	return &NarrativeHandler{generator: generator}
}

// Generate answers a free-text question about the tenant's business.
// The response always carries a narrative; a tenant with no data gets
// the fixed explanatory message, never a bare error.
func (h *NarrativeHandler) Generate(c echo.Context) error {
	log := logger.FromContext(c)

	var req struct {
		Question string            `json:"question"`
		Context  map[string]string `json:"context,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse narrative request", zap.Error(err))
		prometheus.RecordError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Question == "" {
		prometheus.RecordError("validation")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "question is required"})
	}

	result, err := h.generator.Generate(c.Request().Context(), middleware.TenantID(c), req.Question)
	if err != nil {
		return respondAppError(c, log, err, "narrative generation failed")
	}

	log.Info("Narrative generated",
		zap.String("intent", string(result.Intent)),
		zap.Int("recommendations", len(result.Recommendations)),
		zap.Strings("unavailable", result.Unavailable))
	return c.JSON(http.StatusOK, result)
}
