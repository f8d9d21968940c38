package handlers

import (
	"context"
	"net/http"

	"twitter-oauth/internal/build"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// HealthChecker перевіряє залежність сервісу (наприклад Redis)
type HealthChecker func(ctx context.Context) error

// HealthHandler містить handlers для health check
type HealthHandler struct {
	backend string
	check   HealthChecker
}

// NewHealthHandler створює новий HealthHandler; check може бути nil
func NewHealthHandler(backend string, check HealthChecker) *HealthHandler {
	return &HealthHandler{
		backend: backend,
		check:   check,
	}
}

// Health повертає статус здоров'я сервісу
// @Summary Health Check
// @Description Повертає статус здоров'я сервісу та сховища сесій
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	status := http.StatusOK
	storeStatus := "healthy"
	if h.check != nil {
		if err := h.check(c.Request.Context()); err != nil {
			logrus.WithError(err).Warn("Credential store health check failed")
			status = http.StatusServiceUnavailable
			storeStatus = "unhealthy"
		}
	}

	overall := "healthy"
	if status != http.StatusOK {
		overall = "unhealthy"
	}

	c.JSON(status, gin.H{
		"status":           overall,
		"service":          build.Service,
		"version":          build.Version,
		"credential_store": h.backend,
		"store_status":     storeStatus,
	})
	logrus.Debug("Health check performed")
}
