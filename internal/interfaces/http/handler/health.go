package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tiller/backend/internal/infrastructure/logger"
	"github.com/tiller/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// HealthCheck checks one dependency
type HealthCheck func(ctx context.Context) error

// HealthHandler reports liveness of the database and optional dependencies
type HealthHandler struct {
	BaseHandler
	version string
	driver  string
	checks  map[string]HealthCheck
	timeout time.Duration
}

// NewHealthHandler creates a HealthHandler. checks must contain "database".
func NewHealthHandler(version, driver string, checks map[string]HealthCheck) *HealthHandler {
	return &HealthHandler{
		version: version,
		driver:  driver,
		checks:  checks,
		timeout: 3 * time.Second,
	}
}

// Health godoc
// @Summary      Health check
// @Description  200 when every dependency answers, 503 otherwise
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[HealthData]
// @Failure      503 {object} APIResponse[HealthData]
// @Router       /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	data := HealthData{
		Status:   "ok",
		Checks:   make(map[string]string, len(names)),
		Version:  h.version,
		Database: h.driver,
	}
	status := http.StatusOK
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			logger.GetGinLogger(c).Warn("Health check failed", zap.String("check", name), zap.Error(err))
			data.Checks[name] = "error"
			data.Status = "unhealthy"
			status = http.StatusServiceUnavailable
			continue
		}
		data.Checks[name] = "ok"
	}
	c.JSON(status, dto.NewSuccessResponse(data))
}
