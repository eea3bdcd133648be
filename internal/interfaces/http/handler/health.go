package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/erp/stockcount/internal/infrastructure/logger"
	"github.com/erp/stockcount/internal/infrastructure/persistence"
	"github.com/erp/stockcount/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Pinger reports whether a dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// poolReporter is implemented by *persistence.Database
type poolReporter interface {
	Stats() (persistence.ConnectionStats, error)
}

// HealthHandler serves the liveness and readiness probe
type HealthHandler struct {
	BaseHandler
	db      Pinger
	version string
	timeout time.Duration
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(db Pinger, version string) *HealthHandler {
	return &HealthHandler{db: db, version: version, timeout: 2 * time.Second}
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status   string `json:"status" example:"healthy"`
	Database string `json:"database" example:"up"`
	Version  string `json:"version" example:"1.0.0"`
	// Pool is reported when the database exposes connection pool statistics
	Pool *persistence.ConnectionStats `json:"pool,omitempty"`
}

// Health godoc
// @Summary      Health check
// @Description  Reports service health including database reachability
// @Tags         system
// @Produce      json
// @Success      200 {object} dto.Response{data=HealthResponse}
// @Failure      503 {object} dto.Response{data=HealthResponse}
// @Router       /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	resp := HealthResponse{Status: "healthy", Database: "up", Version: h.version}
	if err := h.db.Ping(ctx); err != nil {
		logger.L(ctx).Warn("Health check failed", zap.Error(err))
		resp.Status = "unhealthy"
		resp.Database = "down"
		c.JSON(http.StatusServiceUnavailable, dto.Response{Success: false, Data: resp})
		return
	}

	if pr, ok := h.db.(poolReporter); ok {
		if stats, err := pr.Stats(); err == nil {
			resp.Pool = &stats
		}
	}
	h.Success(c, resp)
}
