package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yigit/aiinfocenter/internal/app/models/dto"
)

// Pinger reports whether a backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthController serves the liveness endpoint
type HealthController struct {
	db Pinger
}

// NewHealthController creates a HealthController. A nil db reports "memory".
func NewHealthController(db Pinger) *HealthController {
	return &HealthController{db: db}
}

// Health godoc
// @Summary Service health
// @Tags health
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Failure 503 {object} dto.HealthResponse
// @Router /health [get]
func (c *HealthController) Health(ctx *gin.Context) {
	if c.db == nil {
		ctx.JSON(http.StatusOK, dto.HealthResponse{Status: "ok", Database: "memory"})
		return
	}

	pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()
	if err := c.db.Ping(pingCtx); err != nil {
		ctx.JSON(http.StatusServiceUnavailable, dto.HealthResponse{Status: "degraded", Database: "down"})
		return
	}
	ctx.JSON(http.StatusOK, dto.HealthResponse{Status: "ok", Database: "up"})
}
