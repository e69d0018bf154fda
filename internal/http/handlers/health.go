package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/geocoder89/noteflow/internal/config"
	"github.com/gin-gonic/gin"
)

// Check is a named readiness probe, e.g. a Postgres or Redis ping.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

type HealthHandler struct {
	checks []Check
}

// create a new instance of the health handler
func NewHealthHandler(checks ...Check) *HealthHandler {
	return &HealthHandler{checks: checks}
}

func (h *HealthHandler) Healthz(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HealthHandler) Readyz(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 1*time.Second)
	defer cancel()

	results := make(gin.H, len(h.checks))
	ready := true

	for _, c := range h.checks {
		if err := c.Ping(cctx); err != nil {
			results[c.Name] = "down"
			ready = false
			continue
		}
		results[c.Name] = "up"
	}

	if !ready {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "checks": results})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "ready", "checks": results})
}
