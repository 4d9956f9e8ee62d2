package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/prodex/models"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// PoolReporter reports browser pool utilisation.
type PoolReporter interface {
	Stats() models.PoolStats
}

// Health returns a handler for GET /api/v1/health.
//
// Status degrades when more than 80% of pages are active.
func Health(pr PoolReporter, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats := pr.Stats()

		status := "healthy"
		if stats.MaxPages > 0 && stats.ActivePages > int(float64(stats.MaxPages)*0.8) {
			status = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:    status,
			Uptime:    time.Since(startTime).Round(time.Second).String(),
			PoolStats: stats,
			Version:   Version,
		})
	}
}
