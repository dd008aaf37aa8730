package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/apkscout/dedup"
	"github.com/use-agent/apkscout/models"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// SessionStater reports the shared site session's counters.
type SessionStater interface {
	Stats() models.SessionStats
}

// Health returns a handler for GET /api/v1/health.
//
// Status degrades once the site session is blocked by repeated challenge
// failures.
func Health(session SessionStater, registry *dedup.Registry, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats := session.Stats()

		status := "healthy"
		if stats.Blocked {
			status = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:       status,
			Uptime:       time.Since(startTime).Round(time.Second).String(),
			SessionStats: stats,
			Registry:     registry.Len(),
			Version:      Version,
		})
	}
}
