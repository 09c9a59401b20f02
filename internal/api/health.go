package api

import (
	"context"  // Check deadlines
	"net/http" // HTTP status codes
	"sort"     // Stable check order
	"time"     // Check timeout

	"ledger_service/internal/middleware" // Request-scoped logger

	"github.com/gin-gonic/gin" // Gin web framework
)

const healthTimeout = 2 * time.Second

// Pinger checks one dependency
type Pinger func(ctx context.Context) error

// PingHandler reports that the process is up
func PingHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// HealthHandler runs every dependency check and answers 503 if any fails
func HealthHandler(checks map[string]Pinger) gin.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()

		status := make(map[string]string, len(names)) // Per-dependency result
		healthy := true
		for _, name := range names {
			if err := checks[name](ctx); err != nil {
				middleware.Logger(c).WithField("check", name).WithError(err).Error("Health check failed")
				status[name] = "down"
				healthy = false
				continue
			}
			status[name] = "ok"
		}

		if !healthy {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "checks": status})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "checks": status})
	}
}
