package endpoint

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/streamgroup/observability"
)

// Health returns a handler that runs the registered checks. A down service
// answers 503; degraded still answers 200.
func Health(registry *observability.HealthRegistry) gin.HandlerFunc {
	return func(c *gin.Context) {
		health := registry.Check(c.Request.Context())

		httpStatus := http.StatusOK
		if health.Status == observability.HealthStatusDown {
			httpStatus = http.StatusServiceUnavailable
		}

		c.JSON(httpStatus, gin.H{
			"status":     health.Status,
			"service":    health.Service,
			"version":    health.Version,
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
			"components": health.Components,
		})
	}
}
