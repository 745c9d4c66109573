package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthCheck returns the health status of the API. A missing provider key does
// not make the service unhealthy; generation requests report it instead.
func HealthCheck(providerConfigured bool) gin.HandlerFunc {
	providerStatus := "disabled"
	if providerConfigured {
		providerStatus = "enabled"
	}

	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"provider": gin.H{
				"status": providerStatus,
			},
		})
	}
}
