package handlers

import (
	"net/http"

	"accident-dashboard-api/services"

	"github.com/gin-gonic/gin"
)

// Health reports UP even without a dataset; the accident routes are the only
// ones that depend on it.
func Health(dataset *services.DatasetService, cache *services.CacheService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "UP",
			"message": "Accident Dashboard API is running",
			"dataset": dataset.Status(),
			"cache":   cache.Available(),
		})
	}
}
