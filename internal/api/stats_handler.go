package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/social-swarm/internal/logger"
)

// getStatsOverview handles GET /api/v1/stats/overview
func (r *Router) getStatsOverview(c *gin.Context) {
	stats, err := r.tracker.GetStats(c.Request.Context())
	if err != nil {
		r.logger.Error("Failed to get stats",
			logger.Error(err),
			logger.String("path", c.Request.URL.Path),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve statistics"})
		return
	}

	c.JSON(http.StatusOK, stats)
}
