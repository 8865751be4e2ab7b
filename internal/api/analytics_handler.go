package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/social-swarm/internal/logger"
	"github.com/jonesrussell/social-swarm/internal/models"
)

const defaultAnalyticsDays = 30

// getClientAnalytics handles GET /api/v1/analytics/:client_id
func (r *Router) getClientAnalytics(c *gin.Context) {
	clientID := c.Param("client_id")
	days := queryInt(c, "days", defaultAnalyticsDays)

	since := time.Now().AddDate(0, 0, -days)
	campaigns, err := r.repo.ListCampaignsByClient(c.Request.Context(), clientID, since)
	if err != nil {
		r.logger.Error("Failed to list client campaigns",
			logger.String("client_id", clientID),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve client analytics"})
		return
	}

	totalFailures := 0
	completed := 0
	summaries := make([]gin.H, 0, len(campaigns))
	for _, campaign := range campaigns {
		failures := campaign.FailureCount()
		totalFailures += failures
		if campaign.Status == models.CampaignCompleted {
			completed++
		}
		summaries = append(summaries, gin.H{
			"campaign_id": campaign.CampaignID,
			"objective":   campaign.Objective,
			"platforms":   campaign.Platforms,
			"status":      campaign.Status,
			"failures":    failures,
			"created_at":  campaign.CreatedAt,
		})
	}

	response := gin.H{
		"client_id":       clientID,
		"period_days":     days,
		"total_campaigns": len(campaigns),
		"completed":       completed,
		"total_failures":  totalFailures,
		"campaigns":       summaries,
	}

	// Memory insights and platform counters are best-effort enrichment
	if insights, insightsErr := r.memory.Insights(c.Request.Context(), clientID, days); insightsErr == nil {
		response["insights"] = insights
	} else {
		r.logger.Warn("Failed to load client insights",
			logger.String("client_id", clientID),
			logger.Error(insightsErr),
		)
	}
	if stats, statsErr := r.tracker.GetStats(c.Request.Context()); statsErr == nil {
		response["platform_totals"] = stats.Platforms
	} else {
		r.logger.Warn("Failed to load platform counters", logger.Error(statsErr))
	}

	c.JSON(http.StatusOK, response)
}

// listClients handles GET /api/v1/clients
func (r *Router) listClients(c *gin.Context) {
	clients, err := r.repo.ListClients(c.Request.Context())
	if err != nil {
		r.logger.Error("Failed to list clients", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve clients"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"clients": clients,
		"count":   len(clients),
	})
}

// getPlatformStatus handles GET /api/v1/platforms/status
func (r *Router) getPlatformStatus(c *gin.Context) {
	statuses := r.registry.Status()

	connected := 0
	for _, status := range statuses {
		if status.Connected {
			connected++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"platforms": statuses,
		"connected": connected,
		"total":     len(statuses),
	})
}
