package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jonesrussell/social-swarm/internal/logger"
	"github.com/jonesrussell/social-swarm/internal/models"
)

// createCampaign handles POST /api/v1/campaigns. The campaign runs
// asynchronously; the response carries the id to poll for status.
func (r *Router) createCampaign(c *gin.Context) {
	var req models.CampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Reject unknown platforms before accepting the campaign
	for _, name := range req.Platforms {
		if _, err := r.registry.Get(name); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown platform: " + name})
			return
		}
	}

	if req.CampaignID == "" {
		req.CampaignID = uuid.NewString()
	}

	// Persist a started record first so status polls resolve immediately;
	// the orchestrator overwrites it when the campaign finishes.
	now := time.Now()
	pending := &models.CampaignResult{
		CampaignID: req.CampaignID,
		ClientID:   req.ClientID,
		Objective:  req.Objective,
		Brief:      req.Brief,
		Platforms:  req.Platforms,
		Results:    map[string]models.PublishResult{},
		Status:     models.CampaignStarted,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := r.repo.SaveCampaign(c.Request.Context(), pending); err != nil {
		r.logger.Error("Failed to persist pending campaign",
			logger.String("campaign_id", req.CampaignID),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to accept campaign"})
		return
	}

	go r.runCampaign(req)

	c.JSON(http.StatusAccepted, gin.H{
		"campaign_id": req.CampaignID,
		"client_id":   req.ClientID,
		"status":      models.CampaignStarted,
		"platforms":   req.Platforms,
	})
}

// runCampaign executes a campaign detached from the request context.
func (r *Router) runCampaign(req models.CampaignRequest) {
	if _, err := r.orch.Execute(context.Background(), req); err != nil {
		r.logger.Error("Campaign execution failed",
			logger.String("campaign_id", req.CampaignID),
			logger.String("client_id", req.ClientID),
			logger.Error(err),
		)
	}
}

// getCampaign handles GET /api/v1/campaigns/:id
func (r *Router) getCampaign(c *gin.Context) {
	campaignID := c.Param("id")

	result, err := r.repo.GetCampaign(c.Request.Context(), campaignID)
	if err != nil {
		handleRepositoryError(c, err, "campaign", "get")
		return
	}

	c.JSON(http.StatusOK, result)
}

// getRecentCampaigns handles GET /api/v1/campaigns/recent
func (r *Router) getRecentCampaigns(c *gin.Context) {
	limit := queryInt(c, "limit", 50)

	campaigns, err := r.tracker.GetRecentCampaigns(c.Request.Context(), limit)
	if err != nil {
		r.logger.Error("Failed to get recent campaigns",
			logger.Error(err),
			logger.Int("limit", limit),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve recent campaigns"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"campaigns": campaigns,
		"count":     len(campaigns),
	})
}
