// Package api exposes the campaign orchestration HTTP surface.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/jonesrussell/social-swarm/internal/config"
	"github.com/jonesrussell/social-swarm/internal/database"
	"github.com/jonesrussell/social-swarm/internal/logger"
	"github.com/jonesrussell/social-swarm/internal/memory"
	"github.com/jonesrussell/social-swarm/internal/metrics"
	"github.com/jonesrussell/social-swarm/internal/orchestrator"
	"github.com/jonesrussell/social-swarm/internal/platform"
	redisclient "github.com/jonesrussell/social-swarm/internal/redis"
)

// Health and timeout constants.
const (
	healthStatusHealthy  = "healthy"
	healthStatusDegraded = "degraded"
	healthCheckTimeout   = 2 * time.Second
	serviceVersion       = "1.0.0"
)

// Router holds the API dependencies
type Router struct {
	orch        *orchestrator.Orchestrator
	repo        *database.Repository
	memory      *memory.Store
	tracker     *metrics.Tracker
	registry    *platform.Registry
	redisClient *redis.Client
	cfg         *config.Config
	logger      logger.Logger
}

// NewRouter creates a new API router
func NewRouter(
	orch *orchestrator.Orchestrator,
	repo *database.Repository,
	mem *memory.Store,
	tracker *metrics.Tracker,
	registry *platform.Registry,
	redisClient *redis.Client,
	cfg *config.Config,
	log logger.Logger,
) *Router {
	return &Router{
		orch:        orch,
		repo:        repo,
		memory:      mem,
		tracker:     tracker,
		registry:    registry,
		redisClient: redisClient,
		cfg:         cfg,
		logger:      log,
	}
}

// SetupRoutes builds the gin engine with middleware and all service routes.
func (r *Router) SetupRoutes() *gin.Engine {
	if !r.cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(requestLogger(r.logger))
	router.Use(corsMiddleware())

	// Health and metrics (public, no versioning)
	router.GET("/health", r.healthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.setupServiceRoutes(router)

	return router
}

// setupServiceRoutes configures the versioned API routes.
func (r *Router) setupServiceRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")

	// Campaigns
	campaigns := v1.Group("/campaigns")
	campaigns.POST("", r.createCampaign)
	campaigns.GET("/recent", r.getRecentCampaigns) // More specific route before :id
	campaigns.GET("/:id", r.getCampaign)

	// Clients and analytics
	v1.GET("/clients", r.listClients)
	v1.GET("/analytics/:client_id", r.getClientAnalytics)

	// Platforms
	v1.GET("/platforms/status", r.getPlatformStatus)

	// Stats
	v1.GET("/stats/overview", r.getStatsOverview)
}

// healthCheck returns the service health status
func (r *Router) healthCheck(c *gin.Context) {
	health := gin.H{
		"status":  healthStatusHealthy,
		"service": "social-swarm",
		"version": serviceVersion,
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	dbConnected := true
	if err := r.repo.Ping(ctx); err != nil {
		dbConnected = false
		health["status"] = healthStatusDegraded
	}
	health["database"] = gin.H{
		"connected": dbConnected,
	}

	redisHealth := r.checkRedisHealth()
	health["redis"] = redisHealth
	if connected, ok := redisHealth["connected"].(bool); ok && !connected {
		if health["status"] == healthStatusHealthy {
			health["status"] = healthStatusDegraded
		}
	}

	c.JSON(http.StatusOK, health)
}

// checkRedisHealth checks Redis connection and returns health info
func (r *Router) checkRedisHealth() gin.H {
	redisHealth := gin.H{"connected": true}
	if ok, err := redisclient.CheckConnection(r.redisClient); !ok {
		redisHealth["connected"] = false
		redisHealth["error"] = err.Error()
	}

	return redisHealth
}
