package platform

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/jonesrussell/social-swarm/internal/config"
	"github.com/jonesrussell/social-swarm/internal/logger"
	"github.com/jonesrussell/social-swarm/internal/models"
)

const (
	tiktokAPIURL        = "https://business-api.tiktok.com"
	tiktokClientTimeout = 30 * time.Second
)

var tiktokConstraint = Constraint{
	MaxTextLength:   2200,
	MaxHashtags:     10,
	MinHashtags:     3,
	DefaultHashtags: []string{"fyp", "viral", "trending", "marketing", "business"},
}

// TikTokAdapter adapts content for TikTok video captions. Publishing
// requires video content and the content creation API, so the publish path
// is a stub collaborator that synthesizes a post id; credential
// verification and caption adaptation are real.
type TikTokAdapter struct {
	cfg     config.TikTokConfig
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	logger  logger.Logger
	conn    connState
}

// NewTikTokAdapter creates a TikTok adapter.
func NewTikTokAdapter(cfg config.TikTokConfig, log logger.Logger) *TikTokAdapter {
	return &TikTokAdapter{
		cfg:     cfg,
		baseURL: tiktokAPIURL,
		client:  &http.Client{Timeout: tiktokClientTimeout},
		limiter: newHourlyLimiter(cfg.RateLimit),
		logger:  log.With(logger.String("platform", TikTok)),
	}
}

// Name returns the platform identifier.
func (a *TikTokAdapter) Name() string { return TikTok }

// Constraint returns TikTok's caption constraints.
func (a *TikTokAdapter) Constraint() Constraint { return tiktokConstraint }

// Optimize adapts content to TikTok's constraints.
func (a *TikTokAdapter) Optimize(item models.ContentItem) models.ContentItem {
	return Optimize(item, tiktokConstraint)
}

// Initialize verifies the access token against the Business API.
func (a *TikTokAdapter) Initialize(ctx context.Context) error {
	if a.conn.isConnected() {
		return nil
	}
	if a.cfg.AccessToken == "" {
		a.conn.setConnected(false)
		return errors.New("tiktok access token not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/open_api/v1.3/user/info/", http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.cfg.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		a.conn.setConnected(false)
		return fmt.Errorf("verify credentials: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		a.conn.setConnected(false)
		return fmt.Errorf("verify credentials: status %d", resp.StatusCode)
	}

	a.conn.setConnected(true)
	return nil
}

// Shutdown drops the connection handle.
func (a *TikTokAdapter) Shutdown() error {
	a.conn.setConnected(false)
	return nil
}

// Status reports the connection state.
func (a *TikTokAdapter) Status() models.PlatformStatus { return a.conn.status() }

// Publish simulates video publishing and synthesizes a deterministic post
// id from the caption.
func (a *TikTokAdapter) Publish(ctx context.Context, item models.ContentItem, clientID string) models.PublishResult {
	if !a.conn.isConnected() {
		return failure(TikTok, clientID, fmt.Errorf("%w: tiktok adapter", models.ErrNotInitialized))
	}
	if err := a.limiter.Wait(ctx); err != nil {
		return failure(TikTok, clientID, fmt.Errorf("rate limit wait: %w", err))
	}

	caption := buildCaption(item)
	postID := fmt.Sprintf("tiktok_%s_%d", clientID, captionHash(caption))

	a.logger.Debug("TikTok post simulated",
		logger.String("client_id", clientID),
		logger.String("post_id", postID),
	)
	return success(TikTok, clientID, postID, caption)
}

// FetchMetrics returns simulated engagement counters; the analytics API is
// part of the stubbed publish path.
func (a *TikTokAdapter) FetchMetrics(_ context.Context, postID string) models.MetricsResult {
	if !a.conn.isConnected() {
		return metricsFailure(TikTok, postID, fmt.Errorf("%w: tiktok adapter", models.ErrNotInitialized))
	}

	return models.MetricsResult{
		Platform: TikTok,
		PostID:   postID,
		Insights: map[string]int64{
			"views":         15420,
			"likes":         1230,
			"comments":      89,
			"shares":        156,
			"profile_views": 45,
		},
	}
}
