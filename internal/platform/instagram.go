package platform

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/jonesrussell/social-swarm/internal/config"
	"github.com/jonesrussell/social-swarm/internal/logger"
	"github.com/jonesrussell/social-swarm/internal/models"
)

const (
	instagramGraphURL      = "https://graph.instagram.com"
	instagramClientTimeout = 30 * time.Second

	synthesizedIDModulus = 10000
)

var instagramConstraint = Constraint{
	MaxTextLength: 300,
	MaxHashtags:   30,
	MinHashtags:   10,
	DefaultHashtags: []string{
		"marketing", "business", "socialmedia", "content", "branding",
		"growth", "digitalmarketing", "contentcreation", "smallbusiness",
		"entrepreneur",
	},
}

// InstagramAdapter adapts content for Instagram captions. The publish path
// is a stub collaborator: real media upload through the Graph API is out of
// scope, so a post id is synthesized from the caption hash. Credential
// verification and content adaptation are real.
type InstagramAdapter struct {
	cfg     config.InstagramConfig
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	logger  logger.Logger
	conn    connState
}

// NewInstagramAdapter creates an Instagram adapter.
func NewInstagramAdapter(cfg config.InstagramConfig, log logger.Logger) *InstagramAdapter {
	return &InstagramAdapter{
		cfg:     cfg,
		baseURL: instagramGraphURL,
		client:  &http.Client{Timeout: instagramClientTimeout},
		limiter: newHourlyLimiter(cfg.RateLimit),
		logger:  log.With(logger.String("platform", Instagram)),
	}
}

// Name returns the platform identifier.
func (a *InstagramAdapter) Name() string { return Instagram }

// Constraint returns Instagram's caption constraints.
func (a *InstagramAdapter) Constraint() Constraint { return instagramConstraint }

// Optimize adapts content to Instagram's constraints: shorter captions,
// more hashtags.
func (a *InstagramAdapter) Optimize(item models.ContentItem) models.ContentItem {
	return Optimize(item, instagramConstraint)
}

// Initialize verifies the access token against the Instagram Graph API.
func (a *InstagramAdapter) Initialize(ctx context.Context) error {
	if a.conn.isConnected() {
		return nil
	}
	if a.cfg.AccessToken == "" {
		a.conn.setConnected(false)
		return errors.New("instagram access token not configured")
	}

	endpoint := fmt.Sprintf("%s/me?access_token=%s", a.baseURL, url.QueryEscape(a.cfg.AccessToken))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

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
func (a *InstagramAdapter) Shutdown() error {
	a.conn.setConnected(false)
	return nil
}

// Status reports the connection state.
func (a *InstagramAdapter) Status() models.PlatformStatus { return a.conn.status() }

// Publish simulates caption publishing and synthesizes a deterministic
// post id from the caption.
func (a *InstagramAdapter) Publish(ctx context.Context, item models.ContentItem, clientID string) models.PublishResult {
	if !a.conn.isConnected() {
		return failure(Instagram, clientID, fmt.Errorf("%w: instagram adapter", models.ErrNotInitialized))
	}
	if err := a.limiter.Wait(ctx); err != nil {
		return failure(Instagram, clientID, fmt.Errorf("rate limit wait: %w", err))
	}

	caption := buildCaption(item)
	postID := fmt.Sprintf("ig_%s_%d", clientID, captionHash(caption))

	a.logger.Debug("Instagram post simulated",
		logger.String("client_id", clientID),
		logger.String("post_id", postID),
	)
	return success(Instagram, clientID, postID, caption)
}

// FetchMetrics returns simulated engagement counters; the insights API is
// part of the stubbed publish path.
func (a *InstagramAdapter) FetchMetrics(_ context.Context, postID string) models.MetricsResult {
	if !a.conn.isConnected() {
		return metricsFailure(Instagram, postID, fmt.Errorf("%w: instagram adapter", models.ErrNotInitialized))
	}

	return models.MetricsResult{
		Platform: Instagram,
		PostID:   postID,
		Insights: map[string]int64{
			"impressions": 1250,
			"reach":       980,
			"likes":       45,
			"comments":    8,
			"saves":       12,
		},
	}
}

// captionHash maps a caption to a small stable number for synthesized
// post ids.
func captionHash(caption string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(caption))
	return h.Sum32() % synthesizedIDModulus
}
