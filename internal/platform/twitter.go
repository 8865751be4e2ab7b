package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/jonesrussell/social-swarm/internal/config"
	"github.com/jonesrussell/social-swarm/internal/logger"
	"github.com/jonesrussell/social-swarm/internal/models"
)

const (
	twitterAPIURL        = "https://api.twitter.com/2"
	twitterClientTimeout = 30 * time.Second
)

var twitterConstraint = Constraint{
	MaxTextLength: 280,
	MaxHashtags:   5,
}

// TwitterAdapter publishes tweets through the X API v2 with bearer auth.
type TwitterAdapter struct {
	cfg     config.TwitterConfig
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	logger  logger.Logger
	conn    connState
}

// NewTwitterAdapter creates a Twitter/X adapter.
func NewTwitterAdapter(cfg config.TwitterConfig, log logger.Logger) *TwitterAdapter {
	return &TwitterAdapter{
		cfg:     cfg,
		baseURL: twitterAPIURL,
		client:  &http.Client{Timeout: twitterClientTimeout},
		limiter: newHourlyLimiter(cfg.RateLimit),
		logger:  log.With(logger.String("platform", Twitter)),
	}
}

// Name returns the platform identifier.
func (a *TwitterAdapter) Name() string { return Twitter }

// Constraint returns the tweet constraints.
func (a *TwitterAdapter) Constraint() Constraint { return twitterConstraint }

// Optimize adapts content to the 280-character tweet limit.
func (a *TwitterAdapter) Optimize(item models.ContentItem) models.ContentItem {
	return Optimize(item, twitterConstraint)
}

// Initialize verifies the bearer token by fetching the authenticated user.
func (a *TwitterAdapter) Initialize(ctx context.Context) error {
	if a.conn.isConnected() {
		return nil
	}
	if a.cfg.BearerToken == "" {
		a.conn.setConnected(false)
		return errors.New("twitter bearer token not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/users/me", http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.cfg.BearerToken)

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
func (a *TwitterAdapter) Shutdown() error {
	a.conn.setConnected(false)
	return nil
}

// Status reports the connection state.
func (a *TwitterAdapter) Status() models.PlatformStatus { return a.conn.status() }

// Publish creates a tweet from the content item.
func (a *TwitterAdapter) Publish(ctx context.Context, item models.ContentItem, clientID string) models.PublishResult {
	if !a.conn.isConnected() {
		return failure(Twitter, clientID, fmt.Errorf("%w: twitter adapter", models.ErrNotInitialized))
	}
	if err := a.limiter.Wait(ctx); err != nil {
		return failure(Twitter, clientID, fmt.Errorf("rate limit wait: %w", err))
	}

	// The caption must itself fit the tweet limit once hashtags are
	// appended, so re-optimize the combined text.
	caption := Optimize(models.ContentItem{Text: buildCaption(item)}, twitterConstraint).Text

	payload, err := json.Marshal(map[string]string{"text": caption})
	if err != nil {
		return failure(Twitter, clientID, fmt.Errorf("marshal payload: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/tweets", bytes.NewReader(payload))
	if err != nil {
		return failure(Twitter, clientID, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+a.cfg.BearerToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		a.logger.Error("Tweet creation failed",
			logger.String("client_id", clientID),
			logger.Error(err),
		)
		return failure(Twitter, clientID, fmt.Errorf("create tweet: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return failure(Twitter, clientID, fmt.Errorf("create tweet: status %d", resp.StatusCode))
	}

	var decoded struct {
		Data struct {
			ID   string `json:"id"`
			Text string `json:"text"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return failure(Twitter, clientID, fmt.Errorf("decode response: %w", err))
	}
	if decoded.Data.ID == "" {
		return failure(Twitter, clientID, errors.New("tweet creation returned no id"))
	}

	a.logger.Debug("Tweet published",
		logger.String("client_id", clientID),
		logger.String("post_id", decoded.Data.ID),
	)
	return success(Twitter, clientID, decoded.Data.ID, caption)
}

// FetchMetrics reads a tweet's public metrics.
func (a *TwitterAdapter) FetchMetrics(ctx context.Context, postID string) models.MetricsResult {
	if !a.conn.isConnected() {
		return metricsFailure(Twitter, postID, fmt.Errorf("%w: twitter adapter", models.ErrNotInitialized))
	}

	endpoint := fmt.Sprintf("%s/tweets/%s?tweet.fields=public_metrics", a.baseURL, url.PathEscape(postID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return metricsFailure(Twitter, postID, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+a.cfg.BearerToken)

	resp, err := a.client.Do(req)
	if err != nil {
		return metricsFailure(Twitter, postID, fmt.Errorf("fetch tweet: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return metricsFailure(Twitter, postID, fmt.Errorf("fetch tweet: status %d", resp.StatusCode))
	}

	var decoded struct {
		Data struct {
			PublicMetrics map[string]int64 `json:"public_metrics"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return metricsFailure(Twitter, postID, fmt.Errorf("decode tweet: %w", err))
	}
	if decoded.Data.PublicMetrics == nil {
		return metricsFailure(Twitter, postID, errors.New("tweet response missing public metrics"))
	}

	return models.MetricsResult{Platform: Twitter, PostID: postID, Insights: decoded.Data.PublicMetrics}
}
