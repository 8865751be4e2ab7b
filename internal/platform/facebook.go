package platform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/jonesrussell/social-swarm/internal/config"
	"github.com/jonesrussell/social-swarm/internal/logger"
	"github.com/jonesrussell/social-swarm/internal/models"
)

const (
	facebookGraphURL      = "https://graph.facebook.com/v18.0"
	facebookClientTimeout = 30 * time.Second
)

var facebookConstraint = Constraint{
	MaxTextLength: 500,
	MaxHashtags:   5,
}

// FacebookAdapter publishes page posts through the Facebook Graph API.
type FacebookAdapter struct {
	cfg     config.FacebookConfig
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	logger  logger.Logger
	conn    connState
}

// NewFacebookAdapter creates a Facebook adapter. The connection is not
// established until Initialize.
func NewFacebookAdapter(cfg config.FacebookConfig, log logger.Logger) *FacebookAdapter {
	return &FacebookAdapter{
		cfg:     cfg,
		baseURL: facebookGraphURL,
		client:  &http.Client{Timeout: facebookClientTimeout},
		limiter: newHourlyLimiter(cfg.RateLimit),
		logger:  log.With(logger.String("platform", Facebook)),
	}
}

// Name returns the platform identifier.
func (a *FacebookAdapter) Name() string { return Facebook }

// Constraint returns Facebook's content constraints.
func (a *FacebookAdapter) Constraint() Constraint { return facebookConstraint }

// Optimize adapts content to Facebook's constraints.
func (a *FacebookAdapter) Optimize(item models.ContentItem) models.ContentItem {
	return Optimize(item, facebookConstraint)
}

// Initialize verifies the access token against the Graph API.
func (a *FacebookAdapter) Initialize(ctx context.Context) error {
	if a.conn.isConnected() {
		return nil
	}
	if a.cfg.AccessToken == "" {
		a.conn.setConnected(false)
		return errors.New("facebook access token not configured")
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
func (a *FacebookAdapter) Shutdown() error {
	a.conn.setConnected(false)
	return nil
}

// Status reports the connection state.
func (a *FacebookAdapter) Status() models.PlatformStatus { return a.conn.status() }

// Publish posts the content to the configured page feed.
func (a *FacebookAdapter) Publish(ctx context.Context, item models.ContentItem, clientID string) models.PublishResult {
	if !a.conn.isConnected() {
		return failure(Facebook, clientID, fmt.Errorf("%w: facebook adapter", models.ErrNotInitialized))
	}
	if err := a.limiter.Wait(ctx); err != nil {
		return failure(Facebook, clientID, fmt.Errorf("rate limit wait: %w", err))
	}

	caption := buildCaption(item)

	form := url.Values{}
	form.Set("message", caption)
	form.Set("access_token", a.cfg.AccessToken)
	if item.MediaURL != "" {
		form.Set("link", item.MediaURL)
	}

	target := a.cfg.PageID
	if target == "" {
		target = "me"
	}
	endpoint := fmt.Sprintf("%s/%s/feed", a.baseURL, target)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return failure(Facebook, clientID, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.client.Do(req)
	if err != nil {
		a.logger.Error("Facebook publish failed",
			logger.String("client_id", clientID),
			logger.Error(err),
		)
		return failure(Facebook, clientID, fmt.Errorf("post to feed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return failure(Facebook, clientID, fmt.Errorf("post to feed: status %d", resp.StatusCode))
	}

	var decoded struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return failure(Facebook, clientID, fmt.Errorf("decode response: %w", err))
	}
	if decoded.ID == "" {
		return failure(Facebook, clientID, errors.New("post creation returned no id"))
	}

	a.logger.Debug("Facebook post published",
		logger.String("client_id", clientID),
		logger.String("post_id", decoded.ID),
	)
	return success(Facebook, clientID, decoded.ID, caption)
}

// FetchMetrics reads post insights from the Graph API.
func (a *FacebookAdapter) FetchMetrics(ctx context.Context, postID string) models.MetricsResult {
	if !a.conn.isConnected() {
		return metricsFailure(Facebook, postID, fmt.Errorf("%w: facebook adapter", models.ErrNotInitialized))
	}

	endpoint := fmt.Sprintf(
		"%s/%s/insights?metric=post_impressions,post_engaged_users,post_clicks&access_token=%s",
		a.baseURL, url.PathEscape(postID), url.QueryEscape(a.cfg.AccessToken),
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return metricsFailure(Facebook, postID, fmt.Errorf("create request: %w", err))
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return metricsFailure(Facebook, postID, fmt.Errorf("fetch insights: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return metricsFailure(Facebook, postID, fmt.Errorf("fetch insights: status %d", resp.StatusCode))
	}

	var decoded struct {
		Data []struct {
			Name   string `json:"name"`
			Values []struct {
				Value int64 `json:"value"`
			} `json:"values"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return metricsFailure(Facebook, postID, fmt.Errorf("decode insights: %w", err))
	}

	insights := make(map[string]int64, len(decoded.Data))
	for _, metric := range decoded.Data {
		if len(metric.Values) > 0 {
			insights[metric.Name] = metric.Values[0].Value
		}
	}

	return models.MetricsResult{Platform: Facebook, PostID: postID, Insights: insights}
}
