// Package platform provides per-platform adapters that translate generic
// campaign content into platform-specific constraints and API calls.
package platform

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/jonesrussell/social-swarm/internal/models"
)

// Platform identifiers used as registry keys and in results.
const (
	Facebook  = "facebook"
	Instagram = "instagram"
	TikTok    = "tiktok"
	Twitter   = "twitter"
)

// Adapter is the per-platform capability contract. Optimize is pure;
// Publish performs exactly one external call and reports all failures as
// a failed PublishResult rather than an error, so the orchestrator can
// always collect a full per-platform result set.
type Adapter interface {
	// Name returns the platform identifier.
	Name() string

	// Constraint returns the platform's fixed content constraints.
	Constraint() Constraint

	// Optimize returns a new content item satisfying the platform's
	// constraints. The input is never mutated.
	Optimize(item models.ContentItem) models.ContentItem

	// Publish posts the content item for the given client.
	Publish(ctx context.Context, item models.ContentItem, clientID string) models.PublishResult

	// FetchMetrics returns engagement counters for a published post.
	FetchMetrics(ctx context.Context, postID string) models.MetricsResult

	// Initialize establishes and verifies the platform connection.
	// Safe to call more than once.
	Initialize(ctx context.Context) error

	// Shutdown releases the connection. Never fails, even if Initialize
	// was never called.
	Shutdown() error

	// Status reports the current connection state.
	Status() models.PlatformStatus
}

// defaultHourlyRateLimit applies when an adapter is constructed without a
// configured budget.
const defaultHourlyRateLimit = 600

// newHourlyLimiter builds a limiter from a requests-per-hour budget.
func newHourlyLimiter(perHour int) *rate.Limiter {
	if perHour <= 0 {
		perHour = defaultHourlyRateLimit
	}
	return rate.NewLimiter(rate.Every(time.Hour/time.Duration(perHour)), perHour)
}

// connState tracks an adapter's connection handle lifecycle. Adapters own
// no other cross-call state.
type connState struct {
	mu        sync.Mutex
	connected bool
	lastCheck time.Time
}

func (s *connState) setConnected(ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = ok
	s.lastCheck = time.Now()
}

func (s *connState) isConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *connState) status() models.PlatformStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.PlatformStatus{Connected: s.connected, LastCheck: s.lastCheck}
}

// buildCaption joins text and hashtags into the posted message body.
func buildCaption(item models.ContentItem) string {
	if len(item.Hashtags) == 0 {
		return item.Text
	}
	tags := make([]string, 0, len(item.Hashtags))
	for _, tag := range item.Hashtags {
		tags = append(tags, "#"+strings.TrimPrefix(tag, "#"))
	}
	return item.Text + "\n\n" + strings.Join(tags, " ")
}

// failure builds the failed PublishResult variant for a platform.
func failure(platform, clientID string, err error) models.PublishResult {
	return models.PublishResult{
		Platform: platform,
		ClientID: clientID,
		Status:   models.PublishStatusFailed,
		Error:    err.Error(),
	}
}

// success builds the successful PublishResult variant for a platform.
func success(platform, clientID, postID, text string) models.PublishResult {
	return models.PublishResult{
		Platform: platform,
		ClientID: clientID,
		Status:   models.PublishStatusSuccess,
		PostID:   postID,
		Text:     text,
	}
}

// metricsFailure builds a MetricsResult tagged with the error.
func metricsFailure(platform, postID string, err error) models.MetricsResult {
	return models.MetricsResult{Platform: platform, PostID: postID, Error: err.Error()}
}
