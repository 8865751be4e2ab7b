// Package metrics tracks publish outcomes in Redis for the analytics API
// and mirrors them into Prometheus counters for scraping.
package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonesrussell/social-swarm/internal/logger"
	"github.com/jonesrussell/social-swarm/internal/models"
)

const HoursPerDay = 24

// Tracker records publish outcomes using Redis. Counters carry a TTL so
// stale platforms age out on their own.
type Tracker struct {
	client    redis.UniversalClient
	keys      *RedisKeys
	logger    logger.Logger
	platforms []string // For GetStats aggregation
	prom      *promMetrics
}

// NewTracker creates a new metrics tracker over the given platform set.
func NewTracker(client redis.UniversalClient, platforms []string, log logger.Logger) *Tracker {
	return &Tracker{
		client:    client,
		keys:      NewRedisKeys(KeyPrefixMetrics),
		logger:    log,
		platforms: platforms,
		prom:      newPromMetrics(),
	}
}

// RecordPublish increments the published or failed counter for a platform.
// Tracking failures are logged, never surfaced: metrics must not affect
// campaign outcomes.
func (t *Tracker) RecordPublish(ctx context.Context, platform string, success bool) {
	t.prom.observePublish(platform, success)

	key := t.keys.Published(platform)
	if !success {
		key = t.keys.Failed(platform)
	}
	ttl := MetricsTTLDays * HoursPerDay * time.Hour

	pipe := t.client.Pipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		t.logger.Warn("Failed to record publish counter",
			logger.String("platform", platform),
			logger.String("redis_key", key),
			logger.Error(err),
		)
	}
}

// RecordCampaign appends the campaign to the recent list and stamps the
// last campaign time.
func (t *Tracker) RecordCampaign(ctx context.Context, result *models.CampaignResult) {
	t.prom.observeCampaign(result)

	entry := RecentCampaign{
		CampaignID:  result.CampaignID,
		ClientID:    result.ClientID,
		Status:      string(result.Status),
		Platforms:   result.Platforms,
		Failures:    result.FailureCount(),
		CompletedAt: result.UpdatedAt,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		t.logger.Warn("Failed to marshal recent campaign",
			logger.String("campaign_id", result.CampaignID),
			logger.Error(err),
		)
		return
	}

	ttl := RecentCampaignsTTLDays * HoursPerDay * time.Hour

	pipe := t.client.Pipeline()
	pipe.LPush(ctx, KeyRecentCampaigns, data)
	pipe.LTrim(ctx, KeyRecentCampaigns, 0, MaxRecentCampaigns-1)
	pipe.Expire(ctx, KeyRecentCampaigns, ttl)
	pipe.Set(ctx, KeyLastCampaign, time.Now().Format(time.RFC3339), 0)

	if _, err := pipe.Exec(ctx); err != nil {
		t.logger.Warn("Failed to record recent campaign",
			logger.String("campaign_id", result.CampaignID),
			logger.Error(err),
		)
	}
}

// GetStats returns aggregated publish counters using a Redis pipeline for
// atomic reads.
func (t *Tracker) GetStats(ctx context.Context) (*Stats, error) {
	pipe := t.client.Pipeline()

	publishedCmds := make(map[string]*redis.StringCmd)
	failedCmds := make(map[string]*redis.StringCmd)
	for _, platform := range t.platforms {
		publishedCmds[platform] = pipe.Get(ctx, t.keys.Published(platform))
		failedCmds[platform] = pipe.Get(ctx, t.keys.Failed(platform))
	}
	lastCampaignCmd := pipe.Get(ctx, KeyLastCampaign)

	_, execErr := pipe.Exec(ctx)
	if execErr != nil && !errors.Is(execErr, redis.Nil) {
		return nil, fmt.Errorf("execute pipeline: %w", execErr)
	}

	stats := &Stats{
		Platforms: make([]PlatformStats, 0, len(t.platforms)),
	}
	for _, platform := range t.platforms {
		ps := PlatformStats{Name: platform}

		// Missing keys count as zero
		if published, err := publishedCmds[platform].Int64(); err == nil {
			ps.Published = published
			stats.TotalPublished += published
		}
		if failed, err := failedCmds[platform].Int64(); err == nil {
			ps.Failed = failed
			stats.TotalFailed += failed
		}

		stats.Platforms = append(stats.Platforms, ps)
	}

	if lastStr, err := lastCampaignCmd.Result(); err == nil && lastStr != "" {
		if last, parseErr := time.Parse(time.RFC3339, lastStr); parseErr == nil {
			stats.LastCampaign = last
		}
	}

	return stats, nil
}

// GetRecentCampaigns returns the most recent campaigns, newest first.
func (t *Tracker) GetRecentCampaigns(ctx context.Context, limit int) ([]RecentCampaign, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > MaxRecentCampaigns {
		limit = MaxRecentCampaigns
	}

	results, err := t.client.LRange(ctx, KeyRecentCampaigns, 0, int64(limit-1)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []RecentCampaign{}, nil
		}
		return nil, fmt.Errorf("get recent campaigns: %w", err)
	}

	campaigns := make([]RecentCampaign, 0, len(results))
	for _, result := range results {
		var campaign RecentCampaign
		if unmarshalErr := json.Unmarshal([]byte(result), &campaign); unmarshalErr != nil {
			t.logger.Warn("Failed to unmarshal recent campaign",
				logger.Error(unmarshalErr),
			)
			continue
		}
		campaigns = append(campaigns, campaign)
	}

	return campaigns, nil
}
