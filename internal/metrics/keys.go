package metrics

import "fmt"

const (
	// KeyPrefixMetrics is the prefix for all metrics keys
	KeyPrefixMetrics = "metrics"
	// KeyPrefixPublished is the prefix for published-post counters
	KeyPrefixPublished = "published"
	// KeyPrefixFailed is the prefix for failed-publish counters
	KeyPrefixFailed = "failed"
	// KeyRecentCampaigns is the Redis key for the recent campaigns list
	KeyRecentCampaigns = "metrics:recent:campaigns"
	// KeyLastCampaign is the Redis key for the last campaign timestamp
	KeyLastCampaign = "metrics:last_campaign"
	// MaxRecentCampaigns is the maximum number of recent campaigns to keep
	MaxRecentCampaigns = 100
	// MetricsTTLDays is the TTL in days for metrics counters
	MetricsTTLDays = 30
	// RecentCampaignsTTLDays is the TTL in days for the recent campaigns list
	RecentCampaignsTTLDays = 7
)

// RedisKeys provides methods to build Redis keys consistently
type RedisKeys struct {
	prefix string
}

// NewRedisKeys creates a new RedisKeys instance
func NewRedisKeys(prefix string) *RedisKeys {
	return &RedisKeys{prefix: prefix}
}

// Published returns the Redis key for a platform's published counter
func (k *RedisKeys) Published(platform string) string {
	return fmt.Sprintf("%s:%s:%s", k.prefix, KeyPrefixPublished, platform)
}

// Failed returns the Redis key for a platform's failed counter
func (k *RedisKeys) Failed(platform string) string {
	return fmt.Sprintf("%s:%s:%s", k.prefix, KeyPrefixFailed, platform)
}
