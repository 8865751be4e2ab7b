package metrics

import "time"

// PlatformStats holds per-platform publish counters
type PlatformStats struct {
	Name      string `json:"name"`
	Published int64  `json:"published"`
	Failed    int64  `json:"failed"`
}

// Stats aggregates publish counters across all platforms
type Stats struct {
	Platforms      []PlatformStats `json:"platforms"`
	TotalPublished int64           `json:"total_published"`
	TotalFailed    int64           `json:"total_failed"`
	LastCampaign   time.Time       `json:"last_campaign"`
}

// RecentCampaign is one entry in the recent campaigns list
type RecentCampaign struct {
	CampaignID  string    `json:"campaign_id"`
	ClientID    string    `json:"client_id"`
	Status      string    `json:"status"`
	Platforms   []string  `json:"platforms"`
	Failures    int       `json:"failures"`
	CompletedAt time.Time `json:"completed_at"`
}
