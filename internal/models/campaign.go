package models

import "time"

// CampaignStatus tracks a campaign through its lifecycle. Transitions are
// strictly forward: Started -> ContentGenerated -> Completed.
type CampaignStatus string

const (
	CampaignStarted          CampaignStatus = "started"
	CampaignContentGenerated CampaignStatus = "content_generated"
	CampaignCompleted        CampaignStatus = "completed"
)

var statusRank = map[CampaignStatus]int{
	CampaignStarted:          0,
	CampaignContentGenerated: 1,
	CampaignCompleted:        2,
}

// CampaignResult is the aggregate outcome of one campaign execution: the
// generated content plus one PublishResult per target platform, successful
// or not.
type CampaignResult struct {
	CampaignID string                   `db:"campaign_id" json:"campaign_id"`
	ClientID   string                   `db:"client_id"   json:"client_id"`
	Objective  string                   `db:"objective"   json:"objective"`
	Brief      string                   `db:"brief"       json:"brief"`
	Platforms  []string                 `db:"-"           json:"platforms"`
	Content    ContentItem              `db:"-"           json:"content"`
	Results    map[string]PublishResult `db:"-"           json:"results"`
	Status     CampaignStatus           `db:"status"      json:"status"`
	CreatedAt  time.Time                `db:"created_at"  json:"created_at"`
	UpdatedAt  time.Time                `db:"updated_at"  json:"updated_at"`
}

// Advance moves the campaign to the given status and stamps UpdatedAt.
// Backward transitions are ignored so the status never regresses.
func (c *CampaignResult) Advance(status CampaignStatus) {
	if statusRank[status] <= statusRank[c.Status] {
		return
	}
	c.Status = status
	c.UpdatedAt = time.Now()
}

// FailureCount returns the number of per-platform failures in the result set.
func (c *CampaignResult) FailureCount() int {
	n := 0
	for _, r := range c.Results {
		if !r.Succeeded() {
			n++
		}
	}
	return n
}

// CampaignRequest is the API payload for creating a campaign.
type CampaignRequest struct {
	ClientID   string   `binding:"required,min=1,max=255" json:"client_id"`
	Objective  string   `binding:"required,min=1"         json:"objective"`
	Brief      string   `binding:"required,min=1"         json:"content_brief"`
	Platforms  []string `binding:"required,min=1"         json:"target_platforms"`
	CampaignID string   `json:"campaign_id,omitempty"`
}

// ClientSummary is a per-client row for the clients listing endpoint.
type ClientSummary struct {
	ClientID     string    `db:"client_id"     json:"client_id"`
	Campaigns    int       `db:"campaigns"     json:"campaigns"`
	LastCampaign time.Time `db:"last_campaign" json:"last_campaign"`
}

// PlatformStatus describes one adapter's connection state.
type PlatformStatus struct {
	Connected bool      `json:"connected"`
	LastCheck time.Time `json:"last_check"`
}
