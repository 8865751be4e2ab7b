package models

// ContentItem is one piece of generated content before or after platform
// optimization. Items are treated as immutable: adapters return a new item
// rather than mutating their input.
type ContentItem struct {
	Text     string   `json:"text"`
	Hashtags []string `json:"hashtags"`
	MediaURL string   `json:"media_url,omitempty"`
}

// Clone returns a deep copy of the item so optimizers never alias the
// caller's hashtag slice.
func (c ContentItem) Clone() ContentItem {
	out := c
	if c.Hashtags != nil {
		out.Hashtags = make([]string, len(c.Hashtags))
		copy(out.Hashtags, c.Hashtags)
	}
	return out
}

// Publish statuses used in PublishResult.
const (
	PublishStatusSuccess = "success"
	PublishStatusFailed  = "failed"
)

// PublishResult is the outcome of publishing one content item to one
// platform. Platform and ClientID are always set; exactly one of PostID or
// Error is populated depending on Status.
type PublishResult struct {
	Platform string `json:"platform"`
	ClientID string `json:"client_id"`
	Status   string `json:"status"`
	PostID   string `json:"post_id,omitempty"`
	Text     string `json:"text,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Succeeded reports whether the publish call succeeded.
func (r PublishResult) Succeeded() bool {
	return r.Status == PublishStatusSuccess
}

// MetricsResult holds platform-specific engagement counters for a post.
// On external failure, Error is set and Insights is empty; metrics fetches
// never abort the caller.
type MetricsResult struct {
	Platform string           `json:"platform"`
	PostID   string           `json:"post_id"`
	Insights map[string]int64 `json:"insights,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// EngagementEvent is an inbound engagement notification from a platform,
// convertible into a CRM lead.
type EngagementEvent struct {
	Platform string `json:"platform"`
	Type     string `json:"type"`
	PostID   string `json:"post_id"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
}
