// Package crm bridges campaign outcomes into the GoHighLevel CRM.
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jonesrussell/social-swarm/internal/config"
	"github.com/jonesrussell/social-swarm/internal/logger"
	"github.com/jonesrussell/social-swarm/internal/models"
)

const defaultTimeout = 15 * time.Second

// Client talks to the GoHighLevel REST API. CRM calls sit off the campaign
// critical path: callers treat failures as log-and-continue.
type Client struct {
	baseURL    string
	apiKey     string
	locationID string
	pipelineID string
	httpClient *http.Client
	logger     logger.Logger

	mu        sync.Mutex
	connected bool
}

// NewClient creates a GoHighLevel client from configuration.
func NewClient(cfg config.CRMConfig, log logger.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		locationID: cfg.LocationID,
		pipelineID: cfg.PipelineID,
		httpClient: &http.Client{Timeout: timeout},
		logger:     log,
	}
}

// Initialize verifies API credentials by fetching the configured location.
// A failed check is logged but not fatal: reporting degrades to no-ops
// rather than blocking campaign execution.
func (c *Client) Initialize(ctx context.Context) error {
	var out map[string]any
	err := c.do(ctx, http.MethodGet, "/locations/"+c.locationID, nil, &out)
	c.mu.Lock()
	c.connected = err == nil
	c.mu.Unlock()
	if err != nil {
		c.logger.Warn("CRM connection check failed, reporting disabled",
			logger.String("location_id", c.locationID),
			logger.Error(err),
		)
		return nil
	}
	c.logger.Info("CRM connected", logger.String("location_id", c.locationID))
	return nil
}

// Connected reports whether the last connection check succeeded.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Shutdown releases the client. No server-side state to tear down.
func (c *Client) Shutdown() error {
	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()
	return nil
}

// ReportCampaignOutcome records a finished campaign as a pipeline
// opportunity. Completed campaigns land as "won", anything else stays
// "open"; per-platform failures are carried in the failed_platforms
// custom field rather than the opportunity status.
func (c *Client) ReportCampaignOutcome(ctx context.Context, result *models.CampaignResult) error {
	if !c.Connected() {
		return fmt.Errorf("%w: crm client", models.ErrNotInitialized)
	}

	status := "open"
	if result.Status == models.CampaignCompleted {
		status = "won"
	}

	payload := map[string]any{
		"locationId": c.locationID,
		"pipelineId": c.pipelineID,
		"name":       fmt.Sprintf("Campaign %s (%s)", result.CampaignID, result.ClientID),
		"status":     status,
		"customFields": []map[string]any{
			{"key": "campaign_id", "value": result.CampaignID},
			{"key": "client_id", "value": result.ClientID},
			{"key": "objective", "value": result.Objective},
			{"key": "platforms", "value": strings.Join(result.Platforms, ",")},
			{"key": "failed_platforms", "value": result.FailureCount()},
		},
	}

	var out map[string]any
	if err := c.do(ctx, http.MethodPost, "/opportunities/", payload, &out); err != nil {
		return fmt.Errorf("report campaign outcome: %w", err)
	}

	c.logger.Info("Campaign outcome reported to CRM",
		logger.String("campaign_id", result.CampaignID),
		logger.String("opportunity_status", status),
	)
	return nil
}

// CreateLeadFromEngagement turns a social engagement event into a CRM
// contact. Missing contact fields are sent as empty strings rather than
// omitted, matching how GoHighLevel merges partial contacts. Returns the
// new contact id.
func (c *Client) CreateLeadFromEngagement(ctx context.Context, event models.EngagementEvent) (string, error) {
	if !c.Connected() {
		return "", fmt.Errorf("%w: crm client", models.ErrNotInitialized)
	}

	payload := map[string]any{
		"locationId": c.locationID,
		"name":       event.Name,
		"email":      event.Email,
		"phone":      event.Phone,
		"source":     event.Platform,
		"tags":       []string{"social-media-lead", event.Platform},
		"customFields": []map[string]any{
			{"key": "engagement_type", "value": event.Type},
			{"key": "post_id", "value": event.PostID},
		},
	}

	var out struct {
		Contact struct {
			ID string `json:"id"`
		} `json:"contact"`
	}
	if err := c.do(ctx, http.MethodPost, "/contacts/", payload, &out); err != nil {
		return "", fmt.Errorf("create lead: %w", err)
	}
	if out.Contact.ID == "" {
		return "", fmt.Errorf("create lead: response missing contact id")
	}

	c.logger.Info("Lead created from engagement",
		logger.String("contact_id", out.Contact.ID),
		logger.String("platform", event.Platform),
		logger.String("engagement_type", event.Type),
	)
	return out.Contact.ID, nil
}

// TriggerAutomation enrolls a contact into a GoHighLevel workflow.
func (c *Client) TriggerAutomation(ctx context.Context, workflowID, contactID string) error {
	if !c.Connected() {
		return fmt.Errorf("%w: crm client", models.ErrNotInitialized)
	}

	path := fmt.Sprintf("/contacts/%s/workflow/%s", contactID, workflowID)
	if err := c.do(ctx, http.MethodPost, path, map[string]any{}, nil); err != nil {
		return fmt.Errorf("trigger automation: %w", err)
	}
	return nil
}

// Contact is the subset of GoHighLevel contact fields the service reads.
type Contact struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Email string   `json:"email"`
	Phone string   `json:"phone"`
	Tags  []string `json:"tags"`
}

// GetContact fetches a contact by id.
func (c *Client) GetContact(ctx context.Context, contactID string) (*Contact, error) {
	if !c.Connected() {
		return nil, fmt.Errorf("%w: crm client", models.ErrNotInitialized)
	}

	var out struct {
		Contact Contact `json:"contact"`
	}
	if err := c.do(ctx, http.MethodGet, "/contacts/"+contactID, nil, &out); err != nil {
		return nil, fmt.Errorf("get contact: %w", err)
	}
	if out.Contact.ID == "" {
		return nil, models.ErrNotFound
	}
	return &out.Contact, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}
