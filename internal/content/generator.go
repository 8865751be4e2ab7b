// Package content provides the content generation collaborator: a client
// for an OpenAI-compatible chat completions endpoint that drafts raw
// campaign content from a brief and objective.
package content

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jonesrussell/social-swarm/internal/config"
	"github.com/jonesrussell/social-swarm/internal/logger"
	"github.com/jonesrussell/social-swarm/internal/models"
)

// Generator drafts raw content for a campaign. Generation errors are fatal
// to the campaign: with no content there is nothing to publish.
type Generator interface {
	Generate(ctx context.Context, brief, objective string) (models.ContentItem, error)
}

const systemPrompt = `You are a social media copywriter. Given a content brief and a campaign objective, write one post.
Respond with a single JSON object and nothing else:
{"text": "<post body>", "hashtags": ["tag1", "tag2"], "media_url": ""}`

// Client calls a chat completions endpoint and parses the drafted content.
type Client struct {
	cfg    config.ContentConfig
	client *http.Client
	logger logger.Logger
}

// NewClient creates a content generation client.
func NewClient(cfg config.ContentConfig, log logger.Logger) *Client {
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: log,
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Generate requests one draft from the model and parses it into a
// ContentItem.
func (c *Client) Generate(ctx context.Context, brief, objective string) (models.ContentItem, error) {
	prompt := fmt.Sprintf("Objective: %s\n\nBrief: %s", objective, brief)

	payload, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		return models.ContentItem{}, fmt.Errorf("%w: marshal request: %w", models.ErrContentGeneration, err)
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/v1/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return models.ContentItem{}, fmt.Errorf("%w: create request: %w", models.ErrContentGeneration, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return models.ContentItem{}, fmt.Errorf("%w: %w", models.ErrContentGeneration, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.ContentItem{}, fmt.Errorf("%w: read response: %w", models.ErrContentGeneration, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return models.ContentItem{}, fmt.Errorf("%w: http %d: %s",
			models.ErrContentGeneration, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var decoded chatResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return models.ContentItem{}, fmt.Errorf("%w: decode response: %w", models.ErrContentGeneration, err)
	}
	if len(decoded.Choices) == 0 {
		return models.ContentItem{}, fmt.Errorf("%w: empty choices", models.ErrContentGeneration)
	}

	item, err := parseDraft(decoded.Choices[0].Message.Content)
	if err != nil {
		return models.ContentItem{}, fmt.Errorf("%w: %w", models.ErrContentGeneration, err)
	}

	c.logger.Debug("Content drafted",
		logger.Int("text_length", len(item.Text)),
		logger.Int("hashtag_count", len(item.Hashtags)),
	)
	return item, nil
}

// parseDraft extracts the ContentItem JSON from a model reply, tolerating
// fenced code blocks and surrounding prose.
func parseDraft(reply string) (models.ContentItem, error) {
	raw := strings.TrimSpace(reply)

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return models.ContentItem{}, errors.New("reply contains no JSON object")
	}

	var item models.ContentItem
	if err := json.Unmarshal([]byte(raw[start:end+1]), &item); err != nil {
		return models.ContentItem{}, fmt.Errorf("parse draft: %w", err)
	}
	if strings.TrimSpace(item.Text) == "" {
		return models.ContentItem{}, errors.New("draft has empty text")
	}
	return item, nil
}
