package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jonesrussell/social-swarm/internal/models"
)

const campaignsSchema = `
CREATE TABLE IF NOT EXISTS campaigns (
	campaign_id TEXT PRIMARY KEY,
	client_id   TEXT NOT NULL,
	objective   TEXT NOT NULL,
	brief       TEXT NOT NULL,
	platforms   TEXT[] NOT NULL,
	content     JSONB NOT NULL,
	results     JSONB NOT NULL,
	status      TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_campaigns_client_id ON campaigns (client_id)`

// Repository provides database operations for campaign records
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates a new repository instance
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Ping verifies database connectivity
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Initialize ensures the campaigns schema exists
func (r *Repository) Initialize(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, campaignsSchema); err != nil {
		return fmt.Errorf("failed to create campaigns schema: %w", err)
	}
	return nil
}

type campaignRow struct {
	CampaignID string         `db:"campaign_id"`
	ClientID   string         `db:"client_id"`
	Objective  string         `db:"objective"`
	Brief      string         `db:"brief"`
	Platforms  pq.StringArray `db:"platforms"`
	Content    []byte         `db:"content"`
	Results    []byte         `db:"results"`
	Status     string         `db:"status"`
	CreatedAt  time.Time      `db:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at"`
}

func (row *campaignRow) toResult() (*models.CampaignResult, error) {
	result := &models.CampaignResult{
		CampaignID: row.CampaignID,
		ClientID:   row.ClientID,
		Objective:  row.Objective,
		Brief:      row.Brief,
		Platforms:  []string(row.Platforms),
		Results:    map[string]models.PublishResult{},
		Status:     models.CampaignStatus(row.Status),
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
	}
	if err := json.Unmarshal(row.Content, &result.Content); err != nil {
		return nil, fmt.Errorf("failed to decode campaign content: %w", err)
	}
	if err := json.Unmarshal(row.Results, &result.Results); err != nil {
		return nil, fmt.Errorf("failed to decode campaign results: %w", err)
	}
	return result, nil
}

// SaveCampaign inserts or replaces a campaign result. Re-running a
// campaign with the same id overwrites the previous record.
func (r *Repository) SaveCampaign(ctx context.Context, result *models.CampaignResult) error {
	content, err := json.Marshal(result.Content)
	if err != nil {
		return fmt.Errorf("failed to encode campaign content: %w", err)
	}
	results, err := json.Marshal(result.Results)
	if err != nil {
		return fmt.Errorf("failed to encode campaign results: %w", err)
	}

	query := `
		INSERT INTO campaigns (campaign_id, client_id, objective, brief, platforms, content, results, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (campaign_id) DO UPDATE
		SET client_id = EXCLUDED.client_id,
		    objective = EXCLUDED.objective,
		    brief = EXCLUDED.brief,
		    platforms = EXCLUDED.platforms,
		    content = EXCLUDED.content,
		    results = EXCLUDED.results,
		    status = EXCLUDED.status,
		    updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(
		ctx, query,
		result.CampaignID, result.ClientID, result.Objective, result.Brief,
		pq.StringArray(result.Platforms), content, results,
		string(result.Status), result.CreatedAt, result.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save campaign: %w", err)
	}

	return nil
}

// GetCampaign retrieves a campaign by id
func (r *Repository) GetCampaign(ctx context.Context, campaignID string) (*models.CampaignResult, error) {
	row := campaignRow{}
	query := `
		SELECT campaign_id, client_id, objective, brief, platforms, content, results, status, created_at, updated_at
		FROM campaigns
		WHERE campaign_id = $1
	`

	err := r.db.GetContext(ctx, &row, query, campaignID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}

	return row.toResult()
}

// ListCampaignsByClient retrieves a client's campaigns created at or after
// since, newest first
func (r *Repository) ListCampaignsByClient(ctx context.Context, clientID string, since time.Time) ([]*models.CampaignResult, error) {
	rows := []campaignRow{}
	query := `
		SELECT campaign_id, client_id, objective, brief, platforms, content, results, status, created_at, updated_at
		FROM campaigns
		WHERE client_id = $1 AND created_at >= $2
		ORDER BY created_at DESC
	`

	if err := r.db.SelectContext(ctx, &rows, query, clientID, since); err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}

	results := make([]*models.CampaignResult, 0, len(rows))
	for i := range rows {
		result, err := rows[i].toResult()
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}

// ListClients summarizes every client with at least one campaign
func (r *Repository) ListClients(ctx context.Context) ([]models.ClientSummary, error) {
	clients := []models.ClientSummary{}
	query := `
		SELECT client_id, COUNT(*) AS campaigns, MAX(created_at) AS last_campaign
		FROM campaigns
		GROUP BY client_id
		ORDER BY client_id
	`

	if err := r.db.SelectContext(ctx, &clients, query); err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}

	return clients, nil
}
