// Package memory provides the campaign memory store: persisted, embedded
// summaries of completed campaigns with nearest-neighbor retrieval.
package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/social-swarm/internal/logger"
	"github.com/jonesrussell/social-swarm/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS memory_records (
	id        TEXT PRIMARY KEY,
	content   TEXT NOT NULL,
	embedding BYTEA NOT NULL,
	metadata  JSONB NOT NULL DEFAULT '{}',
	stored_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	seq       BIGSERIAL
)`

// Store persists memory records in Postgres and retrieves them by id or by
// vector similarity. Writes are append-or-overwrite by id.
type Store struct {
	db       *sqlx.DB
	embedder Embedder
	logger   logger.Logger

	mu          sync.Mutex
	initialized bool
}

// NewStore creates a memory store over the given database and embedder.
// Initialize must be called before any other operation.
func NewStore(db *sqlx.DB, embedder Embedder, log logger.Logger) *Store {
	return &Store{
		db:       db,
		embedder: embedder,
		logger:   log,
	}
}

// Initialize ensures the backing table exists. Safe to call more than once.
func (s *Store) Initialize(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create memory schema: %w", err)
	}
	s.mu.Lock()
	s.initialized = true
	s.mu.Unlock()
	return nil
}

func (s *Store) ready() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return fmt.Errorf("%w: memory store", models.ErrNotInitialized)
	}
	return nil
}

// Store embeds the text and persists it with its metadata. When id is
// empty a new one is generated. Storing an existing id overwrites the
// previous record rather than duplicating it. Returns the record id.
func (s *Store) Store(ctx context.Context, text string, metadata map[string]any, id string) (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}

	vector, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return "", fmt.Errorf("store memory: %w", err)
	}
	blob, err := encodeVector(vector)
	if err != nil {
		return "", fmt.Errorf("store memory: %w", err)
	}

	if id == "" {
		id = "mem_" + uuid.NewString()
	}
	if metadata == nil {
		metadata = map[string]any{}
	}
	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return "", fmt.Errorf("store memory: marshal metadata: %w", err)
	}

	query := `
		INSERT INTO memory_records (id, content, embedding, metadata, stored_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET content = EXCLUDED.content,
		    embedding = EXCLUDED.embedding,
		    metadata = EXCLUDED.metadata,
		    stored_at = EXCLUDED.stored_at
	`
	if _, err := s.db.ExecContext(ctx, query, id, text, blob, metaJSON, time.Now()); err != nil {
		return "", fmt.Errorf("store memory: %w", err)
	}

	s.logger.Debug("Memory record stored",
		logger.String("record_id", id),
		logger.Int("content_length", len(text)),
	)
	return id, nil
}

type recordRow struct {
	ID        string    `db:"id"`
	Content   string    `db:"content"`
	Embedding []byte    `db:"embedding"`
	Metadata  []byte    `db:"metadata"`
	StoredAt  time.Time `db:"stored_at"`
	Seq       int64     `db:"seq"`
}

func (r recordRow) toRecord() (models.MemoryRecord, error) {
	vector, err := decodeVector(r.Embedding)
	if err != nil {
		return models.MemoryRecord{}, err
	}
	metadata := map[string]any{}
	if len(r.Metadata) > 0 {
		if err := json.Unmarshal(r.Metadata, &metadata); err != nil {
			return models.MemoryRecord{}, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	return models.MemoryRecord{
		ID:        r.ID,
		Content:   r.Content,
		Embedding: vector,
		Metadata:  metadata,
		StoredAt:  r.StoredAt,
	}, nil
}

// Search embeds the query and returns up to limit records ordered by
// descending cosine similarity, ties broken by insertion order (oldest
// first). When filter is non-nil, only records whose metadata contains
// every filter key with an equal value are considered.
func (s *Store) Search(ctx context.Context, query string, limit int, filter map[string]any) ([]models.SearchResult, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, fmt.Errorf("search memory: limit must be positive, got %d", limit)
	}

	queryVector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search memory: %w", err)
	}

	rows := []recordRow{}
	selectQuery := `
		SELECT id, content, embedding, metadata, stored_at, seq
		FROM memory_records
		ORDER BY seq ASC
	`
	if err := s.db.SelectContext(ctx, &rows, selectQuery); err != nil {
		return nil, fmt.Errorf("search memory: %w", err)
	}

	type scored struct {
		result models.SearchResult
		seq    int64
	}
	candidates := make([]scored, 0, len(rows))
	for _, row := range rows {
		record, convErr := row.toRecord()
		if convErr != nil {
			s.logger.Warn("Skipping unreadable memory record",
				logger.String("record_id", row.ID),
				logger.Error(convErr),
			)
			continue
		}
		if !metadataMatches(record.Metadata, filter) {
			continue
		}
		similarity, simErr := cosineSimilarity(queryVector, record.Embedding)
		if simErr != nil {
			s.logger.Warn("Skipping incomparable memory record",
				logger.String("record_id", row.ID),
				logger.Error(simErr),
			)
			continue
		}
		candidates = append(candidates, scored{
			result: models.SearchResult{Record: record, Similarity: similarity},
			seq:    row.Seq,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].result.Similarity != candidates[j].result.Similarity {
			return candidates[i].result.Similarity > candidates[j].result.Similarity
		}
		return candidates[i].seq < candidates[j].seq
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	results := make([]models.SearchResult, 0, len(candidates))
	for _, c := range candidates {
		results = append(results, c.result)
	}
	return results, nil
}

// GetByID returns the record with the given id, or models.ErrNotFound.
func (s *Store) GetByID(ctx context.Context, id string) (*models.MemoryRecord, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	var row recordRow
	query := `
		SELECT id, content, embedding, metadata, stored_at, seq
		FROM memory_records
		WHERE id = $1
	`
	if err := s.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("get memory record: %w", err)
	}

	record, err := row.toRecord()
	if err != nil {
		return nil, fmt.Errorf("get memory record: %w", err)
	}
	return &record, nil
}

// DeleteByID removes the record with the given id. Returns false when no
// such record exists; an absent id is not an error.
func (s *Store) DeleteByID(ctx context.Context, id string) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM memory_records WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete memory record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete memory record: %w", err)
	}
	return affected > 0, nil
}

// metadataMatches reports whether metadata contains every filter key with
// an equal value. A nil or empty filter matches everything.
func metadataMatches(metadata, filter map[string]any) bool {
	for key, want := range filter {
		got, ok := metadata[key]
		if !ok {
			return false
		}
		if fmt.Sprintf("%v", got) != fmt.Sprintf("%v", want) {
			return false
		}
	}
	return true
}

// CampaignRecordID returns the fixed memory record id for a campaign, so
// re-running a campaign overwrites its memory instead of duplicating it.
func CampaignRecordID(campaignID string) string {
	return "campaign_" + campaignID
}

// StoreCampaignMemory builds the textual summary and metadata for a
// completed campaign and stores it under the campaign's record id.
func (s *Store) StoreCampaignMemory(ctx context.Context, result *models.CampaignResult) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Campaign memory for client %s\n\n", result.ClientID)
	fmt.Fprintf(&b, "Objective: %s\n", result.Objective)
	fmt.Fprintf(&b, "Platforms: %s\n", strings.Join(result.Platforms, ", "))
	fmt.Fprintf(&b, "Status: %s\n\n", result.Status)
	fmt.Fprintf(&b, "Content: %s\n\n", result.Content.Text)

	b.WriteString("Published results:\n")
	for _, platform := range result.Platforms {
		r := result.Results[platform]
		if r.Succeeded() {
			fmt.Fprintf(&b, "- %s: published as %s\n", platform, r.PostID)
		} else {
			fmt.Fprintf(&b, "- %s: failed (%s)\n", platform, r.Error)
		}
	}

	metadata := map[string]any{
		"type":        "campaign_memory",
		"campaign_id": result.CampaignID,
		"client_id":   result.ClientID,
		"status":      string(result.Status),
		"platforms":   strings.Join(result.Platforms, ","),
		"failures":    result.FailureCount(),
	}

	return s.Store(ctx, b.String(), metadata, CampaignRecordID(result.CampaignID))
}

// ClientInsights aggregates stored campaign memories for one client.
type ClientInsights struct {
	ClientID       string  `json:"client_id"`
	PeriodDays     int     `json:"period_days"`
	TotalCampaigns int     `json:"total_campaigns"`
	TotalFailures  int     `json:"total_failures"`
	SuccessRate    float64 `json:"success_rate"`
}

// Insights summarizes the client's campaign memories from the last N days.
func (s *Store) Insights(ctx context.Context, clientID string, days int) (*ClientInsights, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	const insightsLimit = 100
	results, err := s.Search(ctx, "campaign history for client "+clientID, insightsLimit, map[string]any{
		"type":      "campaign_memory",
		"client_id": clientID,
	})
	if err != nil {
		return nil, fmt.Errorf("client insights: %w", err)
	}

	cutoff := time.Now().AddDate(0, 0, -days)
	insights := &ClientInsights{ClientID: clientID, PeriodDays: days}
	platformRuns := 0
	for _, r := range results {
		if days > 0 && r.Record.StoredAt.Before(cutoff) {
			continue
		}
		insights.TotalCampaigns++
		if failures, ok := r.Record.Metadata["failures"]; ok {
			if n, convErr := toInt(failures); convErr == nil {
				insights.TotalFailures += n
			}
		}
		if platforms, ok := r.Record.Metadata["platforms"].(string); ok && platforms != "" {
			platformRuns += len(strings.Split(platforms, ","))
		}
	}
	if platformRuns > 0 {
		insights.SuccessRate = 1 - float64(insights.TotalFailures)/float64(platformRuns)
	}

	return insights, nil
}

// toInt converts JSON-decoded numeric metadata back to an int.
func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("not a number: %T", v)
	}
}
