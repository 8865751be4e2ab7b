package models

import "time"

// MemoryRecord is a persisted, embeddable summary used for similarity
// retrieval. Records are immutable after creation; storing the same ID
// again overwrites the previous record.
type MemoryRecord struct {
	ID        string         `json:"id"`
	Content   string         `json:"content"`
	Embedding []float32      `json:"-"`
	Metadata  map[string]any `json:"metadata"`
	StoredAt  time.Time      `json:"stored_at"`
}

// SearchResult pairs a record with its similarity to the query, where 1.0
// is an exact match.
type SearchResult struct {
	Record     MemoryRecord `json:"record"`
	Similarity float64      `json:"similarity"`
}
