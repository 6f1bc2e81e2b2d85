package insight

import (
	"time"

	"github.com/google/uuid"
)

// CachedInsightRecord is a persisted insight for a (user, category) key.
// Records are superseded by later writes, never mutated.
type CachedInsightRecord struct {
	ID              string
	UserID          string
	Category        string
	Content         Content
	GeneratedAt     time.Time
	EntriesAnalyzed int
	ExpiresAt       time.Time
}

// NewCachedInsightRecord builds a record expiring ttl after generatedAt.
func NewCachedInsightRecord(userID, category string, content Content, entriesAnalyzed int, generatedAt time.Time, ttl time.Duration) *CachedInsightRecord {
	return &CachedInsightRecord{
		ID:              uuid.New().String(),
		UserID:          userID,
		Category:        category,
		Content:         content,
		GeneratedAt:     generatedAt.UTC(),
		EntriesAnalyzed: entriesAnalyzed,
		ExpiresAt:       generatedAt.UTC().Add(ttl),
	}
}

// IsExpired reports whether the record is past its expiry at now.
func (r *CachedInsightRecord) IsExpired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// IsStale reports whether the record was generated more than threshold ago.
// Staleness is advisory and does not invalidate the record.
func (r *CachedInsightRecord) IsStale(now time.Time, threshold time.Duration) bool {
	return now.Sub(r.GeneratedAt) > threshold
}
