package insights

import (
	"time"

	"journal-insights/domain/insight"
)

// Assembler builds the outward insight response.
type Assembler struct{}

// NewAssembler creates an assembler
func NewAssembler() *Assembler {
	return &Assembler{}
}

// FromCache echoes a cached record.
func (a *Assembler) FromCache(record *insight.CachedInsightRecord) *insight.Insight {
	content := record.Content
	content.Normalize()

	expiresAt := record.ExpiresAt
	return &insight.Insight{
		Content:         content,
		EntriesAnalyzed: record.EntriesAnalyzed,
		GeneratedAt:     record.GeneratedAt,
		FromCache:       true,
		CacheExpiresAt:  &expiresAt,
	}
}

// Fresh wraps a newly generated insight. Expiry is only reported for
// cached responses.
func (a *Assembler) Fresh(content insight.Content, entriesAnalyzed int, generatedAt time.Time) *insight.Insight {
	content.Normalize()

	return &insight.Insight{
		Content:         content,
		EntriesAnalyzed: entriesAnalyzed,
		GeneratedAt:     generatedAt,
		FromCache:       false,
	}
}
