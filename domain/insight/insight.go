// Package insight holds the journal insight model shared by the pipeline,
// the cache stores and the HTTP layer.
package insight

import (
	"time"
)

// DefaultCategory is the cache key category for journal insights.
const DefaultCategory = "journal_insights"

// JournalEntry is a single entry submitted by the client.
type JournalEntry struct {
	Date      string  `json:"date"`
	Title     string  `json:"title"`
	Content   string  `json:"content" validate:"notblank"`
	WordCount float64 `json:"word_count"`
	Mood      string  `json:"mood,omitempty"`
}

// SourceEntry references an input entry a theme was drawn from.
type SourceEntry struct {
	Date  string `json:"date"`
	Title string `json:"title"`
}

// Theme is a named recurring pattern across the analyzed entries.
type Theme struct {
	Name          string        `json:"name"`
	Icon          string        `json:"icon"`
	Explanation   string        `json:"explanation"`
	Frequency     string        `json:"frequency"`
	SourceEntries []SourceEntry `json:"sourceEntries"`
}

// Annotation explains the emotional significance of one calendar date.
type Annotation struct {
	Date      string `json:"date"`
	Narrative string `json:"narrative"`
}

// Content is the generated part of an insight. It is what gets cached.
type Content struct {
	Summary     string       `json:"summary"`
	Description string       `json:"description"`
	Annotations []Annotation `json:"annotations"`
	Themes      []Theme      `json:"themes"`
}

// Normalize fills defaults for shapes cached before annotations existed.
func (c *Content) Normalize() {
	if c.Annotations == nil {
		c.Annotations = []Annotation{}
	}
	if c.Themes == nil {
		return
	}
	// Copy so a shared backing array is never written through
	themes := make([]Theme, len(c.Themes))
	copy(themes, c.Themes)
	for i := range themes {
		if themes[i].SourceEntries == nil {
			themes[i].SourceEntries = []SourceEntry{}
		}
	}
	c.Themes = themes
}

// Insight is the response returned to the client.
type Insight struct {
	Content
	EntriesAnalyzed int        `json:"entriesAnalyzed"`
	GeneratedAt     time.Time  `json:"generatedAt"`
	FromCache       bool       `json:"fromCache"`
	CacheExpiresAt  *time.Time `json:"cacheExpiresAt,omitempty"`
}
