package events

import (
	"time"
)

// SourceInsights is the EventBridge source for events raised by this service.
const SourceInsights = "journal.insights"

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

// InsightGenerated is raised after a fresh insight was synthesized.
// It never carries journal content.
type InsightGenerated struct {
	BaseEvent
	UserID          string `json:"user_id"`
	Category        string `json:"category"`
	EntriesAnalyzed int    `json:"entries_analyzed"`
	ThemeCount      int    `json:"theme_count"`
	AnnotationCount int    `json:"annotation_count"`
	ForceRefresh    bool   `json:"force_refresh"`
	CacheStored     bool   `json:"cache_stored"`
}

// NewInsightGenerated creates an InsightGenerated event
func NewInsightGenerated(userID, category string, entriesAnalyzed, themeCount, annotationCount int, forceRefresh, cacheStored bool, timestamp time.Time) InsightGenerated {
	return InsightGenerated{
		BaseEvent: BaseEvent{
			AggregateID: userID + "#" + category,
			EventType:   "insight.generated",
			Timestamp:   timestamp,
			Version:     1,
		},
		UserID:          userID,
		Category:        category,
		EntriesAnalyzed: entriesAnalyzed,
		ThemeCount:      themeCount,
		AnnotationCount: annotationCount,
		ForceRefresh:    forceRefresh,
		CacheStored:     cacheStored,
	}
}
