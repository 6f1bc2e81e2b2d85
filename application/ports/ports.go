package ports

import (
	"context"
	"errors"
	"time"

	"journal-insights/domain/events"
	"journal-insights/domain/insight"
)

// InsightCache is the keyed store for generated insights.
// This is a port in hexagonal architecture - the pipeline doesn't know about the implementation
type InsightCache interface {
	// GetLatest returns the most recent non-deleted, unexpired record for
	// the key, or nil when there is none.
	GetLatest(ctx context.Context, userID, category string) (*insight.CachedInsightRecord, error)

	// Upsert stores the record, superseding any previous one for the key.
	Upsert(ctx context.Context, record *insight.CachedInsightRecord) error
}

// Completion provider errors. Adapters wrap these so the pipeline can
// classify failures with errors.Is.
var (
	ErrRateLimited     = errors.New("completion provider rate limited the request")
	ErrEmptyCompletion = errors.New("completion provider returned an empty completion")
)

// CompletionRequest is a single synchronous completion call.
type CompletionRequest struct {
	SystemPrompt string
	UserPrompt   string
	Temperature  float32
	MaxTokens    int
	JSONMode     bool
}

// CompletionProvider produces a text completion for a prompt.
type CompletionProvider interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// EventBus publishes domain events to the outside world.
type EventBus interface {
	Publish(ctx context.Context, event events.DomainEvent) error
}

// GenerationThrottle bounds how often a user may trigger a fresh generation.
type GenerationThrottle interface {
	// Allow reports whether the user may generate now. When denied, the
	// returned duration is how long until the window resets.
	Allow(ctx context.Context, userID string) (bool, time.Duration, error)
}
