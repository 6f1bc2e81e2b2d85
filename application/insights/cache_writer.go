package insights

import (
	"context"
	"time"

	"journal-insights/application/ports"
	"journal-insights/domain/insight"
	"journal-insights/pkg/observability"

	"go.uber.org/zap"
)

// WriteResult reports the outcome of a cache write. A failed write is
// carried here rather than returned as an error, callers decide whether
// to look at it.
type WriteResult struct {
	Stored    bool
	ExpiresAt time.Time
	Err       error
}

// CacheWriter persists freshly generated insights.
type CacheWriter struct {
	cache   ports.InsightCache
	ttl     time.Duration
	metrics observability.Recorder
	logger  *zap.Logger
}

// NewCacheWriter creates a cache writer
func NewCacheWriter(cache ports.InsightCache, ttl time.Duration, metrics observability.Recorder, logger *zap.Logger) *CacheWriter {
	return &CacheWriter{
		cache:   cache,
		ttl:     ttl,
		metrics: metrics,
		logger:  logger,
	}
}

// Write upserts the insight with the configured TTL.
func (w *CacheWriter) Write(ctx context.Context, userID, category string, content insight.Content, entriesAnalyzed int, generatedAt time.Time) WriteResult {
	record := insight.NewCachedInsightRecord(userID, category, content, entriesAnalyzed, generatedAt, w.ttl)

	err := w.cache.Upsert(ctx, record)
	w.metrics.RecordCacheWrite(ctx, err)
	if err != nil {
		w.logger.Error("Failed to cache insight",
			zap.String("user_id", userID),
			zap.String("category", category),
			zap.Error(err),
		)
		return WriteResult{Err: err}
	}

	return WriteResult{Stored: true, ExpiresAt: record.ExpiresAt}
}
