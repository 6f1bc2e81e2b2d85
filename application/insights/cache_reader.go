package insights

import (
	"context"
	"time"

	"journal-insights/application/ports"
	"journal-insights/domain/insight"
	"journal-insights/pkg/observability"

	"go.uber.org/zap"
)

// CacheLookup is the result of a cache read.
type CacheLookup struct {
	Record *insight.CachedInsightRecord
	Hit    bool
	Stale  bool
}

// CacheReader finds the latest cached insight for a user.
type CacheReader struct {
	cache      ports.InsightCache
	staleAfter time.Duration
	metrics    observability.Recorder
	logger     *zap.Logger
	now        func() time.Time
}

// NewCacheReader creates a cache reader
func NewCacheReader(cache ports.InsightCache, staleAfter time.Duration, metrics observability.Recorder, logger *zap.Logger) *CacheReader {
	return &CacheReader{
		cache:      cache,
		staleAfter: staleAfter,
		metrics:    metrics,
		logger:     logger,
		now:        time.Now,
	}
}

// Read looks up the cached insight. Store failures are reported as a miss.
func (r *CacheReader) Read(ctx context.Context, userID, category string) CacheLookup {
	record, err := r.cache.GetLatest(ctx, userID, category)
	if err != nil {
		r.logger.Warn("Cache read failed, generating fresh insight",
			zap.String("user_id", userID),
			zap.String("category", category),
			zap.Error(err),
		)
		r.metrics.RecordCacheLookup(ctx, observability.LookupError)
		return CacheLookup{}
	}

	now := r.now()
	if record == nil || record.IsExpired(now) {
		r.metrics.RecordCacheLookup(ctx, observability.LookupMiss)
		return CacheLookup{}
	}

	lookup := CacheLookup{
		Record: record,
		Hit:    true,
		Stale:  record.IsStale(now, r.staleAfter),
	}

	if lookup.Stale {
		r.logger.Info("Serving stale cached insight",
			zap.String("user_id", userID),
			zap.String("category", category),
			zap.Time("generated_at", record.GeneratedAt),
			zap.Duration("age", now.Sub(record.GeneratedAt)),
		)
		r.metrics.RecordCacheLookup(ctx, observability.LookupStale)
	} else {
		r.metrics.RecordCacheLookup(ctx, observability.LookupHit)
	}

	return lookup
}
