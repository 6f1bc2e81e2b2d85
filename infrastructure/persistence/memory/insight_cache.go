// Package memory provides process-local stores for development and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"journal-insights/application/ports"
	"journal-insights/domain/insight"
)

// InsightCache keeps the latest record per (user, category) in memory
type InsightCache struct {
	mu    sync.RWMutex
	items map[string]*insight.CachedInsightRecord
	now   func() time.Time
}

// NewInsightCache creates a new in-memory insight cache
func NewInsightCache() *InsightCache {
	return &InsightCache{
		items: make(map[string]*insight.CachedInsightRecord),
		now:   time.Now,
	}
}

var _ ports.InsightCache = (*InsightCache)(nil)

func cacheKey(userID, category string) string {
	return userID + "#" + category
}

// GetLatest retrieves the record for the key, ignoring expired ones
func (c *InsightCache) GetLatest(ctx context.Context, userID, category string) (*insight.CachedInsightRecord, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	record, exists := c.items[cacheKey(userID, category)]
	if !exists || record.IsExpired(c.now()) {
		return nil, nil
	}

	copied := *record
	return &copied, nil
}

// Upsert stores the record, replacing any previous one for the key
func (c *InsightCache) Upsert(ctx context.Context, record *insight.CachedInsightRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	copied := *record
	c.items[cacheKey(record.UserID, record.Category)] = &copied
	return nil
}

// Purge removes expired records and returns how many were dropped.
func (c *InsightCache) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, record := range c.items {
		if record.IsExpired(now) {
			delete(c.items, key)
			removed++
		}
	}
	return removed
}

// RunJanitor purges expired records every interval until ctx is done.
func (c *InsightCache) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Purge()
		}
	}
}
