// Package supabase stores cached insights in a Supabase (PostgREST) table.
package supabase

import (
	"context"
	"fmt"
	"time"

	"journal-insights/application/ports"
	"journal-insights/domain/insight"

	"github.com/supabase-community/postgrest-go"
	"go.uber.org/zap"
)

// QueryClient is satisfied by both *supabase.Client and *postgrest.Client.
type QueryClient interface {
	From(table string) *postgrest.QueryBuilder
}

// InsightCacheRepository reads and writes rows of the insights table.
// The table has a unique constraint on (user_id, insight_type).
type InsightCacheRepository struct {
	client QueryClient
	table  string
	logger *zap.Logger
	now    func() time.Time
}

// NewInsightCacheRepository creates a new InsightCacheRepository
func NewInsightCacheRepository(client QueryClient, table string, logger *zap.Logger) *InsightCacheRepository {
	return &InsightCacheRepository{
		client: client,
		table:  table,
		logger: logger,
		now:    time.Now,
	}
}

var _ ports.InsightCache = (*InsightCacheRepository)(nil)

type insightRow struct {
	ID              string          `json:"id,omitempty"`
	UserID          string          `json:"user_id"`
	InsightType     string          `json:"insight_type"`
	Content         insight.Content `json:"content"`
	GeneratedAt     time.Time       `json:"generated_at"`
	EntriesAnalyzed int             `json:"entries_analyzed"`
	ExpiresAt       time.Time       `json:"expires_at"`
	DeletedAt       *time.Time      `json:"deleted_at"`
}

// GetLatest returns the newest live row for the key, or nil.
// postgrest-go does not take a context, so ctx is only checked up front.
func (r *InsightCacheRepository) GetLatest(ctx context.Context, userID, category string) (*insight.CachedInsightRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rows []insightRow
	_, err := r.client.From(r.table).
		Select("id,user_id,insight_type,content,generated_at,entries_analyzed,expires_at,deleted_at", "", false).
		Eq("user_id", userID).
		Eq("insight_type", category).
		Is("deleted_at", "null").
		Gt("expires_at", r.now().UTC().Format(time.RFC3339)).
		Order("generated_at", &postgrest.OrderOpts{Ascending: false}).
		Limit(1, "").
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", r.table, err)
	}

	if len(rows) == 0 {
		return nil, nil
	}

	row := rows[0]
	return &insight.CachedInsightRecord{
		ID:              row.ID,
		UserID:          row.UserID,
		Category:        row.InsightType,
		Content:         row.Content,
		GeneratedAt:     row.GeneratedAt.UTC(),
		EntriesAnalyzed: row.EntriesAnalyzed,
		ExpiresAt:       row.ExpiresAt.UTC(),
	}, nil
}

// Upsert replaces the row for (user_id, insight_type).
func (r *InsightCacheRepository) Upsert(ctx context.Context, record *insight.CachedInsightRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	row := insightRow{
		ID:              record.ID,
		UserID:          record.UserID,
		InsightType:     record.Category,
		Content:         record.Content,
		GeneratedAt:     record.GeneratedAt.UTC(),
		EntriesAnalyzed: record.EntriesAnalyzed,
		ExpiresAt:       record.ExpiresAt.UTC(),
	}

	_, _, err := r.client.From(r.table).
		Upsert(row, "user_id,insight_type", "minimal", "").
		Execute()
	if err != nil {
		return fmt.Errorf("failed to upsert into %s: %w", r.table, err)
	}

	r.logger.Debug("Cached insight row",
		zap.String("user_id", record.UserID),
		zap.String("insight_type", record.Category),
	)
	return nil
}
