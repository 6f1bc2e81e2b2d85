package supabase

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"journal-insights/domain/insight"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/supabase-community/postgrest-go"
	"go.uber.org/zap"
)

var repoNow = time.Date(2024, 3, 8, 12, 0, 0, 0, time.UTC)

type capturedRequest struct {
	method string
	path   string
	query  map[string][]string
	prefer string
	body   []byte
}

func newTestRepo(t *testing.T, status int, response string) (*InsightCacheRepository, *capturedRequest) {
	t.Helper()
	captured := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.method = r.Method
		captured.path = r.URL.Path
		captured.query = r.URL.Query()
		captured.prefer = r.Header.Get("Prefer")
		captured.body, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)

	client := postgrest.NewClient(srv.URL, "", nil)
	repo := NewInsightCacheRepository(client, "ai_insights", zap.NewNop())
	repo.now = func() time.Time { return repoNow }
	return repo, captured
}

func TestInsightCacheRepository_GetLatest(t *testing.T) {
	// Arrange
	response := `[{
		"id": "b3f7c1d2-0000-4000-8000-000000000001",
		"user_id": "user-1",
		"insight_type": "journal_insights",
		"content": {"summary": "Calm", "description": "A calm week.", "annotations": [], "themes": [{"name": "Rest", "icon": "😴", "explanation": "e", "frequency": "Appeared in 2 entries", "sourceEntries": []}]},
		"generated_at": "2024-03-07T10:00:00Z",
		"entries_analyzed": 5,
		"expires_at": "2024-03-14T10:00:00Z",
		"deleted_at": null
	}]`
	repo, captured := newTestRepo(t, http.StatusOK, response)

	// Act
	record, err := repo.GetLatest(context.Background(), "user-1", "journal_insights")

	// Assert
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "Calm", record.Content.Summary)
	assert.Equal(t, 5, record.EntriesAnalyzed)
	assert.Equal(t, time.Date(2024, 3, 14, 10, 0, 0, 0, time.UTC), record.ExpiresAt)

	assert.Equal(t, http.MethodGet, captured.method)
	assert.Equal(t, "/ai_insights", captured.path)
	assert.Equal(t, []string{"eq.user-1"}, captured.query["user_id"])
	assert.Equal(t, []string{"eq.journal_insights"}, captured.query["insight_type"])
	assert.Equal(t, []string{"is.null"}, captured.query["deleted_at"])
	assert.Equal(t, []string{"gt.2024-03-08T12:00:00Z"}, captured.query["expires_at"])
	assert.Equal(t, []string{"generated_at.desc.nullslast"}, captured.query["order"])
	assert.Equal(t, []string{"1"}, captured.query["limit"])
}

func TestInsightCacheRepository_GetLatest_NoRows(t *testing.T) {
	repo, _ := newTestRepo(t, http.StatusOK, `[]`)

	record, err := repo.GetLatest(context.Background(), "user-1", "journal_insights")

	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestInsightCacheRepository_GetLatest_Error(t *testing.T) {
	repo, _ := newTestRepo(t, http.StatusNotFound, `{"code":"42P01","message":"relation \"ai_insights\" does not exist"}`)

	_, err := repo.GetLatest(context.Background(), "user-1", "journal_insights")

	assert.ErrorContains(t, err, "42P01")
}

func TestInsightCacheRepository_Upsert(t *testing.T) {
	// Arrange
	repo, captured := newTestRepo(t, http.StatusCreated, ``)
	record := insight.NewCachedInsightRecord("user-1", "journal_insights",
		insight.Content{Summary: "s", Description: "d", Themes: []insight.Theme{{Name: "n"}}},
		2, repoNow, 168*time.Hour)

	// Act
	err := repo.Upsert(context.Background(), record)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, captured.method)
	assert.Equal(t, []string{"user_id,insight_type"}, captured.query["on_conflict"])
	assert.Contains(t, captured.prefer, "resolution=merge-duplicates")

	var row map[string]interface{}
	require.NoError(t, json.Unmarshal(captured.body, &row))
	assert.Equal(t, "user-1", row["user_id"])
	assert.Equal(t, "journal_insights", row["insight_type"])
	assert.EqualValues(t, 2, row["entries_analyzed"])
	assert.Equal(t, "2024-03-15T12:00:00Z", row["expires_at"])
	assert.Nil(t, row["deleted_at"])
}

func TestInsightCacheRepository_CanceledContext(t *testing.T) {
	repo, captured := newTestRepo(t, http.StatusOK, `[]`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.GetLatest(ctx, "user-1", "journal_insights")

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, captured.method)
}
