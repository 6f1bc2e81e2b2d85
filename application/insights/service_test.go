package insights

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"journal-insights/application/ports"
	"journal-insights/domain/events"
	"journal-insights/domain/insight"
	apperrors "journal-insights/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 3, 8, 12, 0, 0, 0, time.UTC)

func TestService_Generate_FreshThenCached(t *testing.T) {
	// Arrange
	ctx := context.Background()
	cache := newFakeCache()
	provider := new(mockProvider)
	provider.On("Complete", mock.Anything, mock.Anything).Return(completionJSON(4, true), nil).Once()
	svc := newTestService(pipelineDeps{cache: cache, provider: provider}, testNow)

	// Act
	first, err := svc.Generate(ctx, "user-1", oneEntryRequest())
	require.NoError(t, err)
	second, err := svc.Generate(ctx, "user-1", oneEntryRequest())
	require.NoError(t, err)

	// Assert
	assert.False(t, first.FromCache)
	assert.Nil(t, first.CacheExpiresAt)
	assert.Len(t, first.Themes, 4)
	assert.Equal(t, 1, first.EntriesAnalyzed)

	assert.True(t, second.FromCache)
	require.NotNil(t, second.CacheExpiresAt)
	assert.Equal(t, first.GeneratedAt.Add(168*time.Hour), *second.CacheExpiresAt)
	assert.Equal(t, first.Content, second.Content)
	assert.Equal(t, first.GeneratedAt, second.GeneratedAt)
	provider.AssertNumberOfCalls(t, "Complete", 1)
}

func TestService_Generate_ForceRefreshSkipsCacheRead(t *testing.T) {
	// Arrange
	ctx := context.Background()
	cache := new(mockCache)
	cache.On("Upsert", mock.Anything, mock.Anything).Return(nil)
	provider := new(mockProvider)
	provider.On("Complete", mock.Anything, mock.Anything).Return(completionJSON(5, true), nil)
	svc := newTestService(pipelineDeps{cache: cache, provider: provider}, testNow)

	req := oneEntryRequest()
	req.ForceRefresh = true

	// Act
	result, err := svc.Generate(ctx, "user-1", req)

	// Assert
	require.NoError(t, err)
	assert.False(t, result.FromCache)
	cache.AssertNotCalled(t, "GetLatest", mock.Anything, mock.Anything, mock.Anything)
	provider.AssertExpectations(t)
}

func TestService_Generate_StaleRecordIsStillServed(t *testing.T) {
	// Arrange
	record := insight.NewCachedInsightRecord("user-1", insight.DefaultCategory,
		insight.Content{Summary: "old", Description: "older", Themes: []insight.Theme{{Name: "Rest"}}},
		2, testNow.Add(-72*time.Hour), 168*time.Hour)
	cache := new(mockCache)
	cache.On("GetLatest", mock.Anything, "user-1", insight.DefaultCategory).Return(record, nil)
	provider := new(mockProvider)
	svc := newTestService(pipelineDeps{cache: cache, provider: provider}, testNow)

	// Act
	result, err := svc.Generate(context.Background(), "user-1", oneEntryRequest())

	// Assert
	require.NoError(t, err)
	assert.True(t, result.FromCache)
	assert.Equal(t, "old", result.Summary)
	assert.Equal(t, 2, result.EntriesAnalyzed)
	assert.Equal(t, record.ExpiresAt, *result.CacheExpiresAt)
	assert.NotNil(t, result.Annotations)
	provider.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func TestService_Generate_ExpiredRecordIsAMiss(t *testing.T) {
	record := insight.NewCachedInsightRecord("user-1", insight.DefaultCategory,
		insight.Content{Summary: "old"}, 2, testNow.Add(-200*time.Hour), 168*time.Hour)
	cache := new(mockCache)
	cache.On("GetLatest", mock.Anything, "user-1", insight.DefaultCategory).Return(record, nil)
	cache.On("Upsert", mock.Anything, mock.Anything).Return(nil)
	provider := new(mockProvider)
	provider.On("Complete", mock.Anything, mock.Anything).Return(completionJSON(4, true), nil)
	svc := newTestService(pipelineDeps{cache: cache, provider: provider}, testNow)

	result, err := svc.Generate(context.Background(), "user-1", oneEntryRequest())

	require.NoError(t, err)
	assert.False(t, result.FromCache)
	provider.AssertExpectations(t)
}

func TestService_Generate_CacheReadFailureFailsOpen(t *testing.T) {
	cache := new(mockCache)
	cache.On("GetLatest", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))
	cache.On("Upsert", mock.Anything, mock.Anything).Return(nil)
	provider := new(mockProvider)
	provider.On("Complete", mock.Anything, mock.Anything).Return(completionJSON(4, true), nil)
	svc := newTestService(pipelineDeps{cache: cache, provider: provider}, testNow)

	result, err := svc.Generate(context.Background(), "user-1", oneEntryRequest())

	require.NoError(t, err)
	assert.False(t, result.FromCache)
	provider.AssertExpectations(t)
}

func TestService_Generate_CacheWriteFailureStillSucceeds(t *testing.T) {
	// Arrange
	cache := new(mockCache)
	cache.On("GetLatest", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)
	cache.On("Upsert", mock.Anything, mock.Anything).Return(errors.New("table not found"))
	provider := new(mockProvider)
	provider.On("Complete", mock.Anything, mock.Anything).Return(completionJSON(4, true), nil)
	bus := new(mockEventBus)
	bus.On("Publish", mock.Anything, mock.MatchedBy(func(e events.InsightGenerated) bool {
		return !e.CacheStored
	})).Return(nil)
	svc := newTestService(pipelineDeps{cache: cache, provider: provider, eventBus: bus}, testNow)

	// Act
	result, err := svc.Generate(context.Background(), "user-1", oneEntryRequest())

	// Assert
	require.NoError(t, err)
	assert.False(t, result.FromCache)
	assert.Len(t, result.Themes, 4)
	cache.AssertExpectations(t)
	bus.AssertExpectations(t)
}

func TestService_Generate_WritesRecordWithTTL(t *testing.T) {
	cache := new(mockCache)
	cache.On("GetLatest", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)
	cache.On("Upsert", mock.Anything, mock.MatchedBy(func(r *insight.CachedInsightRecord) bool {
		return r.UserID == "user-1" &&
			r.Category == insight.DefaultCategory &&
			r.EntriesAnalyzed == 1 &&
			r.GeneratedAt.Equal(testNow) &&
			r.ExpiresAt.Equal(testNow.Add(168*time.Hour))
	})).Return(nil)
	provider := new(mockProvider)
	provider.On("Complete", mock.Anything, mock.Anything).Return(completionJSON(4, true), nil)
	svc := newTestService(pipelineDeps{cache: cache, provider: provider}, testNow)

	_, err := svc.Generate(context.Background(), "user-1", oneEntryRequest())

	require.NoError(t, err)
	cache.AssertExpectations(t)
}

func TestService_Generate_ProviderFailures(t *testing.T) {
	tests := []struct {
		name           string
		completion     string
		providerErr    error
		wantCode       string
		wantStatus     int
		wantRetryAfter int
	}{
		{"rate limited", "", fmt.Errorf("429: %w", ports.ErrRateLimited), apperrors.CodeRateLimit, 429, 60},
		{"server error", "", errors.New("status 500: upstream failure"), apperrors.CodeOpenAIError, 502, 0},
		{"timeout", "", context.DeadlineExceeded, apperrors.CodeOpenAIError, 502, 0},
		{"empty completion", "   ", nil, apperrors.CodeInvalidResponse, 500, 0},
		{"unparsable completion", "no json here", nil, apperrors.CodeInvalidResponse, 500, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			cache := new(mockCache)
			cache.On("GetLatest", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)
			provider := new(mockProvider)
			provider.On("Complete", mock.Anything, mock.Anything).Return(tt.completion, tt.providerErr)
			svc := newTestService(pipelineDeps{cache: cache, provider: provider}, testNow)

			// Act
			result, err := svc.Generate(context.Background(), "user-1", oneEntryRequest())

			// Assert
			require.Error(t, err)
			assert.Nil(t, result)
			appErr := apperrors.Normalize(err)
			assert.Equal(t, tt.wantCode, appErr.Code)
			assert.Equal(t, tt.wantStatus, appErr.HTTPStatus)
			assert.Equal(t, tt.wantRetryAfter, appErr.RetryAfter)
			cache.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
		})
	}
}

func TestService_Generate_Throttle(t *testing.T) {
	t.Run("denied", func(t *testing.T) {
		cache := new(mockCache)
		cache.On("GetLatest", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)
		provider := new(mockProvider)
		throttle := new(mockThrottle)
		throttle.On("Allow", mock.Anything, "user-1").Return(false, 90*time.Second+200*time.Millisecond, nil)
		svc := newTestService(pipelineDeps{cache: cache, provider: provider, throttle: throttle}, testNow)

		_, err := svc.Generate(context.Background(), "user-1", oneEntryRequest())

		appErr := apperrors.Normalize(err)
		assert.Equal(t, apperrors.CodeRateLimit, appErr.Code)
		assert.Equal(t, 91, appErr.RetryAfter)
		provider.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
	})

	t.Run("limiter error fails open", func(t *testing.T) {
		cache := new(mockCache)
		cache.On("GetLatest", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)
		cache.On("Upsert", mock.Anything, mock.Anything).Return(nil)
		provider := new(mockProvider)
		provider.On("Complete", mock.Anything, mock.Anything).Return(completionJSON(4, true), nil)
		throttle := new(mockThrottle)
		throttle.On("Allow", mock.Anything, "user-1").Return(true, time.Duration(0), errors.New("dynamodb unavailable"))
		svc := newTestService(pipelineDeps{cache: cache, provider: provider, throttle: throttle}, testNow)

		result, err := svc.Generate(context.Background(), "user-1", oneEntryRequest())

		require.NoError(t, err)
		assert.NotNil(t, result)
	})

	t.Run("cache hits are never throttled", func(t *testing.T) {
		record := insight.NewCachedInsightRecord("user-1", insight.DefaultCategory,
			insight.Content{Summary: "s", Description: "d", Themes: []insight.Theme{{Name: "n"}}},
			1, testNow.Add(-time.Hour), 168*time.Hour)
		cache := new(mockCache)
		cache.On("GetLatest", mock.Anything, mock.Anything, mock.Anything).Return(record, nil)
		throttle := new(mockThrottle)
		svc := newTestService(pipelineDeps{cache: cache, provider: new(mockProvider), throttle: throttle}, testNow)

		result, err := svc.Generate(context.Background(), "user-1", oneEntryRequest())

		require.NoError(t, err)
		assert.True(t, result.FromCache)
		throttle.AssertNotCalled(t, "Allow", mock.Anything, mock.Anything)
	})
}

func TestService_Generate_EventPublishFailureIsIgnored(t *testing.T) {
	cache := newFakeCache()
	provider := new(mockProvider)
	provider.On("Complete", mock.Anything, mock.Anything).Return(completionJSON(4, true), nil)
	bus := new(mockEventBus)
	bus.On("Publish", mock.Anything, mock.MatchedBy(func(e events.InsightGenerated) bool {
		return e.UserID == "user-1" && e.ThemeCount == 4 && e.EntriesAnalyzed == 1 && e.CacheStored
	})).Return(errors.New("eventbridge down"))
	svc := newTestService(pipelineDeps{cache: cache, provider: provider, eventBus: bus}, testNow)

	result, err := svc.Generate(context.Background(), "user-1", oneEntryRequest())

	require.NoError(t, err)
	assert.NotNil(t, result)
	bus.AssertExpectations(t)
}
