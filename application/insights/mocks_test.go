package insights

import (
	"context"
	"sync"
	"time"

	"journal-insights/application/ports"
	"journal-insights/domain/events"
	"journal-insights/domain/insight"
	"journal-insights/pkg/observability"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type mockCache struct {
	mock.Mock
}

func (m *mockCache) GetLatest(ctx context.Context, userID, category string) (*insight.CachedInsightRecord, error) {
	args := m.Called(ctx, userID, category)
	if rec := args.Get(0); rec != nil {
		return rec.(*insight.CachedInsightRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCache) Upsert(ctx context.Context, record *insight.CachedInsightRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

// fakeCache keeps the latest record per key, for multi-request scenarios.
type fakeCache struct {
	mu      sync.Mutex
	records map[string]*insight.CachedInsightRecord
}

func newFakeCache() *fakeCache {
	return &fakeCache{records: map[string]*insight.CachedInsightRecord{}}
}

func (f *fakeCache) GetLatest(_ context.Context, userID, category string) (*insight.CachedInsightRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.records[userID+"#"+category], nil
}

func (f *fakeCache) Upsert(_ context.Context, record *insight.CachedInsightRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[record.UserID+"#"+record.Category] = record
	return nil
}

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Complete(ctx context.Context, req ports.CompletionRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

type mockThrottle struct {
	mock.Mock
}

func (m *mockThrottle) Allow(ctx context.Context, userID string) (bool, time.Duration, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Get(1).(time.Duration), args.Error(2)
}

type mockEventBus struct {
	mock.Mock
}

func (m *mockEventBus) Publish(ctx context.Context, event events.DomainEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type pipelineDeps struct {
	cache    ports.InsightCache
	provider ports.CompletionProvider
	throttle ports.GenerationThrottle
	eventBus ports.EventBus
}

func newTestService(deps pipelineDeps, now time.Time) *Service {
	logger := zap.NewNop()
	metrics := observability.NopRecorder{}
	clock := func() time.Time { return now }

	reader := NewCacheReader(deps.cache, 24*time.Hour, metrics, logger)
	reader.now = clock

	synthesizer := NewSynthesizer(deps.provider, SynthesizerOptions{
		Temperature:     0.7,
		MaxTokens:       2000,
		MaxContentChars: 1000,
	}, observability.NewTracer(false), logger)

	svc := NewService(
		insight.DefaultCategory,
		reader,
		synthesizer,
		NewRepairer(logger),
		NewCacheWriter(deps.cache, 168*time.Hour, metrics, logger),
		NewAssembler(),
		deps.throttle,
		deps.eventBus,
		metrics,
		logger,
	)
	svc.now = clock
	return svc
}

func oneEntryRequest() *InsightRequest {
	return &InsightRequest{Entries: []insight.JournalEntry{{
		Date:      "2024-03-01",
		Title:     "Morning run",
		Content:   "Ran along the river before work.",
		WordCount: 6,
		Mood:      "energized",
	}}}
}
