package dynamodb

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"journal-insights/domain/insight"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var repoNow = time.Date(2024, 3, 8, 12, 0, 0, 0, time.UTC)

func sampleRecord(generatedAt time.Time) *insight.CachedInsightRecord {
	return insight.NewCachedInsightRecord("user-1", "journal_insights", insight.Content{
		Summary:     "A steady week.",
		Description: "You found rhythm.",
		Annotations: []insight.Annotation{{Date: "2024-03-01", Narrative: "A good start."}},
		Themes: []insight.Theme{{
			Name:          "Routine",
			Icon:          "🌅",
			Explanation:   "Mornings anchored you.",
			Frequency:     "Appeared in 3 entries",
			SourceEntries: []insight.SourceEntry{{Date: "2024-03-01", Title: "Morning run"}},
		}},
	}, 3, generatedAt, 168*time.Hour)
}

func newTestRepo(client API) *InsightCacheRepository {
	repo := NewInsightCacheRepository(client, "insights-table", zap.NewNop())
	repo.now = func() time.Time { return repoNow }
	return repo
}

func TestInsightCacheRepository_RoundTrip(t *testing.T) {
	// Arrange
	client := new(mockDynamoDB)
	record := sampleRecord(repoNow.Add(-time.Hour))
	var written map[string]types.AttributeValue
	client.On("PutItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.PutItemInput) bool {
		return *in.TableName == "insights-table" && in.ConditionExpression != nil
	})).Run(func(args mock.Arguments) {
		written = args.Get(1).(*dynamodb.PutItemInput).Item
	}).Return(&dynamodb.PutItemOutput{}, nil)

	repo := newTestRepo(client)

	// Act
	require.NoError(t, repo.Upsert(context.Background(), record))

	client.On("GetItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.GetItemInput) bool {
		pk := in.Key["PK"].(*types.AttributeValueMemberS).Value
		sk := in.Key["SK"].(*types.AttributeValueMemberS).Value
		return pk == "USER#user-1" && sk == "INSIGHT#journal_insights"
	})).Return(&dynamodb.GetItemOutput{Item: written}, nil)

	got, err := repo.GetLatest(context.Background(), "user-1", "journal_insights")

	// Assert
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, record.ID, got.ID)
	assert.Equal(t, record.Content, got.Content)
	assert.Equal(t, record.EntriesAnalyzed, got.EntriesAnalyzed)
	assert.True(t, record.GeneratedAt.Equal(got.GeneratedAt))
	assert.True(t, record.ExpiresAt.Equal(got.ExpiresAt))

	ttl, ok := written["TTL"].(*types.AttributeValueMemberN)
	require.True(t, ok)
	assert.NotEmpty(t, ttl.Value)
	client.AssertExpectations(t)
}

func TestInsightCacheRepository_GetLatest_Misses(t *testing.T) {
	expired := sampleRecord(repoNow.Add(-200 * time.Hour))

	tests := []struct {
		name  string
		setup func(client *mockDynamoDB, repo *InsightCacheRepository)
	}{
		{
			name: "no item",
			setup: func(client *mockDynamoDB, _ *InsightCacheRepository) {
				client.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{}, nil)
			},
		},
		{
			name: "expired item awaiting ttl",
			setup: func(client *mockDynamoDB, repo *InsightCacheRepository) {
				var item map[string]types.AttributeValue
				client.On("PutItem", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
					item = args.Get(1).(*dynamodb.PutItemInput).Item
				}).Return(&dynamodb.PutItemOutput{}, nil)
				require.NoError(t, repo.Upsert(context.Background(), expired))
				client.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: item}, nil)
			},
		},
		{
			name: "soft deleted item",
			setup: func(client *mockDynamoDB, _ *InsightCacheRepository) {
				client.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{
					Item: map[string]types.AttributeValue{
						"PK":        &types.AttributeValueMemberS{Value: "USER#user-1"},
						"SK":        &types.AttributeValueMemberS{Value: "INSIGHT#journal_insights"},
						"DeletedAt": &types.AttributeValueMemberS{Value: "2024-03-07T00:00:00Z"},
					},
				}, nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := new(mockDynamoDB)
			repo := newTestRepo(client)
			tt.setup(client, repo)

			got, err := repo.GetLatest(context.Background(), "user-1", "journal_insights")

			require.NoError(t, err)
			assert.Nil(t, got)
		})
	}
}

func TestInsightCacheRepository_GetLatest_Error(t *testing.T) {
	client := new(mockDynamoDB)
	client.On("GetItem", mock.Anything, mock.Anything).Return(nil, errors.New("throughput exceeded"))

	_, err := newTestRepo(client).GetLatest(context.Background(), "user-1", "journal_insights")

	assert.ErrorContains(t, err, "throughput exceeded")
}

func TestInsightCacheRepository_Upsert_SupersededWriteIsNotAnError(t *testing.T) {
	client := new(mockDynamoDB)
	client.On("PutItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.PutItemInput) bool {
		return in.ConditionExpression != nil && strings.Contains(*in.ConditionExpression, "attribute_not_exists")
	})).Return(nil, &types.ConditionalCheckFailedException{Message: stringPtr("newer item exists")})

	err := newTestRepo(client).Upsert(context.Background(), sampleRecord(repoNow))

	assert.NoError(t, err)
}

func TestInsightCacheRepository_Upsert_Error(t *testing.T) {
	client := new(mockDynamoDB)
	client.On("PutItem", mock.Anything, mock.Anything).Return(nil, errors.New("access denied"))

	err := newTestRepo(client).Upsert(context.Background(), sampleRecord(repoNow))

	assert.ErrorContains(t, err, "access denied")
}

func stringPtr(s string) *string { return &s }
