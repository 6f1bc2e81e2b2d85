package dynamodb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"journal-insights/application/ports"
	"journal-insights/domain/insight"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

const entityTypeInsight = "INSIGHT"

// InsightCacheRepository stores one insight item per (user, category).
// Items carry a TTL attribute so DynamoDB removes them after expiry.
type InsightCacheRepository struct {
	client    API
	tableName string
	logger    *zap.Logger
	now       func() time.Time
}

// NewInsightCacheRepository creates a new InsightCacheRepository
func NewInsightCacheRepository(client API, tableName string, logger *zap.Logger) *InsightCacheRepository {
	return &InsightCacheRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
		now:       time.Now,
	}
}

var _ ports.InsightCache = (*InsightCacheRepository)(nil)

// insightItem represents the DynamoDB item structure for a cached insight
type insightItem struct {
	PK              string `dynamodbav:"PK"`
	SK              string `dynamodbav:"SK"`
	EntityType      string `dynamodbav:"EntityType"`
	InsightID       string `dynamodbav:"InsightID"`
	UserID          string `dynamodbav:"UserID"`
	Category        string `dynamodbav:"Category"`
	Content         string `dynamodbav:"Content"`
	EntriesAnalyzed int    `dynamodbav:"EntriesAnalyzed"`
	GeneratedAt     string `dynamodbav:"GeneratedAt"`
	GeneratedAtNano int64  `dynamodbav:"GeneratedAtNano"`
	ExpiresAt       string `dynamodbav:"ExpiresAt"`
	DeletedAt       string `dynamodbav:"DeletedAt,omitempty"`
	TTL             int64  `dynamodbav:"TTL"`
}

func insightKey(userID, category string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: "USER#" + userID},
		"SK": &types.AttributeValueMemberS{Value: "INSIGHT#" + category},
	}
}

// GetLatest returns the live insight for the key, or nil.
func (r *InsightCacheRepository) GetLatest(ctx context.Context, userID, category string) (*insight.CachedInsightRecord, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            insightKey(userID, category),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get insight: %w", err)
	}
	if result.Item == nil {
		return nil, nil
	}

	var item insightItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal insight item: %w", err)
	}

	if item.DeletedAt != "" {
		return nil, nil
	}

	record, err := item.toRecord()
	if err != nil {
		return nil, err
	}

	// TTL deletion lags behind expiry
	if record.IsExpired(r.now()) {
		return nil, nil
	}

	return record, nil
}

// Upsert writes the record. Writes are ordered by generation time, not by
// arrival: when the stored item was generated later than record it is left
// in place and Upsert still returns nil. The Supabase and memory stores are
// plain last-write-wins.
func (r *InsightCacheRepository) Upsert(ctx context.Context, record *insight.CachedInsightRecord) error {
	content, err := json.Marshal(record.Content)
	if err != nil {
		return fmt.Errorf("failed to marshal insight content: %w", err)
	}

	item := insightItem{
		PK:              "USER#" + record.UserID,
		SK:              "INSIGHT#" + record.Category,
		EntityType:      entityTypeInsight,
		InsightID:       record.ID,
		UserID:          record.UserID,
		Category:        record.Category,
		Content:         string(content),
		EntriesAnalyzed: record.EntriesAnalyzed,
		GeneratedAt:     record.GeneratedAt.UTC().Format(time.RFC3339Nano),
		GeneratedAtNano: record.GeneratedAt.UnixNano(),
		ExpiresAt:       record.ExpiresAt.UTC().Format(time.RFC3339Nano),
		TTL:             record.ExpiresAt.Unix(),
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal insight item: %w", err)
	}

	cond := expression.AttributeNotExists(expression.Name("PK")).
		Or(expression.Name("GeneratedAtNano").LessThanEqual(expression.Value(item.GeneratedAtNano)))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("failed to build condition: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(r.tableName),
		Item:                      av,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			r.logger.Debug("Newer insight already cached, skipping write",
				zap.String("user_id", record.UserID),
				zap.String("category", record.Category),
			)
			return nil
		}
		return fmt.Errorf("failed to put insight: %w", err)
	}

	return nil
}

func (i insightItem) toRecord() (*insight.CachedInsightRecord, error) {
	var content insight.Content
	if err := json.Unmarshal([]byte(i.Content), &content); err != nil {
		return nil, fmt.Errorf("failed to decode cached content: %w", err)
	}

	generatedAt, err := time.Parse(time.RFC3339Nano, i.GeneratedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid GeneratedAt %q: %w", i.GeneratedAt, err)
	}
	expiresAt, err := time.Parse(time.RFC3339Nano, i.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("invalid ExpiresAt %q: %w", i.ExpiresAt, err)
	}

	return &insight.CachedInsightRecord{
		ID:              i.InsightID,
		UserID:          i.UserID,
		Category:        i.Category,
		Content:         content,
		GeneratedAt:     generatedAt,
		EntriesAnalyzed: i.EntriesAnalyzed,
		ExpiresAt:       expiresAt,
	}, nil
}
