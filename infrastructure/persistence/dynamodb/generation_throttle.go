package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"journal-insights/application/ports"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// GenerationThrottle counts fresh generations per user in fixed windows,
// using DynamoDB as the state store so the limit holds across Lambda
// invocations.
type GenerationThrottle struct {
	client    API
	tableName string
	limit     int
	window    time.Duration
	now       func() time.Time
}

// throttleEntry represents a throttle window in DynamoDB
type throttleEntry struct {
	PK        string `dynamodbav:"PK"`
	SK        string `dynamodbav:"SK"`
	Count     int    `dynamodbav:"Count"`
	WindowEnd string `dynamodbav:"WindowEnd"`
	TTL       int64  `dynamodbav:"TTL"`
}

// NewGenerationThrottle creates a throttle allowing limit generations per window
func NewGenerationThrottle(client API, tableName string, limit int, window time.Duration) *GenerationThrottle {
	return &GenerationThrottle{
		client:    client,
		tableName: tableName,
		limit:     limit,
		window:    window,
		now:       time.Now,
	}
}

var _ ports.GenerationThrottle = (*GenerationThrottle)(nil)

// Allow atomically counts one generation for the user. A limit of zero
// or less disables the throttle.
func (t *GenerationThrottle) Allow(ctx context.Context, userID string) (bool, time.Duration, error) {
	if t.limit <= 0 {
		return true, 0, nil
	}

	now := t.now()
	windowStart := now.Truncate(t.window)
	windowEnd := windowStart.Add(t.window)
	resetIn := windowEnd.Sub(now)

	update := &dynamodb.UpdateItemInput{
		TableName: aws.String(t.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: "THROTTLE#USER#" + userID},
			"SK": &types.AttributeValueMemberS{Value: "WINDOW#" + strconv.FormatInt(windowStart.Unix(), 10)},
		},
		UpdateExpression:    aws.String("SET #count = if_not_exists(#count, :zero) + :incr, WindowEnd = :window_end, #ttl = :ttl"),
		ConditionExpression: aws.String("attribute_not_exists(#count) OR #count < :limit"),
		ExpressionAttributeNames: map[string]string{
			"#count": "Count",
			"#ttl":   "TTL",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":zero":       &types.AttributeValueMemberN{Value: "0"},
			":incr":       &types.AttributeValueMemberN{Value: "1"},
			":limit":      &types.AttributeValueMemberN{Value: strconv.Itoa(t.limit)},
			":window_end": &types.AttributeValueMemberS{Value: windowEnd.UTC().Format(time.RFC3339)},
			":ttl":        &types.AttributeValueMemberN{Value: strconv.FormatInt(windowEnd.Add(time.Hour).Unix(), 10)},
		},
		ReturnValues: types.ReturnValueAllNew,
	}

	result, err := t.client.UpdateItem(ctx, update)
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return false, resetIn, nil
		}
		return true, 0, fmt.Errorf("generation throttle update failed: %w", err)
	}

	var entry throttleEntry
	if err := attributevalue.UnmarshalMap(result.Attributes, &entry); err != nil {
		return true, 0, fmt.Errorf("failed to parse throttle entry: %w", err)
	}

	return entry.Count <= t.limit, resetIn, nil
}
