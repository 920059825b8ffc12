package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoRecorder journals movements in a DynamoDB table keyed by
// (product_id, event_id). A conditional put makes replays no-ops, so the
// projector can consume Kafka with at-least-once delivery.
type DynamoRecorder struct {
	client    *dynamodb.Client
	tableName string
}

type dynamoMovement struct {
	ProductID  string `dynamodbav:"product_id"`
	EventID    string `dynamodbav:"event_id"`
	Delta      int    `dynamodbav:"delta"`
	StockAfter int    `dynamodbav:"stock_after"`
	Reason     string `dynamodbav:"reason"`
	RefID      string `dynamodbav:"ref_id"`
	AdjustedAt string `dynamodbav:"adjusted_at"`
}

func NewDynamoRecorder(client *dynamodb.Client, tableName string) *DynamoRecorder {
	return &DynamoRecorder{client: client, tableName: tableName}
}

func (r *DynamoRecorder) Record(ctx context.Context, m Movement) error {
	item := dynamoMovement{
		ProductID:  m.ProductID,
		EventID:    m.EventID,
		Delta:      m.Delta,
		StockAfter: m.StockAfter,
		Reason:     m.Reason,
		RefID:      m.RefID,
		AdjustedAt: m.AdjustedAt.Format(time.RFC3339Nano),
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal movement: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(product_id) AND attribute_not_exists(event_id)"),
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			// Already journaled; replayed event.
			return nil
		}
		return fmt.Errorf("failed to put movement: %w", err)
	}
	return nil
}

func (r *DynamoRecorder) List(ctx context.Context, productID string) ([]Movement, error) {
	result, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("product_id = :pid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pid": &types.AttributeValueMemberS{Value: productID},
		},
		ScanIndexForward: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query movements: %w", err)
	}

	movements := make([]Movement, 0, len(result.Items))
	for _, raw := range result.Items {
		var item dynamoMovement
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return nil, fmt.Errorf("failed to unmarshal movement: %w", err)
		}
		adjustedAt, err := time.Parse(time.RFC3339Nano, item.AdjustedAt)
		if err != nil {
			return nil, fmt.Errorf("bad adjusted_at on %s/%s: %w", item.ProductID, item.EventID, err)
		}
		movements = append(movements, Movement{
			EventID:    item.EventID,
			ProductID:  item.ProductID,
			Delta:      item.Delta,
			StockAfter: item.StockAfter,
			Reason:     item.Reason,
			RefID:      item.RefID,
			AdjustedAt: adjustedAt,
		})
	}
	return movements, nil
}
