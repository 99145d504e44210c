// Package storage provides persistence implementations for claim submission
// tracking and gateway credentials.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Submission statuses tracked in DynamoDB.
const (
	// StatusAccepted marks a claim the gateway acknowledged and is still
	// processing.
	StatusAccepted = "accepted"

	// StatusCompleted marks a claim with a final gateway response.
	StatusCompleted = "completed"

	// StatusRejected marks a claim the gateway rejected with errors.
	StatusRejected = "rejected"
)

// SubmissionInfo is the tracked record of one claim submission.
type SubmissionInfo struct {
	// CharityRef is the HMRC reference the claim was submitted for, or
	// the agent number for multi-claims.
	CharityRef string

	// CorrelationID is the gateway correlation id for the submission.
	CorrelationID string

	// Endpoint is the gateway endpoint to poll for the outcome.
	Endpoint string

	// Interval is the suggested poll interval in seconds.
	Interval string

	// PeriodEnd is the claim period end date.
	PeriodEnd time.Time

	// Status is one of the Status constants.
	Status string

	// SubmittedAt is when the claim was submitted.
	SubmittedAt time.Time
}

// SubmissionTracker tracks claim submissions in DynamoDB, keyed by
// correlation id, so that polling can resume across invocations.
type SubmissionTracker struct {
	// client is the DynamoDB API client.
	client DynamoDBAPI

	// indexName is the name of the status GSI used to find submissions
	// awaiting a final response.
	indexName string

	// tableName is the name of the DynamoDB table.
	tableName string
}

// Submission returns the tracked record for a correlation id, or nil if the
// id was never tracked.
func (t *SubmissionTracker) Submission(ctx context.Context, correlationID string) (*SubmissionInfo, error) {
	if correlationID == "" {
		return nil, errors.New("correlation ID is required")
	}

	output, err := t.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(t.tableName),
		Key: map[string]types.AttributeValue{
			"correlation_id": &types.AttributeValueMemberS{Value: correlationID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("getting item from DynamoDB: %w", err)
	}

	if output.Item == nil {
		return nil, nil
	}

	info, err := parseSubmissionInfo(output.Item)
	if err != nil {
		return nil, fmt.Errorf("parsing item: %w", err)
	}

	return &info, nil
}

// Track stores the record of a freshly accepted submission.
func (t *SubmissionTracker) Track(ctx context.Context, info SubmissionInfo) error {
	if info.CorrelationID == "" {
		return errors.New("correlation ID is required")
	}
	if info.CharityRef == "" {
		return errors.New("charity reference is required")
	}
	if info.Status == "" {
		info.Status = StatusAccepted
	}

	_, err := t.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(t.tableName),
		Item: map[string]types.AttributeValue{
			"correlation_id": &types.AttributeValueMemberS{Value: info.CorrelationID},
			"charity_ref":    &types.AttributeValueMemberS{Value: info.CharityRef},
			"endpoint":       &types.AttributeValueMemberS{Value: info.Endpoint},
			"interval":       &types.AttributeValueMemberS{Value: info.Interval},
			"period_end":     &types.AttributeValueMemberS{Value: info.PeriodEnd.Format(time.DateOnly)},
			"status":         &types.AttributeValueMemberS{Value: info.Status},
			"submitted_at":   &types.AttributeValueMemberS{Value: info.SubmittedAt.Format(time.RFC3339)},
		},
	})
	if err != nil {
		return fmt.Errorf("putting item to DynamoDB: %w", err)
	}

	return nil
}

// SetStatus updates the status of a tracked submission.
func (t *SubmissionTracker) SetStatus(ctx context.Context, correlationID string, status string) error {
	if correlationID == "" {
		return errors.New("correlation ID is required")
	}
	if status == "" {
		return errors.New("status is required")
	}

	_, err := t.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(t.tableName),
		Key: map[string]types.AttributeValue{
			"correlation_id": &types.AttributeValueMemberS{Value: correlationID},
		},
		UpdateExpression: aws.String("SET #s = :status"),
		ExpressionAttributeNames: map[string]string{
			"#s": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status": &types.AttributeValueMemberS{Value: status},
		},
	})
	if err != nil {
		return fmt.Errorf("updating item in DynamoDB: %w", err)
	}

	return nil
}

// AcceptedSubmissions returns the tracked submissions still awaiting a final
// gateway response.
func (t *SubmissionTracker) AcceptedSubmissions(ctx context.Context) ([]SubmissionInfo, error) {
	output, err := t.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(t.tableName),
		IndexName:              aws.String(t.indexName),
		KeyConditionExpression: aws.String("#s = :status"),
		ExpressionAttributeNames: map[string]string{
			"#s": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status": &types.AttributeValueMemberS{Value: StatusAccepted},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("querying DynamoDB: %w", err)
	}

	results := make([]SubmissionInfo, 0, len(output.Items))
	for _, item := range output.Items {
		info, err := parseSubmissionInfo(item)
		if err != nil {
			return nil, fmt.Errorf("parsing item: %w", err)
		}
		results = append(results, info)
	}

	return results, nil
}

func parseSubmissionInfo(item map[string]types.AttributeValue) (SubmissionInfo, error) {
	info := SubmissionInfo{}

	if v, ok := item["correlation_id"].(*types.AttributeValueMemberS); ok {
		info.CorrelationID = v.Value
	}
	if v, ok := item["charity_ref"].(*types.AttributeValueMemberS); ok {
		info.CharityRef = v.Value
	}
	if v, ok := item["endpoint"].(*types.AttributeValueMemberS); ok {
		info.Endpoint = v.Value
	}
	if v, ok := item["interval"].(*types.AttributeValueMemberS); ok {
		info.Interval = v.Value
	}
	if v, ok := item["status"].(*types.AttributeValueMemberS); ok {
		info.Status = v.Value
	}
	if v, ok := item["period_end"].(*types.AttributeValueMemberS); ok {
		t, err := time.Parse(time.DateOnly, v.Value)
		if err != nil {
			return info, fmt.Errorf("parsing period_end: %w", err)
		}
		info.PeriodEnd = t
	}
	if v, ok := item["submitted_at"].(*types.AttributeValueMemberS); ok {
		t, err := time.Parse(time.RFC3339, v.Value)
		if err != nil {
			return info, fmt.Errorf("parsing submitted_at: %w", err)
		}
		info.SubmittedAt = t
	}

	return info, nil
}

// DynamoDBAPI defines the DynamoDB operations used by the tracker.
type DynamoDBAPI interface {
	// GetItem retrieves an item from DynamoDB.
	GetItem(
		ctx context.Context,
		params *dynamodb.GetItemInput,
		optFns ...func(*dynamodb.Options),
	) (*dynamodb.GetItemOutput, error)

	// PutItem stores an item in DynamoDB.
	PutItem(
		ctx context.Context,
		params *dynamodb.PutItemInput,
		optFns ...func(*dynamodb.Options),
	) (*dynamodb.PutItemOutput, error)

	// Query retrieves items matching a key condition from DynamoDB.
	Query(
		ctx context.Context,
		params *dynamodb.QueryInput,
		optFns ...func(*dynamodb.Options),
	) (*dynamodb.QueryOutput, error)

	// UpdateItem updates attributes of an item in DynamoDB.
	UpdateItem(
		ctx context.Context,
		params *dynamodb.UpdateItemInput,
		optFns ...func(*dynamodb.Options),
	) (*dynamodb.UpdateItemOutput, error)
}

// NewSubmissionTracker creates a new DynamoDB-backed submission tracker.
func NewSubmissionTracker(client DynamoDBAPI, tableName string, indexName string) (*SubmissionTracker, error) {
	if client == nil {
		return nil, errors.New("dynamodb client is required")
	}
	if tableName == "" {
		return nil, errors.New("table name is required")
	}
	if indexName == "" {
		return nil, errors.New("index name is required")
	}

	return &SubmissionTracker{
		client:    client,
		indexName: indexName,
		tableName: tableName,
	}, nil
}
