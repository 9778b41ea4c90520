// Package idempotency makes a unit of work run once per key. A caller claims the key, does the
// work and stores the outcome; later callers with the same key read the stored outcome instead.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"github.com/imrishuroy/go-storefront-checkout/internal/aws"
)

// ErrNotClaimed is returned when completing or failing a key that has no claim.
var ErrNotClaimed = errors.New("idempotency key not claimed")

// Store keeps claims in DynamoDB.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
	ttlWindow time.Duration // how long a claim blocks the key
	nowFunc   func() time.Time
}

// NewStore returns a Store over tableName. A claim expires ttlWindow after it was taken.
func NewStore(client aws.DynamoDBAPI, tableName string, ttlWindow time.Duration) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		ttlWindow: ttlWindow,
		nowFunc:   time.Now,
	}
}

// Claim takes key for the caller. It returns false when a live claim already holds the key;
// an expired claim is taken over.
func (s *Store) Claim(ctx context.Context, key, reference string) (bool, error) {
	now := s.nowFunc()
	rec := Record{
		Key:       key,
		Status:    StatusInProgress,
		Reference: reference,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(s.ttlWindow).Unix(),
	}

	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return false, fmt.Errorf("marshal claim: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:           &s.tableName,
		Item:                item,
		ConditionExpression: awsString("attribute_not_exists(claim_key) OR expires_at < :now"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now": &types.AttributeValueMemberN{Value: strconv.FormatInt(now.Unix(), 10)},
		},
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "ConditionalCheckFailedException" {
			return false, nil
		}
		return false, fmt.Errorf("put claim: %w", err)
	}
	return true, nil
}

// Get returns the claim on key, or nil when there is none.
func (s *Store) Get(ctx context.Context, key string) (*Record, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName:      &s.tableName,
		Key:            s.key(key),
		ConsistentRead: awsBool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get claim: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var rec Record
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal claim: %w", err)
	}
	return &rec, nil
}

// Complete stores outcome on a claimed key and marks it DONE.
func (s *Store) Complete(ctx context.Context, key, outcome string) error {
	return s.finish(ctx, key, StatusDone, "outcome", outcome)
}

// Fail marks a claimed key FAILED with a note. The key stays blocked until the claim expires.
func (s *Store) Fail(ctx context.Context, key, note string) error {
	return s.finish(ctx, key, StatusFailed, "note", note)
}

// Release drops the claim on key so the work can be retried at once.
func (s *Store) Release(ctx context.Context, key string) error {
	_, err := s.client.DeleteItem(ctx, &dyn.DeleteItemInput{
		TableName: &s.tableName,
		Key:       s.key(key),
	})
	if err != nil {
		return fmt.Errorf("delete claim: %w", err)
	}
	return nil
}

func (s *Store) finish(ctx context.Context, key, status, attr, value string) error {
	now := s.nowFunc()
	_, err := s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName:           &s.tableName,
		Key:                 s.key(key),
		UpdateExpression:    awsString("SET #s = :status, #v = :value, updated_at = :ua"),
		ConditionExpression: awsString("attribute_exists(claim_key)"),
		ExpressionAttributeNames: map[string]string{
			"#s": "status",
			"#v": attr,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status": &types.AttributeValueMemberS{Value: status},
			":value":  &types.AttributeValueMemberS{Value: value},
			":ua":     &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "ConditionalCheckFailedException" {
			return fmt.Errorf("%w: %s", ErrNotClaimed, key)
		}
		return fmt.Errorf("update claim (%s): %w", status, err)
	}
	return nil
}

func (s *Store) key(key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"claim_key": &types.AttributeValueMemberS{Value: key},
	}
}

func awsString(s string) *string { return &s }
func awsBool(b bool) *bool       { return &b }
