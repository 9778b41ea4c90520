package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/imrishuroy/go-storefront-checkout/internal/aws"
)

// SessionStore persists payment sessions.
type SessionStore interface {
	Create(ctx context.Context, s Session) error
	Get(ctx context.Context, reference string) (*Session, error)
	Transition(ctx context.Context, reference string, from, to State, patch Patch) error
	SetPaymentStatus(ctx context.Context, reference string, status PaymentStatus) error
}

// DynamoSessionStore keeps sessions in a DynamoDB table keyed by reference. Both reference and
// state are DynamoDB reserved words, so expressions always name them through aliases.
type DynamoSessionStore struct {
	client    aws.DynamoDBAPI
	tableName string
	ttlWindow time.Duration
	nowFunc   func() time.Time
}

// NewDynamoSessionStore creates a store over tableName. Sessions expire ttlWindow after creation.
func NewDynamoSessionStore(client aws.DynamoDBAPI, tableName string, ttlWindow time.Duration) *DynamoSessionStore {
	return &DynamoSessionStore{
		client:    client,
		tableName: tableName,
		ttlWindow: ttlWindow,
		nowFunc:   time.Now,
	}
}

// Create writes a new session. A second session with the same reference is refused.
func (s *DynamoSessionStore) Create(ctx context.Context, sess Session) error {
	now := s.nowFunc()
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = now
	}
	sess.UpdatedAt = now
	if sess.ExpiresAt == 0 && s.ttlWindow > 0 {
		sess.ExpiresAt = now.Add(s.ttlWindow).Unix()
	}

	item, err := attributevalue.MarshalMap(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:                &s.tableName,
		Item:                     item,
		ConditionExpression:      awsString("attribute_not_exists(#ref)"),
		ExpressionAttributeNames: map[string]string{"#ref": "reference"},
	})
	if err != nil {
		var cf *types.ConditionalCheckFailedException
		if errors.As(err, &cf) {
			return fmt.Errorf("%w: %s", ErrDuplicateReference, sess.Reference)
		}
		return fmt.Errorf("put session: %w", err)
	}
	return nil
}

// Get fetches a session by reference. Returns (nil, nil) if not found.
func (s *DynamoSessionStore) Get(ctx context.Context, reference string) (*Session, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName:      &s.tableName,
		Key:            s.key(reference),
		ConsistentRead: awsBool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var sess Session
	if err := attributevalue.UnmarshalMap(out.Item, &sess); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &sess, nil
}

// Transition moves a session from -> to and writes the non-empty patch fields. It returns
// ErrStateMismatch when the stored state is not from.
func (s *DynamoSessionStore) Transition(ctx context.Context, reference string, from, to State, patch Patch) error {
	if !from.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}

	sets := []string{"#st = :to", "updated_at = :ua"}
	values := map[string]types.AttributeValue{
		":to":   &types.AttributeValueMemberS{Value: string(to)},
		":from": &types.AttributeValueMemberS{Value: string(from)},
		":ua":   &types.AttributeValueMemberS{Value: s.nowFunc().Format(time.RFC3339)},
	}
	optional := []struct{ attr, placeholder, value string }{
		{"payment_status", ":ps", string(patch.PaymentStatus)},
		{"response_code", ":rc", patch.ResponseCode},
		{"primary_order_id", ":oid", patch.PrimaryOrderID},
		{"failure_reason", ":fr", patch.FailureReason},
	}
	for _, o := range optional {
		if o.value == "" {
			continue
		}
		sets = append(sets, o.attr+" = "+o.placeholder)
		values[o.placeholder] = &types.AttributeValueMemberS{Value: o.value}
	}

	_, err := s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName:                 &s.tableName,
		Key:                       s.key(reference),
		UpdateExpression:          awsString("SET " + strings.Join(sets, ", ")),
		ConditionExpression:       awsString("#st = :from"),
		ExpressionAttributeNames:  map[string]string{"#st": "state"},
		ExpressionAttributeValues: values,
	})
	if err != nil {
		var cf *types.ConditionalCheckFailedException
		if errors.As(err, &cf) {
			return fmt.Errorf("%w: %s expected %s", ErrStateMismatch, reference, from)
		}
		return fmt.Errorf("update session state: %w", err)
	}
	return nil
}

// SetPaymentStatus records what verification learned about the payment. The bridge state is
// left alone.
func (s *DynamoSessionStore) SetPaymentStatus(ctx context.Context, reference string, status PaymentStatus) error {
	_, err := s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName:                &s.tableName,
		Key:                      s.key(reference),
		UpdateExpression:         awsString("SET payment_status = :ps, updated_at = :ua"),
		ConditionExpression:      awsString("attribute_exists(#ref)"),
		ExpressionAttributeNames: map[string]string{"#ref": "reference"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":ps": &types.AttributeValueMemberS{Value: string(status)},
			":ua": &types.AttributeValueMemberS{Value: s.nowFunc().Format(time.RFC3339)},
		},
	})
	if err != nil {
		var cf *types.ConditionalCheckFailedException
		if errors.As(err, &cf) {
			return fmt.Errorf("%w: %s", ErrUnknownReference, reference)
		}
		return fmt.Errorf("update payment status: %w", err)
	}
	return nil
}

func (s *DynamoSessionStore) key(reference string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"reference": &types.AttributeValueMemberS{Value: reference},
	}
}

func awsString(s string) *string { return &s }
func awsBool(b bool) *bool       { return &b }
