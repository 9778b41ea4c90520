package gateway

import (
	"context"
	"errors"
	"strings"
	"sync"
	"unicode"

	"github.com/aws/smithy-go"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// mockDynamo is an in-memory sessions table. It evaluates the few condition and update
// expressions DynamoSessionStore sends.
type mockDynamo struct {
	mu          sync.Mutex
	items       map[string]map[string]types.AttributeValue
	updateCalls int
}

func newMockDynamo() *mockDynamo {
	return &mockDynamo{items: map[string]map[string]types.AttributeValue{}}
}

// reservedWords holds the DynamoDB reserved words among the session attributes. Real tables
// reject an expression that names one of them without an alias.
var reservedWords = map[string]bool{"reference": true, "state": true, "status": true, "data": true}

func checkReserved(exprs ...*string) error {
	for _, expr := range exprs {
		if expr == nil {
			continue
		}
		tokens := strings.FieldsFunc(*expr, func(r rune) bool {
			return !(r == '_' || r == '#' || r == ':' || unicode.IsLetter(r) || unicode.IsDigit(r))
		})
		for _, tok := range tokens {
			if reservedWords[strings.ToLower(tok)] {
				return &smithy.GenericAPIError{
					Code:    "ValidationException",
					Message: "Attribute name is a reserved keyword; reserved keyword: " + tok,
				}
			}
		}
	}
	return nil
}

func refOf(item map[string]types.AttributeValue) (string, error) {
	v, ok := item["reference"].(*types.AttributeValueMemberS)
	if !ok {
		return "", errors.New("no reference attribute")
	}
	return v.Value, nil
}

func (m *mockDynamo) PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := checkReserved(params.ConditionExpression); err != nil {
		return nil, err
	}
	ref, err := refOf(params.Item)
	if err != nil {
		return nil, err
	}
	if params.ConditionExpression != nil && *params.ConditionExpression == "attribute_not_exists(#ref)" {
		if _, exists := m.items[ref]; exists {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}
	m.items[ref] = params.Item
	return &dyn.PutItemOutput{}, nil
}

func (m *mockDynamo) GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ref, err := refOf(params.Key)
	if err != nil {
		return nil, err
	}
	item, ok := m.items[ref]
	if !ok {
		return &dyn.GetItemOutput{}, nil
	}
	cp := make(map[string]types.AttributeValue, len(item))
	for k, v := range item {
		cp[k] = v
	}
	return &dyn.GetItemOutput{Item: cp}, nil
}

func (m *mockDynamo) UpdateItem(ctx context.Context, params *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateCalls++
	if err := checkReserved(params.ConditionExpression, params.UpdateExpression); err != nil {
		return nil, err
	}
	ref, err := refOf(params.Key)
	if err != nil {
		return nil, err
	}
	item, ok := m.items[ref]
	if !ok {
		return nil, &types.ConditionalCheckFailedException{}
	}
	if params.ConditionExpression != nil {
		switch *params.ConditionExpression {
		case "#st = :from":
			cur, _ := item["state"].(*types.AttributeValueMemberS)
			want := params.ExpressionAttributeValues[":from"].(*types.AttributeValueMemberS)
			if cur == nil || cur.Value != want.Value {
				return nil, &types.ConditionalCheckFailedException{}
			}
		case "attribute_exists(#ref)":
		default:
			return nil, errors.New("unsupported condition " + *params.ConditionExpression)
		}
	}
	expr := strings.TrimPrefix(*params.UpdateExpression, "SET ")
	for _, clause := range strings.Split(expr, ", ") {
		lhs, rhs, found := strings.Cut(clause, " = ")
		if !found {
			return nil, errors.New("bad clause " + clause)
		}
		if name, ok := params.ExpressionAttributeNames[lhs]; ok {
			lhs = name
		}
		item[lhs] = params.ExpressionAttributeValues[rhs]
	}
	return &dyn.UpdateItemOutput{}, nil
}

func (m *mockDynamo) DeleteItem(ctx context.Context, params *dyn.DeleteItemInput, optFns ...func(*dyn.Options)) (*dyn.DeleteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ref, err := refOf(params.Key)
	if err != nil {
		return nil, err
	}
	delete(m.items, ref)
	return &dyn.DeleteItemOutput{}, nil
}
