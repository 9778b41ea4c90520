package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// Clients are the service clients shared by the API and the worker.
type Clients struct {
	Region     string
	DynamoDB   DynamoDBAPI
	SQS        SQSAPI
	CloudWatch CloudWatchAPI
}

// NewClients loads the SDK config once and builds every client from it.
func NewClients(ctx context.Context) (*Clients, error) {
	cfg, err := LoadAWSConfig(ctx)
	if err != nil {
		return nil, err
	}

	return &Clients{
		Region:     cfg.Region,
		DynamoDB:   dynamodb.NewFromConfig(cfg),
		SQS:        sqs.NewFromConfig(cfg),
		CloudWatch: cloudwatch.NewFromConfig(cfg),
	}, nil
}

// Publisher returns a Publisher for queueURL on the shared SQS client.
func (c *Clients) Publisher(queueURL string) *Publisher {
	return NewPublisher(c.SQS, queueURL)
}

// Metrics returns a Metrics emitter for namespace on the shared CloudWatch client.
func (c *Clients) Metrics(namespace string) *Metrics {
	return NewMetrics(c.CloudWatch, namespace)
}
