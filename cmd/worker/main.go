package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-storefront-checkout/internal/aws"
	"github.com/imrishuroy/go-storefront-checkout/internal/backend"
	"github.com/imrishuroy/go-storefront-checkout/internal/config"
	"github.com/imrishuroy/go-storefront-checkout/internal/idempotency"
	"github.com/imrishuroy/go-storefront-checkout/internal/notify"
	"github.com/imrishuroy/go-storefront-checkout/internal/observability"
)

const localBody = `{"items":[{"name":"Ankara Dress","description":"Ankara Dress","quantity":1,"amount":"5000"}],` +
	`"totalSum":"5375","customer":{"name":"Local Tester","email":"tester@example.com"},` +
	`"deliveryAddress":"1 Marina, Lagos, Lagos","reference":"LOCAL-1","orderId":"1","currency":"NGN"}`

func main() {
	logger, err := observability.NewLogger()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	clients, err := aws.NewClients(context.Background())
	if err != nil {
		logger.Fatal("failed to init aws clients", zap.Error(err))
	}
	api, err := backend.New(backend.Config{
		BaseURL:            cfg.Backend.BaseURL,
		Timeout:            cfg.Backend.Timeout,
		BreakerMaxFailures: cfg.Backend.BreakerMaxFailures,
		BreakerOpenTimeout: cfg.Backend.BreakerOpenTimeout,
	}, logger)
	if err != nil {
		logger.Fatal("failed to init backend client", zap.Error(err))
	}

	p := NewProcessor(
		idempotency.NewStore(clients.DynamoDB, cfg.Storage.IdempotencyTable, cfg.Storage.IdempotencyTTL),
		api,
		logger,
	)

	// If RUN_LOCAL=true, process a single simulated SQS event and exit.
	if cfg.RunLocal {
		body := os.Getenv("LOCAL_SQS_BODY")
		if body == "" {
			body = localBody
		}
		kind := notify.MessageKind
		event := events.SQSEvent{Records: []events.SQSMessage{{
			MessageId: "local-1",
			Body:      body,
			MessageAttributes: map[string]events.SQSMessageAttribute{
				"kind": {StringValue: &kind, DataType: "String"},
			},
		}}}
		resp, err := p.Handle(context.Background(), event)
		if err != nil || len(resp.BatchItemFailures) > 0 {
			logger.Fatal("local handler error", zap.Error(err), zap.Int("failures", len(resp.BatchItemFailures)))
		}
		return
	}

	lambda.Start(p.Handle)
}
