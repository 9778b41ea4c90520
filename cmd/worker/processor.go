package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-storefront-checkout/internal/backend"
	"github.com/imrishuroy/go-storefront-checkout/internal/idempotency"
	"github.com/imrishuroy/go-storefront-checkout/internal/notify"
)

// errStillSending makes SQS redeliver a confirmation another worker has claimed but not finished.
var errStillSending = errors.New("notification is being sent by another worker")

// Claims dedupes confirmations across redeliveries.
type Claims interface {
	Claim(ctx context.Context, key, reference string) (bool, error)
	Get(ctx context.Context, key string) (*idempotency.Record, error)
	Complete(ctx context.Context, key, outcome string) error
	Release(ctx context.Context, key string) error
}

// Sender delivers rendered confirmations.
type Sender interface {
	SendOrderNotification(ctx context.Context, req backend.OrderNotificationRequest) error
}

// Processor renders queued order confirmations and hands them to the backend, once per order.
type Processor struct {
	claims Claims
	sender Sender
	logger *zap.Logger
}

// NewProcessor creates a new worker processor.
func NewProcessor(claims Claims, sender Sender, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{claims: claims, sender: sender, logger: logger.Named("worker")}
}

// Handle processes an SQS batch. Failed records are reported individually so that only they
// are redelivered.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) (events.SQSEventResponse, error) {
	var resp events.SQSEventResponse
	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			p.logger.Error("worker error", zap.String("message_id", rec.MessageId), zap.Error(err))
			resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{ItemIdentifier: rec.MessageId})
		}
	}
	return resp, nil
}

func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) error {
	n, ok, err := decodeMessage(rec)
	if err != nil {
		return err
	}
	if !ok {
		p.logger.Debug("skipping message of another kind", zap.String("message_id", rec.MessageId))
		return nil
	}

	key := claimKey(n, rec.MessageId)
	logger := p.logger.With(zap.String("reference", n.Reference), zap.String("order_id", n.OrderID))

	claimed, err := p.claims.Claim(ctx, key, rec.MessageId)
	if err != nil {
		return fmt.Errorf("claim %s: %w", key, err)
	}
	if !claimed {
		existing, err := p.claims.Get(ctx, key)
		if err != nil {
			return fmt.Errorf("read claim %s: %w", key, err)
		}
		if existing.Finished() {
			logger.Info("confirmation already sent")
			return nil
		}
		return errStillSending
	}

	req, err := buildRequest(n)
	if err == nil {
		err = p.sender.SendOrderNotification(ctx, req)
	}
	if err != nil {
		// let the next delivery try again
		if rErr := p.claims.Release(context.WithoutCancel(ctx), key); rErr != nil {
			logger.Error("release claim failed", zap.Error(rErr))
		}
		return fmt.Errorf("send confirmation %s: %w", n.Reference, err)
	}

	if err := p.claims.Complete(ctx, key, rec.MessageId); err != nil {
		// the confirmation went out; a lost marker only risks a duplicate on redelivery
		logger.Warn("mark confirmation sent failed", zap.Error(err))
	}
	logger.Info("confirmation sent",
		zap.Bool("email", req.Email != nil),
		zap.Bool("whatsapp", req.WhatsApp != nil),
	)
	return nil
}

// buildRequest renders both channels. Email is skipped when the customer has no address.
func buildRequest(n notify.Notification) (backend.OrderNotificationRequest, error) {
	req := backend.OrderNotificationRequest{
		Reference: n.Reference,
		OrderID:   n.OrderID,
		WhatsApp:  &backend.WhatsAppMessage{Phone: n.Customer.Phone, Text: notify.RenderWhatsApp(n)},
	}
	if n.Customer.Email != "" {
		html, err := notify.RenderEmail(n)
		if err != nil {
			return req, err
		}
		req.Email = &backend.EmailMessage{To: n.Customer.Email, Subject: notify.EmailSubject(n), HTML: html}
	}
	return req, nil
}
