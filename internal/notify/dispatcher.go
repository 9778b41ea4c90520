package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

// MessageKind tags confirmation messages on the queue.
const MessageKind = "order-confirmation"

// Publisher sends a message body with string attributes to a queue.
type Publisher interface {
	Send(ctx context.Context, body string, attributes map[string]string) error
}

// Dispatcher queues notifications for the worker.
type Dispatcher struct {
	publisher Publisher
	logger    *zap.Logger
}

// NewDispatcher returns a Dispatcher over publisher.
func NewDispatcher(publisher Publisher, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{publisher: publisher, logger: logger}
}

// Dispatch queues n.
func (d *Dispatcher) Dispatch(ctx context.Context, n Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	err = d.publisher.Send(ctx, string(body), map[string]string{
		"kind":      MessageKind,
		"reference": n.Reference,
		"order_id":  n.OrderID,
	})
	if err != nil {
		return fmt.Errorf("queue notification %s: %w", n.Reference, err)
	}
	d.logger.Info("notification queued", zap.String("reference", n.Reference), zap.Int("items", len(n.Items)))
	return nil
}
