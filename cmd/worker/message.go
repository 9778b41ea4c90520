package main

import (
	"encoding/json"
	"fmt"

	"github.com/aws/aws-lambda-go/events"

	"github.com/imrishuroy/go-storefront-checkout/internal/notify"
)

const claimPrefix = "notification:"

// decodeMessage reads the confirmation carried by an SQS record. ok is false for messages of
// another kind, which the worker acknowledges without action.
func decodeMessage(rec events.SQSMessage) (n notify.Notification, ok bool, err error) {
	if attr, found := rec.MessageAttributes["kind"]; found && attr.StringValue != nil && *attr.StringValue != notify.MessageKind {
		return n, false, nil
	}
	if err := json.Unmarshal([]byte(rec.Body), &n); err != nil {
		return n, false, fmt.Errorf("invalid message body: %w", err)
	}
	return n, true, nil
}

// claimKey dedupes deliveries of one confirmation. Orders without a reference fall back to the
// SQS message id, which still absorbs redeliveries of the same message.
func claimKey(n notify.Notification, messageID string) string {
	switch {
	case n.Reference != "" && n.Reference != notify.NoReference:
		return claimPrefix + n.Reference
	case n.OrderID != "":
		return claimPrefix + "order:" + n.OrderID
	}
	return claimPrefix + "message:" + messageID
}
