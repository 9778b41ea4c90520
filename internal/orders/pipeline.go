// Package orders validates a checkout session, submits it to the order backend and reads the
// backend's answer.
package orders

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-storefront-checkout/internal/cart"
	"github.com/imrishuroy/go-storefront-checkout/internal/payment"
)

// Backend is the create-order endpoint.
type Backend interface {
	CreateOrder(ctx context.Context, payload any) (json.RawMessage, error)
}

// Result is a successfully created order.
type Result struct {
	PrimaryOrderID   string          `json:"primary_order_id"`
	OrderIDs         []string        `json:"order_ids"`
	TaxTransactions  int             `json:"tax_transactions,omitempty"`
	PaymentReference string          `json:"payment_reference,omitempty"`
	Method           payment.Method  `json:"payment_method"`
	Lines            []cart.Item     `json:"lines"`
	Totals           Totals          `json:"totals"`
	Total            decimal.Decimal `json:"total"`
}

// Pipeline submits sessions to Backend.
type Pipeline struct {
	backend Backend
	logger  *zap.Logger
}

// NewPipeline builds a pipeline.
func NewPipeline(backend Backend, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{backend: backend, logger: logger}
}

// CreateOrder validates s and submits it once. Validation failures return before any network
// call. The error is a *validation.Error, *RejectedError, *AmbiguousResponseError or a
// transport error from Backend.
func (p *Pipeline) CreateOrder(ctx context.Context, s Session) (Result, error) {
	if err := s.Validate(); err != nil {
		return Result{}, err
	}

	logger := p.logger.With(
		zap.String("owner_id", s.OwnerID),
		zap.String("payment_method", string(s.Method)),
		zap.String("payment_reference", s.PaymentReference),
	)

	body, err := p.backend.CreateOrder(ctx, BuildPayload(s))
	if err != nil {
		logger.Error("create order request failed", zap.Error(err))
		return Result{}, fmt.Errorf("create order: %w", err)
	}

	resp := Normalize(body)
	switch resp.Kind {
	case KindRejected:
		logger.Warn("order rejected", zap.String("message", resp.Message))
		return Result{}, &RejectedError{Message: resp.Message, Reference: s.PaymentReference}
	case KindUnrecognized:
		logger.Error("unrecognized create order response", zap.ByteString("body", body))
		return Result{}, &AmbiguousResponseError{
			Message:   DefaultFailureMessage,
			Reference: s.PaymentReference,
			Raw:       string(body),
		}
	}

	logger.Info("order created",
		zap.String("order_id", resp.PrimaryOrderID),
		zap.Stringer("shape", resp.Kind),
		zap.Int("orders", len(resp.OrderIDs)),
	)
	return Result{
		PrimaryOrderID:   resp.PrimaryOrderID,
		OrderIDs:         resp.OrderIDs,
		TaxTransactions:  resp.TaxTransactions,
		PaymentReference: s.PaymentReference,
		Method:           s.Method,
		Lines:            s.Items,
		Totals:           s.Totals,
		Total:            s.Totals.Total,
	}, nil
}
