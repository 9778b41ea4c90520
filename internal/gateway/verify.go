package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/imrishuroy/go-storefront-checkout/internal/backend"
)

const statusWriteTimeout = 5 * time.Second

// verifyInBackground confirms a settled payment with the backend without holding up the
// caller. It outlives ctx but not the bridge timeout.
func (b *Bridge) verifyInBackground(ctx context.Context, reference string) {
	vctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.cfg.VerificationTimeout)
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer cancel()
		b.verify(vctx, reference)
	}()
}

func (b *Bridge) verify(ctx context.Context, reference string) {
	logger := b.logger.With(zap.String("reference", reference))
	status := PaymentVerified

	if err := b.confirm(ctx, reference); err != nil {
		vErr := &VerificationUnavailableError{Reference: reference, Err: err}
		logger.Warn("payment verification unavailable", zap.Error(vErr))
		status = PaymentVerificationUnavailable
		if err := b.metrics.Count(context.WithoutCancel(ctx), MetricVerificationUnavailable, nil); err != nil {
			logger.Warn("count metric failed", zap.String("metric", MetricVerificationUnavailable), zap.Error(err))
		}
	}

	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), statusWriteTimeout)
	defer cancel()
	if err := b.sessions.SetPaymentStatus(wctx, reference, status); err != nil {
		logger.Warn("record payment status failed", zap.String("status", string(status)), zap.Error(err))
		return
	}
	logger.Info("payment verification finished", zap.String("status", string(status)))
}

// confirm asks the callback endpoint first and the status endpoint second.
func (b *Bridge) confirm(ctx context.Context, reference string) error {
	primary, err := b.backend.PaymentCallback(ctx, reference)
	if err == nil && primary.Success {
		return nil
	}
	if err == nil {
		err = fmt.Errorf("payment callback: %s", orDefault(primary.Message, "not confirmed"))
	}

	status, fbErr := b.backend.PaymentStatus(ctx, reference)
	if fbErr == nil && status.Success && status.Data.Status == backend.PaymentCompleted {
		return nil
	}
	if fbErr == nil {
		fbErr = fmt.Errorf("payment status: %q", status.Data.Status)
	}
	return errors.Join(err, fbErr)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
