package gateway

import (
	"errors"
	"fmt"
)

var (
	ErrCallbackInProgress = errors.New("payment callback already in progress")
	ErrUnknownReference   = errors.New("unknown payment reference")
	ErrStateMismatch      = errors.New("payment session state mismatch")
	ErrInvalidTransition  = errors.New("invalid payment session transition")
	ErrDuplicateReference = errors.New("duplicate payment reference")
	ErrPaymentInitiation  = errors.New("payment initiation failed")
	ErrAmountMismatch     = errors.New("priced total differs from the charged amount")

	// ErrPaymentDeclined matches every *PaymentDeclinedError.
	ErrPaymentDeclined = errors.New("payment declined")
	// ErrOrderCreateAfterPayment matches every *OrderCreateAfterPaymentError.
	ErrOrderCreateAfterPayment = errors.New("order creation failed after payment")
)

// PaymentDeclinedError is a callback without an approval code. No order exists.
type PaymentDeclinedError struct {
	Reference   string
	Code        string
	Description string
}

func (e *PaymentDeclinedError) Error() string {
	msg := fmt.Sprintf("payment %s declined (code %q)", e.Reference, e.Code)
	if e.Description != "" {
		msg += ": " + e.Description
	}
	return msg
}

func (e *PaymentDeclinedError) Is(target error) bool { return target == ErrPaymentDeclined }

// OrderCreateAfterPaymentError means the customer was charged but no order was recorded.
// Reference is what support needs to reconcile it.
type OrderCreateAfterPaymentError struct {
	Reference string
	Err       error
}

func (e *OrderCreateAfterPaymentError) Error() string {
	return fmt.Sprintf("payment %s approved but order creation failed: %v", e.Reference, e.Err)
}

func (e *OrderCreateAfterPaymentError) Unwrap() error { return e.Err }

func (e *OrderCreateAfterPaymentError) Is(target error) bool {
	return target == ErrOrderCreateAfterPayment
}

// VerificationUnavailableError is logged when neither verification endpoint confirmed a payment.
// It never reaches a caller.
type VerificationUnavailableError struct {
	Reference string
	Err       error
}

func (e *VerificationUnavailableError) Error() string {
	return fmt.Sprintf("verify payment %s: %v", e.Reference, e.Err)
}

func (e *VerificationUnavailableError) Unwrap() error { return e.Err }
