// Package payment maps the checkout payment selection onto a branch.
package payment

import (
	"errors"
	"strings"

	"github.com/imrishuroy/go-storefront-checkout/internal/validation"
)

// Method is the payment branch of a checkout.
type Method string

const (
	MethodWhatsApp Method = "whatsapp"
	MethodCard     Method = "card"
	MethodTransfer Method = "transfer"
)

// ErrInvalidPaymentMethod is wrapped by the validation error for an unknown selection.
var ErrInvalidPaymentMethod = errors.New("invalid payment method")

// ParseMethod maps a selection onto a Method. Unknown values block submission with a
// *validation.Error on payment_method.
func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", validation.WrapError("payment_method", "must be one of whatsapp, card, transfer", ErrInvalidPaymentMethod)
	}
	return m, nil
}

// Valid reports whether m is a known branch.
func (m Method) Valid() bool {
	switch m {
	case MethodWhatsApp, MethodCard, MethodTransfer:
		return true
	}
	return false
}

// Label is the method name recorded on the order.
func (m Method) Label() string {
	switch m {
	case MethodCard:
		return "Card Payment"
	case MethodWhatsApp:
		return "WhatsApp Order"
	case MethodTransfer:
		return "Bank Transfer"
	default:
		return "Other"
	}
}

// RequiresGateway reports whether the order is created only after a hosted payment page approves.
func (m Method) RequiresGateway() bool { return m == MethodCard }
