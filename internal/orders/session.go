package orders

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"

	"github.com/imrishuroy/go-storefront-checkout/internal/cart"
	"github.com/imrishuroy/go-storefront-checkout/internal/domain"
	"github.com/imrishuroy/go-storefront-checkout/internal/payment"
	"github.com/imrishuroy/go-storefront-checkout/internal/validation"
)

// Pricing turns a cart subtotal into checkout totals.
type Pricing struct {
	TaxRate   decimal.Decimal
	TaxPlaces int32
	// ShippingFee is added to every order unless the subtotal reaches FreeShippingThreshold.
	// A zero threshold never waives the fee.
	ShippingFee           decimal.Decimal
	FreeShippingThreshold decimal.Decimal
	Currency              currency.Unit
}

// DefaultPricing is 7.5% tax rounded to whole units, no shipping, in naira.
func DefaultPricing() Pricing {
	return Pricing{
		TaxRate:  decimal.RequireFromString("0.075"),
		Currency: domain.Naira,
	}
}

// Totals are the priced amounts of one checkout.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
}

// Quote prices subtotal.
func (p Pricing) Quote(subtotal decimal.Decimal) Totals {
	tax := subtotal.Mul(p.TaxRate).Round(p.TaxPlaces)
	shipping := decimal.Zero
	if p.ShippingFee.IsPositive() && subtotal.IsPositive() {
		waived := p.FreeShippingThreshold.IsPositive() && subtotal.GreaterThanOrEqual(p.FreeShippingThreshold)
		if !waived {
			shipping = p.ShippingFee
		}
	}
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: shipping,
		Total:    subtotal.Add(tax).Add(shipping),
	}
}

// MinorUnits converts the total into the smallest unit of cur, e.g. kobo for NGN.
func (t Totals) MinorUnits(cur currency.Unit) int64 {
	scale, _ := currency.Standard.Rounding(cur)
	return t.Total.Shift(int32(scale)).Round(0).IntPart()
}

// Session is one checkout attempt. It is derived from the cart and address and never stored.
type Session struct {
	OwnerID          string
	Address          *domain.Address
	Method           payment.Method
	Items            []cart.Item
	PaymentReference string
	Totals           Totals
}

// NewSession snapshots items and prices them.
func NewSession(ownerID string, addr *domain.Address, method payment.Method, items []cart.Item, pricing Pricing) Session {
	snapshot := make([]cart.Item, len(items))
	copy(snapshot, items)
	return Session{
		OwnerID: ownerID,
		Address: addr,
		Method:  method,
		Items:   snapshot,
		Totals:  pricing.Quote(cart.Subtotal(snapshot)),
	}
}

// Validate checks every precondition of order creation and names the first missing field.
func (s Session) Validate() error {
	if err := s.ValidateForPayment(); err != nil {
		return err
	}
	if s.Method.RequiresGateway() && strings.TrimSpace(s.PaymentReference) == "" {
		return validation.NewError("payment_reference", "is required for card payments")
	}
	return nil
}

// ValidateForPayment checks everything Validate does except the payment reference, which a
// card checkout only has once the gateway issues it.
func (s Session) ValidateForPayment() error {
	if len(s.Items) == 0 {
		return validation.NewError("items", "cart is empty")
	}
	if strings.TrimSpace(s.OwnerID) == "" {
		return validation.NewError("owner_id", "is required")
	}
	if s.Address == nil {
		return validation.NewError("address", "no delivery address resolved")
	}
	required := []struct{ field, value string }{
		{"recipient", s.Address.RecipientName()},
		{"address_line_1", s.Address.Line1},
		{"city", s.Address.City},
		{"state", s.Address.State},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return validation.NewError(r.field, "is required")
		}
	}
	if !s.Method.Valid() {
		return validation.WrapError("payment_method", "must be one of whatsapp, card, transfer", payment.ErrInvalidPaymentMethod)
	}
	return nil
}
