// Package notify turns a created order into customer-facing confirmation messages.
package notify

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/shopspring/decimal"

	"github.com/imrishuroy/go-storefront-checkout/internal/domain"
	"github.com/imrishuroy/go-storefront-checkout/internal/orders"
)

// NoReference stands in for an order without any reference.
const NoReference = "N/A"

// Item is one ordered line.
type Item struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	Amount      decimal.Decimal `json:"amount"`
	ImageURL    string          `json:"image_url,omitempty"`
}

// Total is Amount x Quantity.
func (i Item) Total() decimal.Decimal {
	return i.Amount.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Customer is who the confirmation goes to. Email and Phone may be empty.
type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Notification is the channel-independent content of an order confirmation.
type Notification struct {
	Items           []Item          `json:"items"`
	TotalSum        decimal.Decimal `json:"totalSum"`
	Customer        Customer        `json:"customer"`
	DeliveryAddress string          `json:"deliveryAddress"`
	Reference       string          `json:"reference"`
	OrderID         string          `json:"orderId,omitempty"`
	Currency        string          `json:"currency"`
}

var strict = bluemonday.StrictPolicy()

// plain strips markup from free text.
func plain(s string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// Format builds the notification for order. It never fails: missing contact details stay empty.
func Format(order orders.Result, identity domain.Identity, deliveryAddress string) Notification {
	items := make([]Item, 0, len(order.Lines))
	sum := decimal.Zero
	for _, line := range order.Lines {
		it := Item{
			Name:        plain(line.Name),
			Description: plain(line.ProductID),
			Quantity:    line.Quantity,
			Amount:      line.UnitPrice,
			ImageURL:    line.PrimaryImage(),
		}
		sum = sum.Add(it.Total())
		items = append(items, it)
	}

	total := order.Total
	if !total.IsPositive() {
		total = sum
	}

	reference := NoReference
	switch {
	case order.PaymentReference != "":
		reference = order.PaymentReference
	case order.PrimaryOrderID != "":
		reference = order.PrimaryOrderID
	}

	return Notification{
		Items:    items,
		TotalSum: total,
		Customer: Customer{
			Name:  plain(identity.FullName()),
			Email: strings.TrimSpace(identity.Email),
			Phone: strings.TrimSpace(identity.Phone),
		},
		DeliveryAddress: plain(deliveryAddress),
		Reference:       reference,
		OrderID:         order.PrimaryOrderID,
		Currency:        domain.Naira.String(),
	}
}
