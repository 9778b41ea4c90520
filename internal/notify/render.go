package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/imrishuroy/go-storefront-checkout/internal/orders"
)

const storeName = "Kasuwa Mall"

var emailTemplate = template.Must(template.New("email").Funcs(template.FuncMap{
	"money": func(d decimal.Decimal, iso string) string { return Money(d, iso) },
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Order Confirmation - {{.Store}}</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 800px; margin: 0 auto; padding: 20px;">
<div style="background: #8B4513; color: white; padding: 30px; text-align: center; border-radius: 10px 10px 0 0;">
<div style="font-size: 24px; font-weight: bold;">{{.Store}}</div>
<h1>Order Confirmation</h1>
<p>Thank you for your purchase!</p>
</div>
<div style="background: white; padding: 30px;">
<h2>Hello {{with .N.Customer.Name}}{{.}}{{else}}there{{end}},</h2>
<p>Your payment with reference <strong>{{.N.Reference}}</strong> has been processed successfully.</p>
<h3>Order Details:</h3>
<table style="border-collapse: collapse; width: 100%;">
<thead><tr><th>Item</th><th>Image</th><th>Quantity</th><th>Unit Price</th><th>Total</th></tr></thead>
<tbody>
{{- range .N.Items}}
<tr>
<td>{{.Name}}<br><small>{{.Description}}</small></td>
<td style="text-align: center;">{{if .ImageURL}}<img src="{{.ImageURL}}" alt="{{.Name}}" width="80" height="80">{{else}}No Image{{end}}</td>
<td>{{.Quantity}}</td>
<td>{{money .Amount $.N.Currency}}</td>
<td>{{money .Total $.N.Currency}}</td>
</tr>
{{- end}}
</tbody>
<tfoot><tr><td colspan="4" style="text-align: right;"><strong>Total:</strong></td><td><strong>{{money .N.TotalSum .N.Currency}}</strong></td></tr></tfoot>
</table>
<h3>Delivery Information:</h3>
<p>{{with .N.DeliveryAddress}}{{.}}{{else}}Not specified{{end}}</p>
<p>We appreciate your business and hope you enjoy your purchase!</p>
<p><strong>- The {{.Store}} Team</strong></p>
</div>
</body>
</html>
`))

// RenderEmail renders the HTML confirmation email.
func RenderEmail(n Notification) (string, error) {
	var buf bytes.Buffer
	err := emailTemplate.Execute(&buf, struct {
		Store string
		N     Notification
	}{storeName, n})
	if err != nil {
		return "", fmt.Errorf("render email: %w", err)
	}
	return buf.String(), nil
}

// EmailSubject is the subject line of the confirmation email.
func EmailSubject(n Notification) string {
	return fmt.Sprintf("%s Order Confirmation #%s", storeName, n.Reference)
}

// RenderWhatsApp renders the confirmation sent to the customer after payment.
func RenderWhatsApp(n Notification) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎉 *PAYMENT CONFIRMED - ORDER #%s*\n\n", n.Reference)
	fmt.Fprintf(&b, "Hello %s,\n", orDefault(n.Customer.Name, "there"))
	fmt.Fprintf(&b, "Your payment has been processed successfully. Thank you for shopping with %s!\n\n", storeName)

	b.WriteString("*ORDER DETAILS:*\n")
	for i, it := range n.Items {
		fmt.Fprintf(&b, "%d. %s\n", i+1, it.Name)
		fmt.Fprintf(&b, "   Description: %s\n", it.Description)
		fmt.Fprintf(&b, "   Qty: %d × %s = %s\n\n", it.Quantity, Money(it.Amount, n.Currency), Money(it.Total(), n.Currency))
	}
	fmt.Fprintf(&b, "*TOTAL: %s*\n\n", Money(n.TotalSum, n.Currency))
	fmt.Fprintf(&b, "*DELIVERY ADDRESS:*\n%s\n\n", orDefault(n.DeliveryAddress, "Not specified"))
	b.WriteString("We appreciate your business and hope you enjoy your purchase!\n")
	fmt.Fprintf(&b, "- The %s Team 🛍️", storeName)
	return b.String()
}

// HandoffMessage renders the order request a customer sends to the store over WhatsApp.
func HandoffMessage(n Notification, totals orders.Totals, supportPhone string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📦 *New Order from %s*\n", storeName)
	if n.OrderID != "" {
		fmt.Fprintf(&b, "Order #%s\n", n.OrderID)
	}
	b.WriteString("\n👤 *Customer Details:*\n")
	fmt.Fprintf(&b, "Name: %s\n", n.Customer.Name)
	if n.Customer.Email != "" {
		fmt.Fprintf(&b, "Email: %s\n", n.Customer.Email)
	}
	if n.Customer.Phone != "" {
		fmt.Fprintf(&b, "Phone: %s\n", n.Customer.Phone)
	}

	fmt.Fprintf(&b, "\n📍 *Delivery Address:*\n%s\n\n", orDefault(n.DeliveryAddress, "Not specified"))

	b.WriteString("🛒 *Order Items:*\n")
	for i, it := range n.Items {
		fmt.Fprintf(&b, "%d. %s\n", i+1, it.Name)
		fmt.Fprintf(&b, "   Quantity: %d\n", it.Quantity)
		fmt.Fprintf(&b, "   Price: %s\n", Money(it.Amount, n.Currency))
		fmt.Fprintf(&b, "   Subtotal: %s\n\n", Money(it.Total(), n.Currency))
	}

	b.WriteString("💰 *Order Summary:*\n")
	if totals.Shipping.IsPositive() {
		fmt.Fprintf(&b, "Shipping: %s\n", Money(totals.Shipping, n.Currency))
	}
	fmt.Fprintf(&b, "Tax: %s\n", Money(totals.Tax, n.Currency))
	fmt.Fprintf(&b, "*Total: %s*\n\n", Money(totals.Total, n.Currency))

	b.WriteString("⚠️ *Important:* Do not make payment until you receive your order.\n")
	if supportPhone != "" {
		fmt.Fprintf(&b, "📞 *Support:* %s", supportPhone)
	}
	return strings.TrimRight(b.String(), "\n")
}

// WhatsAppURL builds a wa.me link that opens a chat with number prefilled with text.
func WhatsAppURL(number, text string) string {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, number)
	return "https://wa.me/" + digits + "?text=" + strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
