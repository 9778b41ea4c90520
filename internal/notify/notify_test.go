package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imrishuroy/go-storefront-checkout/internal/cart"
	"github.com/imrishuroy/go-storefront-checkout/internal/domain"
	"github.com/imrishuroy/go-storefront-checkout/internal/orders"
	"github.com/imrishuroy/go-storefront-checkout/internal/payment"
)

func sampleOrder() orders.Result {
	lines := []cart.Item{
		{ProductID: "p1", Name: "Ankara Dress", UnitPrice: decimal.NewFromInt(500), Quantity: 2, ImageRef: "https://cdn.example.com/a.jpg,https://cdn.example.com/b.jpg"},
		{ProductID: "p2", Name: "Head Wrap", UnitPrice: decimal.NewFromInt(1000), Quantity: 1},
	}
	totals := orders.DefaultPricing().Quote(cart.Subtotal(lines))
	return orders.Result{
		PrimaryOrderID:   "900",
		OrderIDs:         []string{"900"},
		PaymentReference: "KSW-1",
		Method:           payment.MethodCard,
		Lines:            lines,
		Totals:           totals,
		Total:            totals.Total,
	}
}

func sampleIdentity() domain.Identity {
	return domain.Identity{ID: "u1", FirstName: "Ada", LastName: "Obi", Email: "ada@example.com", Phone: "+2348000000000"}
}

func TestFormat(t *testing.T) {
	n := Format(sampleOrder(), sampleIdentity(), "1 Broad St, Lagos, Lagos")

	require.Len(t, n.Items, 2)
	assert.Equal(t, "Ankara Dress", n.Items[0].Name)
	assert.Equal(t, "p1", n.Items[0].Description)
	assert.Equal(t, 2, n.Items[0].Quantity)
	assert.True(t, n.Items[0].Amount.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, "https://cdn.example.com/a.jpg", n.Items[0].ImageURL)
	assert.True(t, n.TotalSum.Equal(decimal.NewFromInt(2150)), "total is subtotal plus tax, got %s", n.TotalSum)
	assert.Equal(t, Customer{Name: "Ada Obi", Email: "ada@example.com", Phone: "+2348000000000"}, n.Customer)
	assert.Equal(t, "1 Broad St, Lagos, Lagos", n.DeliveryAddress)
	assert.Equal(t, "KSW-1", n.Reference)
	assert.Equal(t, "NGN", n.Currency)
}

func TestFormat_Fallbacks(t *testing.T) {
	order := sampleOrder()
	order.Total = decimal.Zero
	order.PaymentReference = ""

	n := Format(order, domain.Identity{FirstName: "Ada"}, "")

	assert.True(t, n.TotalSum.Equal(decimal.NewFromInt(2000)), "falls back to the line sum")
	assert.Equal(t, "900", n.Reference)
	assert.Empty(t, n.Customer.Email)
	assert.Empty(t, n.Customer.Phone)

	order.PrimaryOrderID = ""
	assert.Equal(t, NoReference, Format(order, domain.Identity{}, "").Reference)
}

func TestFormat_StripsMarkup(t *testing.T) {
	order := sampleOrder()
	order.Lines[0].Name = `<script>alert(1)</script>Ankara & Co <b>Dress</b>`

	n := Format(order, domain.Identity{FirstName: "<i>Ada</i>"}, "<p>1 Broad St</p>")

	assert.Equal(t, "Ankara & Co Dress", n.Items[0].Name)
	assert.Equal(t, "Ada", n.Customer.Name)
	assert.Equal(t, "1 Broad St", n.DeliveryAddress)
}

func TestMoney(t *testing.T) {
	assert.Equal(t, "₦2,150", Money(decimal.NewFromInt(2150), "NGN"))
	assert.Equal(t, "₦1,234,567", Money(decimal.NewFromInt(1234567), "NGN"))
	assert.Equal(t, "$10.50", Money(decimal.RequireFromString("10.5"), "USD"))
	assert.Equal(t, "GHS 15", Money(decimal.NewFromInt(15), "GHS"))
}

func TestRenderWhatsApp(t *testing.T) {
	msg := RenderWhatsApp(Format(sampleOrder(), sampleIdentity(), "1 Broad St, Lagos, Lagos"))

	assert.True(t, strings.HasPrefix(msg, "🎉 *PAYMENT CONFIRMED - ORDER #KSW-1*\n\n"))
	assert.Contains(t, msg, "Hello Ada Obi,")
	assert.Contains(t, msg, "1. Ankara Dress\n   Description: p1\n   Qty: 2 × ₦500 = ₦1,000\n")
	assert.Contains(t, msg, "*TOTAL: ₦2,150*")
	assert.Contains(t, msg, "*DELIVERY ADDRESS:*\n1 Broad St, Lagos, Lagos")
}

func TestRenderEmail(t *testing.T) {
	n := Format(sampleOrder(), sampleIdentity(), "")
	n.Items[1].Name = `Wrap "<deluxe>"`

	page, err := RenderEmail(n)
	require.NoError(t, err)

	assert.Contains(t, page, "Hello Ada Obi,")
	assert.Contains(t, page, "<strong>KSW-1</strong>")
	assert.Contains(t, page, `<img src="https://cdn.example.com/a.jpg"`)
	assert.Contains(t, page, "₦2,150")
	assert.Contains(t, page, "Not specified")
	assert.Contains(t, page, "&lt;deluxe&gt;")
	assert.NotContains(t, page, "<deluxe>")
}

func TestHandoffMessage(t *testing.T) {
	order := sampleOrder()
	order.PaymentReference = ""
	n := Format(order, sampleIdentity(), "1 Broad St, Lagos, Lagos")

	msg := HandoffMessage(n, order.Totals, "+2349067393633")

	assert.Contains(t, msg, "Order #900")
	assert.Contains(t, msg, "Name: Ada Obi\nEmail: ada@example.com\nPhone: +2348000000000\n")
	assert.Contains(t, msg, "Tax: ₦150\n*Total: ₦2,150*")
	assert.NotContains(t, msg, "Shipping:")
	assert.True(t, strings.HasSuffix(msg, "📞 *Support:* +2349067393633"))
}

func TestHandoffMessage_NoContactDetails(t *testing.T) {
	order := sampleOrder()
	n := Format(order, domain.Identity{FirstName: gofakeit.FirstName()}, "")
	totals := order.Totals
	totals.Shipping = decimal.NewFromInt(2500)

	msg := HandoffMessage(n, totals, "")

	assert.NotContains(t, msg, "Email:")
	assert.NotContains(t, msg, "Phone:")
	assert.Contains(t, msg, "Shipping: ₦2,500")
	assert.NotContains(t, msg, "Support")
}

func TestWhatsAppURL(t *testing.T) {
	link := WhatsAppURL("+234 701-722-2999", "Hi & welcome\nline 2")

	assert.True(t, strings.HasPrefix(link, "https://wa.me/2347017222999?text="))
	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "Hi & welcome\nline 2", u.Query().Get("text"))
	assert.NotContains(t, link, "+")
}

type recordingPublisher struct {
	body  string
	attrs map[string]string
	err   error
}

func (r *recordingPublisher) Send(_ context.Context, body string, attrs map[string]string) error {
	r.body, r.attrs = body, attrs
	return r.err
}

func TestDispatcher(t *testing.T) {
	pub := &recordingPublisher{}
	n := Format(sampleOrder(), sampleIdentity(), "1 Broad St")

	require.NoError(t, NewDispatcher(pub, nil).Dispatch(context.Background(), n))

	assert.Equal(t, MessageKind, pub.attrs["kind"])
	assert.Equal(t, "KSW-1", pub.attrs["reference"])
	var decoded Notification
	require.NoError(t, json.Unmarshal([]byte(pub.body), &decoded))
	assert.Equal(t, n.Reference, decoded.Reference)
	assert.True(t, decoded.TotalSum.Equal(n.TotalSum))
}

func TestDispatcher_PublishError(t *testing.T) {
	boom := errors.New("queue down")
	pub := &recordingPublisher{err: boom}

	err := NewDispatcher(pub, nil).Dispatch(context.Background(), Notification{Reference: "r"})

	assert.ErrorIs(t, err, boom)
}
