package gateway

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/imrishuroy/go-storefront-checkout/internal/cart"
	"github.com/imrishuroy/go-storefront-checkout/internal/domain"
)

// Session is a persisted card payment attempt, keyed by the server-issued reference. It carries
// everything the return callback needs, since the callback arrives on a fresh navigation.
type Session struct {
	Reference      string          `dynamodbav:"reference"` // PK
	SecureToken    string          `dynamodbav:"secure_token,omitempty"`
	OwnerID        string          `dynamodbav:"owner_id"`
	CartID         string          `dynamodbav:"cart_id"`
	Amount         string          `dynamodbav:"amount"` // decimal string, major units
	AmountMinor    int64           `dynamodbav:"amount_minor"`
	Currency       string          `dynamodbav:"currency"`
	Identity       domain.Identity `dynamodbav:"identity"`
	Address        domain.Address  `dynamodbav:"address"`
	Lines          string          `dynamodbav:"lines"` // cart.Marshal of the items charged for
	State          State           `dynamodbav:"state"`
	PaymentStatus  PaymentStatus   `dynamodbav:"payment_status"`
	ResponseCode   string          `dynamodbav:"response_code,omitempty"`
	PrimaryOrderID string          `dynamodbav:"primary_order_id,omitempty"`
	FailureReason  string          `dynamodbav:"failure_reason,omitempty"`
	CreatedAt      time.Time       `dynamodbav:"created_at"`
	UpdatedAt      time.Time       `dynamodbav:"updated_at"`
	ExpiresAt      int64           `dynamodbav:"expires_at"` // TTL epoch seconds
}

// Items decodes the item snapshot taken when the payment was initiated.
func (s Session) Items() ([]cart.Item, error) {
	if s.Lines == "" {
		return nil, errors.New("payment session has no item snapshot")
	}
	return cart.Unmarshal([]byte(s.Lines))
}

// AmountDecimal parses Amount. A malformed amount reads as zero.
func (s Session) AmountDecimal() decimal.Decimal {
	d, err := decimal.NewFromString(s.Amount)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Patch lists the optional fields a transition writes alongside the new state.
type Patch struct {
	PaymentStatus  PaymentStatus
	ResponseCode   string
	PrimaryOrderID string
	FailureReason  string
}
