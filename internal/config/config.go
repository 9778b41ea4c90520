package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"

	"github.com/imrishuroy/go-storefront-checkout/internal/domain"
)

// Config is the full runtime configuration of the API and worker.
type Config struct {
	Port     string
	RunLocal bool

	Backend  BackendConfig
	Pricing  PricingConfig
	Gateway  GatewayConfig
	Contact  ContactConfig
	Storage  StorageConfig
	Notifier NotifierConfig
}

// BackendConfig describes the commerce REST backend.
type BackendConfig struct {
	BaseURL            string
	Timeout            time.Duration
	BreakerMaxFailures uint32
	BreakerOpenTimeout time.Duration
}

// PricingConfig drives checkout totals.
type PricingConfig struct {
	TaxRate               decimal.Decimal
	TaxRoundingPlaces     int32
	ShippingFee           decimal.Decimal
	FreeShippingThreshold decimal.Decimal
	Currency              currency.Unit
}

// GatewayConfig holds the hosted payment page parameters.
type GatewayConfig struct {
	URL                 string
	MerchantCode        string
	PayItemID           string
	Mode                string
	PayMethod           string
	ReturnURL           string
	VerificationTimeout time.Duration
}

// ContactConfig holds the store's hand-off and transfer details.
type ContactConfig struct {
	WhatsAppNumber    string
	SupportPhone      string
	BankName          string
	BankAccountNumber string
	BankAccountName   string
}

// StorageConfig names the DynamoDB tables.
type StorageConfig struct {
	CartTable            string
	PaymentSessionsTable string
	IdempotencyTable     string
	IdempotencyTTL       time.Duration
}

// NotifierConfig points at the notification queue and metrics namespace.
type NotifierConfig struct {
	QueueURL         string
	MetricsNamespace string
}

// Load reads configuration from the environment and validates it.
func Load() (Config, error) {
	var errs []error
	l := loader{errs: &errs}

	cfg := Config{
		Port:     l.str("PORT", "8080"),
		RunLocal: l.boolean("RUN_LOCAL", false),
		Backend: BackendConfig{
			BaseURL:            strings.TrimRight(l.str("API_BASE_URL", "http://localhost:3002"), "/"),
			Timeout:            l.duration("API_TIMEOUT", 15*time.Second),
			BreakerMaxFailures: uint32(l.integer("API_BREAKER_MAX_FAILURES", 5)),
			BreakerOpenTimeout: l.duration("API_BREAKER_OPEN_TIMEOUT", 30*time.Second),
		},
		Pricing: PricingConfig{
			TaxRate:               l.decimal("TAX_RATE", decimal.RequireFromString("0.075")),
			TaxRoundingPlaces:     int32(l.integer("TAX_ROUNDING_PLACES", 0)),
			ShippingFee:           l.decimal("SHIPPING_FEE", decimal.Zero),
			FreeShippingThreshold: l.decimal("FREE_SHIPPING_THRESHOLD", decimal.Zero),
			Currency:              l.currency("CURRENCY", domain.Naira),
		},
		Gateway: GatewayConfig{
			URL:                 l.str("GATEWAY_URL", "https://webpay.interswitchng.com/collections/w/pay"),
			MerchantCode:        l.str("GATEWAY_MERCHANT_CODE", "MX162337"),
			PayItemID:           l.str("GATEWAY_PAY_ITEM_ID", "Default_Payable_MX162337"),
			Mode:                l.str("GATEWAY_MODE", "LIVE"),
			PayMethod:           l.str("GATEWAY_PAY_METHOD", "both"),
			ReturnURL:           l.str("GATEWAY_RETURN_URL", "http://localhost:8080/checkout/return"),
			VerificationTimeout: l.duration("VERIFICATION_TIMEOUT", 20*time.Second),
		},
		Contact: ContactConfig{
			WhatsAppNumber:    l.str("WHATSAPP_NUMBER", "+2347017222999"),
			SupportPhone:      l.str("SUPPORT_PHONE", "+2349067393633"),
			BankName:          l.str("BANK_NAME", "Keystone Bank"),
			BankAccountNumber: l.str("BANK_ACCOUNT_NUMBER", "1013842470"),
			BankAccountName:   l.str("BANK_ACCOUNT_NAME", "Prospora Tech Nigeria limited"),
		},
		Storage: StorageConfig{
			CartTable:            l.str("CART_TABLE", "storefront-carts"),
			PaymentSessionsTable: l.str("PAYMENT_SESSIONS_TABLE", "storefront-payment-sessions"),
			IdempotencyTable:     l.str("IDEMPOTENCY_TABLE", "storefront-idempotency"),
			IdempotencyTTL:       l.duration("IDEMPOTENCY_TTL", 48*time.Hour),
		},
		Notifier: NotifierConfig{
			QueueURL:         l.str("NOTIFICATIONS_QUEUE_URL", ""),
			MetricsNamespace: l.str("METRICS_NAMESPACE", "Storefront/Checkout"),
		},
	}

	errs = append(errs, cfg.validate()...)
	if len(errs) > 0 {
		return Config{}, fmt.Errorf("load config: %w", errors.Join(errs...))
	}
	return cfg, nil
}

func (c Config) validate() []error {
	var errs []error
	for name, raw := range map[string]string{
		"API_BASE_URL":       c.Backend.BaseURL,
		"GATEWAY_URL":        c.Gateway.URL,
		"GATEWAY_RETURN_URL": c.Gateway.ReturnURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("%s must be an absolute URL, got %q", name, raw))
		}
	}
	if c.Pricing.TaxRate.IsNegative() || c.Pricing.TaxRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		errs = append(errs, fmt.Errorf("TAX_RATE must be in [0,1), got %s", c.Pricing.TaxRate))
	}
	if c.Pricing.ShippingFee.IsNegative() || c.Pricing.FreeShippingThreshold.IsNegative() {
		errs = append(errs, errors.New("SHIPPING_FEE and FREE_SHIPPING_THRESHOLD must not be negative"))
	}
	if c.Pricing.TaxRoundingPlaces < 0 {
		errs = append(errs, errors.New("TAX_ROUNDING_PLACES must not be negative"))
	}
	if c.Gateway.MerchantCode == "" || c.Gateway.PayItemID == "" {
		errs = append(errs, errors.New("GATEWAY_MERCHANT_CODE and GATEWAY_PAY_ITEM_ID are required"))
	}
	if c.Backend.BreakerMaxFailures == 0 {
		errs = append(errs, errors.New("API_BREAKER_MAX_FAILURES must be positive"))
	}
	return errs
}

type loader struct {
	errs *[]error
}

func (l loader) fail(name, raw string, err error) {
	*l.errs = append(*l.errs, fmt.Errorf("%s=%q: %w", name, raw, err))
}

func (l loader) str(name, def string) string {
	if v, ok := os.LookupEnv(name); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func (l loader) boolean(name string, def bool) bool {
	raw := l.str(name, "")
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		l.fail(name, raw, err)
		return def
	}
	return v
}

func (l loader) integer(name string, def int) int {
	raw := l.str(name, "")
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		l.fail(name, raw, err)
		return def
	}
	return v
}

func (l loader) duration(name string, def time.Duration) time.Duration {
	raw := l.str(name, "")
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		l.fail(name, raw, err)
		return def
	}
	if v <= 0 {
		l.fail(name, raw, errors.New("must be positive"))
		return def
	}
	return v
}

func (l loader) decimal(name string, def decimal.Decimal) decimal.Decimal {
	raw := l.str(name, "")
	if raw == "" {
		return def
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		l.fail(name, raw, err)
		return def
	}
	return v
}

func (l loader) currency(name string, def currency.Unit) currency.Unit {
	raw := l.str(name, "")
	if raw == "" {
		return def
	}
	v, err := currency.ParseISO(raw)
	if err != nil {
		l.fail(name, raw, err)
		return def
	}
	return v
}
