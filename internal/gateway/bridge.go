// Package gateway runs the card payment round trip through a hosted payment page: it opens a
// payment session, hands the customer off with a form post and turns the return callback into
// exactly one order.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/currency"

	"github.com/imrishuroy/go-storefront-checkout/internal/backend"
	"github.com/imrishuroy/go-storefront-checkout/internal/cart"
	"github.com/imrishuroy/go-storefront-checkout/internal/domain"
	"github.com/imrishuroy/go-storefront-checkout/internal/idempotency"
	"github.com/imrishuroy/go-storefront-checkout/internal/orders"
	"github.com/imrishuroy/go-storefront-checkout/internal/payment"
	"github.com/imrishuroy/go-storefront-checkout/internal/validation"
)

// Metric names counted by the bridge.
const (
	MetricVerificationUnavailable = "PaymentVerificationUnavailable"
	MetricOrderCreateAfterPayment = "OrderCreateAfterPaymentFailure"
)

const claimPrefix = "gateway-callback:"

// Backend is the payment side of the commerce backend.
type Backend interface {
	InitiateSecurePayment(ctx context.Context, req backend.InitiatePaymentRequest) (backend.InitiatePaymentResponse, error)
	PaymentCallback(ctx context.Context, reference string) (backend.VerificationResponse, error)
	PaymentStatus(ctx context.Context, reference string) (backend.VerificationResponse, error)
}

// OrderCreator submits a checkout session.
type OrderCreator interface {
	CreateOrder(ctx context.Context, s orders.Session) (orders.Result, error)
}

// Carts opens a persisted cart by id.
type Carts interface {
	Open(ctx context.Context, cartID string) (*cart.Store, error)
}

// Claims makes callback handling run once per reference.
type Claims interface {
	Claim(ctx context.Context, key, reference string) (bool, error)
	Get(ctx context.Context, key string) (*idempotency.Record, error)
	Complete(ctx context.Context, key, outcome string) error
	Release(ctx context.Context, key string) error
}

// Counter counts operational events.
type Counter interface {
	Count(ctx context.Context, name string, dimensions map[string]string) error
}

// Config holds the hosted payment page parameters.
type Config struct {
	Action              string
	MerchantCode        string
	PayItemID           string
	Mode                string
	PayMethod           string
	ReturnURL           string
	Currency            currency.Unit
	VerificationTimeout time.Duration
}

// Deps are the collaborators of a Bridge.
type Deps struct {
	Backend  Backend
	Orders   OrderCreator
	Carts    Carts
	Sessions SessionStore
	Claims   Claims
	Metrics  Counter
	Pricing  orders.Pricing
	Logger   *zap.Logger
}

// Bridge drives card payments.
type Bridge struct {
	cfg      Config
	backend  Backend
	orders   OrderCreator
	carts    Carts
	sessions SessionStore
	claims   Claims
	metrics  Counter
	pricing  orders.Pricing
	logger   *zap.Logger

	wg sync.WaitGroup
}

// NewBridge wires a Bridge.
func NewBridge(cfg Config, deps Deps) *Bridge {
	if cfg.VerificationTimeout <= 0 {
		cfg.VerificationTimeout = 20 * time.Second
	}
	if cfg.Currency == (currency.Unit{}) {
		cfg.Currency = domain.Naira
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := deps.Metrics
	if metrics == nil {
		metrics = nopCounter{}
	}
	return &Bridge{
		cfg:      cfg,
		backend:  deps.Backend,
		orders:   deps.Orders,
		carts:    deps.Carts,
		sessions: deps.Sessions,
		claims:   deps.Claims,
		metrics:  metrics,
		pricing:  deps.Pricing,
		logger:   logger.Named("gateway"),
	}
}

// InitiateRequest is a priced card checkout about to leave for the hosted page.
type InitiateRequest struct {
	Session  orders.Session
	CartID   string
	Identity domain.Identity
}

// Initiate opens a payment session with the backend, persists it and returns the form post to
// the hosted page. The cart is not touched.
func (b *Bridge) Initiate(ctx context.Context, req InitiateRequest) (Redirect, error) {
	s := req.Session
	// the customer pays before the order exists, so everything the order needs is checked now
	if err := s.ValidateForPayment(); err != nil {
		return Redirect{}, err
	}
	if strings.TrimSpace(req.CartID) == "" {
		return Redirect{}, validation.NewError("cart_id", "is required")
	}
	lines, err := cart.Marshal(s.Items)
	if err != nil {
		return Redirect{}, fmt.Errorf("snapshot items: %w", err)
	}

	resp, err := b.backend.InitiateSecurePayment(ctx, backend.InitiatePaymentRequest{
		Amount:        json.Number(s.Totals.Total.String()),
		UserID:        s.OwnerID,
		CustomerEmail: req.Identity.Email,
		CustomerName:  req.Identity.FullName(),
	})
	if err != nil {
		return Redirect{}, fmt.Errorf("initiate payment: %w", err)
	}
	if !resp.Success || strings.TrimSpace(resp.PaymentReference) == "" {
		msg := resp.Message
		if msg == "" {
			msg = "no payment reference issued"
		}
		return Redirect{}, fmt.Errorf("%w: %s", ErrPaymentInitiation, msg)
	}

	sess := Session{
		Reference:     resp.PaymentReference,
		SecureToken:   resp.SecureToken,
		OwnerID:       s.OwnerID,
		CartID:        req.CartID,
		Amount:        s.Totals.Total.String(),
		AmountMinor:   s.Totals.MinorUnits(b.cfg.Currency),
		Currency:      b.cfg.Currency.String(),
		Identity:      req.Identity,
		Address:       *s.Address,
		Lines:         string(lines),
		State:         StateInitiated,
		PaymentStatus: PaymentInitiated,
	}
	if err := b.sessions.Create(ctx, sess); err != nil {
		return Redirect{}, fmt.Errorf("persist payment session: %w", err)
	}
	redirect := b.redirect(sess, b.cfg.Currency)
	if err := b.sessions.Transition(ctx, sess.Reference, StateInitiated, StateRedirecting, Patch{PaymentStatus: PaymentRedirected}); err != nil {
		return Redirect{}, fmt.Errorf("mark payment session redirecting: %w", err)
	}

	b.logger.Info("payment initiated",
		zap.String("reference", sess.Reference),
		zap.String("owner_id", sess.OwnerID),
		zap.String("amount", sess.Amount),
		zap.Int64("amount_minor", sess.AmountMinor),
	)
	return redirect, nil
}

// Session returns the persisted payment session for reference, or nil.
func (b *Bridge) Session(ctx context.Context, reference string) (*Session, error) {
	return b.sessions.Get(ctx, reference)
}

// Outcome is the final result of a callback. It is stored and replayed to duplicate callbacks.
type Outcome struct {
	Reference    string         `json:"reference"`
	State        State          `json:"state"`
	ResponseCode string         `json:"response_code,omitempty"`
	Message      string         `json:"message,omitempty"`
	Order        *orders.Result `json:"order,omitempty"`
	Replayed     bool           `json:"replayed,omitempty"`
}

// Err rebuilds the error a terminal outcome was reported with.
func (o Outcome) Err() error {
	switch o.State {
	case StateFailed:
		return &PaymentDeclinedError{Reference: o.Reference, Code: o.ResponseCode, Description: o.Message}
	case StateOrderCreateFailed:
		return &OrderCreateAfterPaymentError{Reference: o.Reference, Err: errors.New(o.Message)}
	}
	return nil
}

// HandleCallback turns a return callback into at most one order. A duplicate callback for the
// same reference gets the first callback's outcome back and causes no side effects.
func (b *Bridge) HandleCallback(ctx context.Context, cb Callback) (Outcome, error) {
	if strings.TrimSpace(cb.Reference) == "" {
		return Outcome{}, validation.NewError("reference", "is required")
	}
	key := claimPrefix + cb.Reference
	logger := b.logger.With(zap.String("reference", cb.Reference), zap.String("response_code", cb.ResponseCode))

	claimed, err := b.claims.Claim(ctx, key, cb.Reference)
	if err != nil {
		return Outcome{}, fmt.Errorf("claim callback %s: %w", cb.Reference, err)
	}
	if !claimed {
		logger.Info("duplicate payment callback")
		return b.replay(ctx, key, cb.Reference)
	}

	outcome, err := b.process(ctx, cb, logger)
	if !outcome.State.IsTerminal() {
		// nothing final happened; the next arrival may retry
		if rErr := b.claims.Release(ctx, key); rErr != nil {
			logger.Error("release callback claim failed", zap.Error(rErr))
		}
		return outcome, err
	}

	data, mErr := json.Marshal(outcome)
	if mErr == nil {
		mErr = b.claims.Complete(ctx, key, string(data))
	}
	if mErr != nil {
		logger.Error("store callback outcome failed", zap.Error(mErr))
	}
	return outcome, err
}

func (b *Bridge) replay(ctx context.Context, key, reference string) (Outcome, error) {
	rec, err := b.claims.Get(ctx, key)
	if err != nil {
		return Outcome{}, fmt.Errorf("read callback outcome %s: %w", reference, err)
	}
	if !rec.Finished() {
		return Outcome{Reference: reference}, ErrCallbackInProgress
	}
	var out Outcome
	if err := json.Unmarshal([]byte(rec.Outcome), &out); err != nil {
		return Outcome{}, fmt.Errorf("decode callback outcome %s: %w", reference, err)
	}
	out.Replayed = true
	return out, out.Err()
}

func (b *Bridge) process(ctx context.Context, cb Callback, logger *zap.Logger) (Outcome, error) {
	ref := cb.Reference
	sess, err := b.sessions.Get(ctx, ref)
	if err != nil {
		return Outcome{Reference: ref}, fmt.Errorf("load payment session: %w", err)
	}
	if sess == nil {
		logger.Warn("callback for unknown payment reference")
		return Outcome{Reference: ref}, fmt.Errorf("%w: %s", ErrUnknownReference, ref)
	}
	if sess.State.IsTerminal() {
		// the claim expired long after the session finished
		out := Outcome{Reference: ref, State: sess.State, ResponseCode: sess.ResponseCode, Message: sess.FailureReason}
		return out, out.Err()
	}

	switch sess.State {
	case StateRedirecting:
		err := b.sessions.Transition(ctx, ref, StateRedirecting, StateCallbackReceived, Patch{
			PaymentStatus: PaymentCallbackReceived,
			ResponseCode:  cb.ResponseCode,
		})
		if err != nil {
			return Outcome{Reference: ref, State: sess.State}, fmt.Errorf("record callback: %w", err)
		}
	case StateCallbackReceived:
		// an earlier arrival stopped after recording the callback
	case StateOrderCreating:
		// an earlier arrival stopped while creating the order; it may exist, so never resubmit
		return b.orderFailed(ctx, ref, cb, errors.New("order creation was interrupted"), logger)
	default:
		return Outcome{Reference: ref, State: sess.State}, fmt.Errorf("%w: %s is %s", ErrStateMismatch, ref, sess.State)
	}

	if !cb.Approved() {
		reason := cb.Description
		if reason == "" {
			reason = "payment not approved"
		}
		if err := b.sessions.Transition(ctx, ref, StateCallbackReceived, StateFailed, Patch{FailureReason: reason}); err != nil {
			return Outcome{Reference: ref, State: StateCallbackReceived}, fmt.Errorf("record decline: %w", err)
		}
		logger.Info("payment declined", zap.String("description", cb.Description))
		out := Outcome{Reference: ref, State: StateFailed, ResponseCode: cb.ResponseCode, Message: reason}
		return out, out.Err()
	}

	if err := b.sessions.Transition(ctx, ref, StateCallbackReceived, StateOrderCreating, Patch{}); err != nil {
		return Outcome{Reference: ref, State: StateCallbackReceived}, fmt.Errorf("start order creation: %w", err)
	}

	result, err := b.createOrder(ctx, sess)
	if err != nil {
		return b.orderFailed(ctx, ref, cb, err, logger)
	}

	if err := b.sessions.Transition(ctx, ref, StateOrderCreating, StateSucceeded, Patch{PrimaryOrderID: result.PrimaryOrderID}); err != nil {
		// the order exists; report success and leave the session for reconciliation
		logger.Error("mark payment session succeeded failed", zap.String("order_id", result.PrimaryOrderID), zap.Error(err))
	}
	b.clearCart(ctx, sess.CartID, logger)
	b.verifyInBackground(ctx, ref)

	logger.Info("paid order created", zap.String("order_id", result.PrimaryOrderID))
	return Outcome{Reference: ref, State: StateSucceeded, ResponseCode: cb.ResponseCode, Order: &result}, nil
}

// createOrder submits the items the customer was charged for. The cart may have changed since.
func (b *Bridge) createOrder(ctx context.Context, sess *Session) (orders.Result, error) {
	items, err := sess.Items()
	if err != nil {
		return orders.Result{}, err
	}
	addr := sess.Address
	s := orders.NewSession(sess.OwnerID, &addr, payment.MethodCard, items, b.pricing)
	s.PaymentReference = sess.Reference
	if charged := sess.AmountDecimal(); !s.Totals.Total.Equal(charged) {
		return orders.Result{}, fmt.Errorf("%w: priced %s, charged %s", ErrAmountMismatch, s.Totals.Total, charged)
	}
	return b.orders.CreateOrder(ctx, s)
}

func (b *Bridge) clearCart(ctx context.Context, cartID string, logger *zap.Logger) {
	store, err := b.carts.Open(ctx, cartID)
	if err == nil {
		err = store.Clear(ctx)
	}
	if err != nil {
		logger.Error("clear cart after paid order failed", zap.String("cart_id", cartID), zap.Error(err))
	}
}

func (b *Bridge) orderFailed(ctx context.Context, ref string, cb Callback, cause error, logger *zap.Logger) (Outcome, error) {
	logger.Error("order creation failed after payment", zap.Error(cause))
	if err := b.sessions.Transition(ctx, ref, StateOrderCreating, StateOrderCreateFailed, Patch{FailureReason: cause.Error()}); err != nil {
		logger.Error("mark payment session order-create-failed failed", zap.Error(err))
	}
	if err := b.metrics.Count(ctx, MetricOrderCreateAfterPayment, nil); err != nil {
		logger.Warn("count metric failed", zap.String("metric", MetricOrderCreateAfterPayment), zap.Error(err))
	}
	out := Outcome{Reference: ref, State: StateOrderCreateFailed, ResponseCode: cb.ResponseCode, Message: cause.Error()}
	return out, &OrderCreateAfterPaymentError{Reference: ref, Err: cause}
}

// Wait blocks until background verifications have finished.
func (b *Bridge) Wait() {
	b.wg.Wait()
}

type nopCounter struct{}

func (nopCounter) Count(context.Context, string, map[string]string) error { return nil }
