// Package checkout sequences a checkout: it reads the cart, resolves the address, prices the
// order and branches on the payment method.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/imrishuroy/go-storefront-checkout/internal/cart"
	"github.com/imrishuroy/go-storefront-checkout/internal/domain"
	"github.com/imrishuroy/go-storefront-checkout/internal/gateway"
	"github.com/imrishuroy/go-storefront-checkout/internal/notify"
	"github.com/imrishuroy/go-storefront-checkout/internal/orders"
	"github.com/imrishuroy/go-storefront-checkout/internal/payment"
	"github.com/imrishuroy/go-storefront-checkout/internal/validation"
)

// ErrSubmitInProgress is returned while another submission for the same cart is running.
var ErrSubmitInProgress = errors.New("checkout already in progress for this cart")

const lockPrefix = "checkout-submit:"

type Carts interface {
	Open(ctx context.Context, cartID string) (*cart.Store, error)
}

type Addresses interface {
	Resolve(ctx context.Context, ownerID string, addressID int64) (*domain.Address, error)
}

type OrderCreator interface {
	CreateOrder(ctx context.Context, s orders.Session) (orders.Result, error)
}

type Gateway interface {
	Initiate(ctx context.Context, req gateway.InitiateRequest) (gateway.Redirect, error)
	HandleCallback(ctx context.Context, cb gateway.Callback) (gateway.Outcome, error)
	Session(ctx context.Context, reference string) (*gateway.Session, error)
}

type Notifier interface {
	Dispatch(ctx context.Context, n notify.Notification) error
}

// Locker holds a key for one caller at a time.
type Locker interface {
	Claim(ctx context.Context, key, reference string) (bool, error)
	Release(ctx context.Context, key string) error
}

// BankDetails is where transfer customers pay.
type BankDetails struct {
	BankName      string `json:"bank_name"`
	AccountNumber string `json:"account_number"`
	AccountName   string `json:"account_name"`
}

// Contact holds the store's hand-off details.
type Contact struct {
	WhatsAppNumber string
	SupportPhone   string
	Bank           BankDetails
}

type Deps struct {
	Carts     Carts
	Addresses Addresses
	Orders    OrderCreator
	Gateway   Gateway
	Notifier  Notifier
	Locks     Locker
	Pricing   orders.Pricing
	Contact   Contact
	Logger    *zap.Logger
}

// Service runs checkouts.
type Service struct {
	carts     Carts
	addresses Addresses
	orders    OrderCreator
	gateway   Gateway
	notifier  Notifier
	locks     Locker
	pricing   orders.Pricing
	contact   Contact
	logger    *zap.Logger
}

func NewService(deps Deps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		carts:     deps.Carts,
		addresses: deps.Addresses,
		orders:    deps.Orders,
		gateway:   deps.Gateway,
		notifier:  deps.Notifier,
		locks:     deps.Locks,
		pricing:   deps.Pricing,
		contact:   deps.Contact,
		logger:    logger.Named("checkout"),
	}
}

// Request is one submission.
type Request struct {
	Identity  domain.Identity
	CartID    string
	Method    string
	AddressID int64
}

// Result describes what the customer does next.
type Result struct {
	Method      payment.Method    `json:"payment_method"`
	Totals      orders.Totals     `json:"totals"`
	Order       *orders.Result    `json:"order,omitempty"`
	WhatsAppURL string            `json:"whatsapp_url,omitempty"`
	Bank        *BankDetails      `json:"bank_details,omitempty"`
	Redirect    *gateway.Redirect `json:"redirect,omitempty"`
	Reference   string            `json:"reference,omitempty"`
	State       gateway.State     `json:"state,omitempty"`
	Replayed    bool              `json:"replayed,omitempty"`
}

// Submit places the order for a cart. WhatsApp and transfer orders are created at once and
// clear the cart; card orders leave for the hosted payment page with the cart intact.
func (s *Service) Submit(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.CartID) == "" {
		return Result{}, validation.NewError("cart_id", "is required")
	}

	method, err := payment.ParseMethod(req.Method)
	if err != nil {
		return Result{}, err
	}
	if strings.TrimSpace(req.Identity.ID) == "" {
		return Result{}, validation.NewError("owner_id", "is required")
	}
	if method.RequiresGateway() && strings.TrimSpace(req.Identity.Email) == "" {
		// the hosted page receives it as cust_email
		return Result{}, validation.NewError("email", "is required for card payments")
	}

	key := lockPrefix + req.CartID
	locked, err := s.locks.Claim(ctx, key, req.Identity.ID)
	if err != nil {
		return Result{}, fmt.Errorf("lock cart %s: %w", req.CartID, err)
	}
	if !locked {
		return Result{}, ErrSubmitInProgress
	}
	defer func() {
		if err := s.locks.Release(context.WithoutCancel(ctx), key); err != nil {
			s.logger.Error("release checkout lock failed", zap.String("cart_id", req.CartID), zap.Error(err))
		}
	}()

	store, err := s.carts.Open(ctx, req.CartID)
	if err != nil {
		return Result{}, fmt.Errorf("open cart: %w", err)
	}
	items := store.Items()
	if len(items) == 0 {
		return Result{}, validation.NewError("items", "cart is empty")
	}

	addr, err := s.addresses.Resolve(ctx, req.Identity.ID, req.AddressID)
	if err != nil {
		return Result{}, fmt.Errorf("resolve address: %w", err)
	}
	if addr == nil {
		return Result{}, validation.NewError("address", "add a delivery address before checkout")
	}

	session := orders.NewSession(req.Identity.ID, addr, method, items, s.pricing)
	logger := s.logger.With(
		zap.String("cart_id", req.CartID),
		zap.String("owner_id", req.Identity.ID),
		zap.String("payment_method", string(method)),
	)

	if method.RequiresGateway() {
		redirect, err := s.gateway.Initiate(ctx, gateway.InitiateRequest{
			Session:  session,
			CartID:   req.CartID,
			Identity: req.Identity,
		})
		if err != nil {
			return Result{}, err
		}
		logger.Info("card checkout redirected", zap.String("reference", redirect.Reference))
		return Result{
			Method:    method,
			Totals:    session.Totals,
			Redirect:  &redirect,
			Reference: redirect.Reference,
			State:     gateway.StateRedirecting,
		}, nil
	}

	order, err := s.orders.CreateOrder(ctx, session)
	if err != nil {
		return Result{}, err
	}
	if err := store.Clear(ctx); err != nil {
		// the order exists; a stale cart is the lesser problem
		logger.Error("clear cart after order failed", zap.String("order_id", order.PrimaryOrderID), zap.Error(err))
	}
	logger.Info("order placed", zap.String("order_id", order.PrimaryOrderID))

	out := Result{Method: method, Totals: session.Totals, Order: &order}
	switch method {
	case payment.MethodWhatsApp:
		n := notify.Format(order, req.Identity, addr.DeliveryText())
		msg := notify.HandoffMessage(n, session.Totals, s.contact.SupportPhone)
		out.WhatsAppURL = notify.WhatsAppURL(s.contact.WhatsAppNumber, msg)
	case payment.MethodTransfer:
		bank := s.contact.Bank
		out.Bank = &bank
	}
	return out, nil
}

// CompleteCardPayment handles the hosted page's return. The first successful callback for a
// reference queues the customer's confirmation.
func (s *Service) CompleteCardPayment(ctx context.Context, cb gateway.Callback) (Result, error) {
	outcome, err := s.gateway.HandleCallback(ctx, cb)
	res := Result{
		Method:    payment.MethodCard,
		Order:     outcome.Order,
		Reference: outcome.Reference,
		State:     outcome.State,
		Replayed:  outcome.Replayed,
	}
	if outcome.Order != nil {
		res.Totals = outcome.Order.Totals
	}
	if err != nil {
		return res, err
	}
	if outcome.State == gateway.StateSucceeded && !outcome.Replayed && outcome.Order != nil {
		s.confirm(ctx, outcome)
	}
	return res, nil
}

func (s *Service) confirm(ctx context.Context, outcome gateway.Outcome) {
	logger := s.logger.With(zap.String("reference", outcome.Reference))
	if s.notifier == nil {
		return
	}
	sess, err := s.gateway.Session(ctx, outcome.Reference)
	if err != nil || sess == nil {
		logger.Warn("payment session unavailable for confirmation", zap.Error(err))
		return
	}
	n := notify.Format(*outcome.Order, sess.Identity, sess.Address.DeliveryText())
	if err := s.notifier.Dispatch(ctx, n); err != nil {
		logger.Error("queue payment confirmation failed", zap.Error(err))
	}
}

// Quote prices the cart as it stands.
func (s *Service) Quote(ctx context.Context, cartID string) (orders.Totals, error) {
	if strings.TrimSpace(cartID) == "" {
		return orders.Totals{}, validation.NewError("cart_id", "is required")
	}
	store, err := s.carts.Open(ctx, cartID)
	if err != nil {
		return orders.Totals{}, fmt.Errorf("open cart: %w", err)
	}
	return s.pricing.Quote(store.TotalPrice()), nil
}
