// Package handlers is the storefront's HTTP surface: cart, addresses and checkout over gin.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-storefront-checkout/internal/cart"
	"github.com/imrishuroy/go-storefront-checkout/internal/checkout"
	"github.com/imrishuroy/go-storefront-checkout/internal/domain"
	"github.com/imrishuroy/go-storefront-checkout/internal/gateway"
	"github.com/imrishuroy/go-storefront-checkout/internal/orders"
	"github.com/imrishuroy/go-storefront-checkout/internal/validation"
)

// Carts opens a cart by id.
type Carts interface {
	Open(ctx context.Context, cartID string) (*cart.Store, error)
}

// Addresses is the customer's address book.
type Addresses interface {
	List(ctx context.Context, ownerID string) ([]domain.Address, error)
	Create(ctx context.Context, ownerID string, input domain.Address) (domain.Address, error)
	Select(ownerID string, addressID int64) (domain.Address, error)
	Selected(ownerID string) (domain.Address, bool)
}

// Checkout runs submissions and card returns.
type Checkout interface {
	Submit(ctx context.Context, req checkout.Request) (checkout.Result, error)
	CompleteCardPayment(ctx context.Context, cb gateway.Callback) (checkout.Result, error)
	Quote(ctx context.Context, cartID string) (orders.Totals, error)
}

// Deps groups the dependencies of the routes.
type Deps struct {
	Carts     Carts
	Addresses Addresses
	Checkout  Checkout
	Logger    *zap.Logger

	// SecureCookies marks the cart cookie Secure; off for local development over plain http.
	SecureCookies bool
}

type api struct {
	carts     Carts
	addresses Addresses
	checkout  Checkout
	validate  *validatorv10.Validate
	logger    *zap.Logger
	secure    bool
}

// Register mounts every route on r.
func Register(r *gin.Engine, deps Deps) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &api{
		carts:     deps.Carts,
		addresses: deps.Addresses,
		checkout:  deps.Checkout,
		validate:  validation.New(),
		logger:    logger,
		secure:    deps.SecureCookies,
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	carts := r.Group("/cart", a.withCart)
	carts.GET("", a.getCart)
	carts.DELETE("", a.clearCart)
	carts.POST("/items", a.addItem)
	carts.PATCH("/items/:productID", a.updateItem)
	carts.DELETE("/items/:productID", a.removeItem)

	addresses := r.Group("/addresses", a.withCustomer)
	addresses.GET("", a.listAddresses)
	addresses.POST("", a.createAddress)

	r.POST("/checkout", a.withCart, a.withCustomer, a.submitCheckout)
	r.GET("/checkout/quote", a.withCart, a.quote)
	r.GET("/checkout/return", a.paymentReturn)
}
