package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/go-storefront-checkout/internal/checkout"
	"github.com/imrishuroy/go-storefront-checkout/internal/gateway"
	"github.com/imrishuroy/go-storefront-checkout/internal/validation"
)

// submitCheckout places the order. A browser asking for HTML on the card path gets the
// auto-submitting form for the hosted payment page instead of JSON.
func (a *api) submitCheckout(c *gin.Context) {
	var req validation.CheckoutRequest
	if err := validation.BindAndValidate(c, &req, a.validate); err != nil {
		return
	}

	who := identity(c)
	if req.FirstName != "" {
		who.FirstName = req.FirstName
	}
	if req.LastName != "" {
		who.LastName = req.LastName
	}
	if req.Email != "" {
		who.Email = req.Email
	}
	if req.Phone != "" {
		who.Phone = req.Phone
	}

	res, err := a.checkout.Submit(c.Request.Context(), checkout.Request{
		Identity:  who,
		CartID:    cartID(c),
		Method:    req.PaymentMethod,
		AddressID: req.AddressID,
	})
	if err != nil {
		a.writeError(c, err)
		return
	}

	if res.Redirect != nil {
		if c.NegotiateFormat(gin.MIMEJSON, gin.MIMEHTML) == gin.MIMEHTML {
			page, err := res.Redirect.HTML()
			if err != nil {
				a.writeError(c, err)
				return
			}
			c.Data(http.StatusOK, "text/html; charset=utf-8", page)
			return
		}
		c.JSON(http.StatusOK, res)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (a *api) quote(c *gin.Context) {
	totals, err := a.checkout.Quote(c.Request.Context(), cartID(c))
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart_id": cartID(c), "totals": totals})
}

// paymentReturn is where the hosted page sends the customer back. Refreshes and duplicate
// returns replay the first outcome.
func (a *api) paymentReturn(c *gin.Context) {
	cb, ok := gateway.ParseCallback(c.Request.URL.Query())
	if !ok {
		a.writeError(c, validation.NewError("reference", "is required"))
		return
	}
	res, err := a.checkout.CompleteCardPayment(c.Request.Context(), cb)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
