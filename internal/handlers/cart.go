package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/imrishuroy/go-storefront-checkout/internal/cart"
	"github.com/imrishuroy/go-storefront-checkout/internal/validation"
)

const (
	CartHeader = "X-Cart-Id"
	CartCookie = "cart_id"

	cartIDKey     = "cart_id"
	cartCookieTTL = 30 * 24 * 60 * 60 // seconds
)

// withCart resolves the cart id from the header, then the cookie. A request with neither gets a
// fresh id and a cookie carrying it.
func (a *api) withCart(c *gin.Context) {
	id := strings.TrimSpace(c.GetHeader(CartHeader))
	if id == "" {
		if v, err := c.Cookie(CartCookie); err == nil {
			id = strings.TrimSpace(v)
		}
	}
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(CartCookie, id, cartCookieTTL, "/", "", a.secure, true)
	}
	c.Set(cartIDKey, id)
	c.Header(CartHeader, id)
	c.Next()
}

func cartID(c *gin.Context) string {
	return c.GetString(cartIDKey)
}

type cartView struct {
	CartID     string          `json:"cart_id"`
	Items      []cart.Item     `json:"items"`
	TotalItems int             `json:"total_items"`
	Subtotal   decimal.Decimal `json:"subtotal"`
}

func viewOf(id string, s *cart.Store) cartView {
	items := s.Items()
	if items == nil {
		items = []cart.Item{}
	}
	return cartView{CartID: id, Items: items, TotalItems: s.TotalItems(), Subtotal: s.TotalPrice()}
}

func (a *api) openCart(c *gin.Context) (*cart.Store, bool) {
	s, err := a.carts.Open(c.Request.Context(), cartID(c))
	if err != nil {
		a.writeError(c, err)
		return nil, false
	}
	return s, true
}

func (a *api) getCart(c *gin.Context) {
	s, ok := a.openCart(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, viewOf(cartID(c), s))
}

func (a *api) addItem(c *gin.Context) {
	var req validation.AddCartItemRequest
	if err := validation.BindAndValidate(c, &req, a.validate); err != nil {
		return
	}
	s, ok := a.openCart(c)
	if !ok {
		return
	}
	item := cart.Item{
		ProductID:   req.ProductID,
		Name:        req.Name,
		UnitPrice:   req.Price,
		MaxQuantity: req.MaxQuantity,
		ImageRef:    req.ImageURLs,
	}
	if req.Size != "" || req.Color != "" {
		item.Variant = &cart.Variant{Size: req.Size, Color: req.Color}
	}
	if err := s.AddItem(c.Request.Context(), item); err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewOf(cartID(c), s))
}

func (a *api) updateItem(c *gin.Context) {
	var req validation.UpdateQuantityRequest
	if err := validation.BindAndValidate(c, &req, a.validate); err != nil {
		return
	}
	s, ok := a.openCart(c)
	if !ok {
		return
	}
	if err := s.UpdateQuantity(c.Request.Context(), c.Param("productID"), *req.Quantity); err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewOf(cartID(c), s))
}

func (a *api) removeItem(c *gin.Context) {
	s, ok := a.openCart(c)
	if !ok {
		return
	}
	if err := s.RemoveItem(c.Request.Context(), c.Param("productID")); err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewOf(cartID(c), s))
}

func (a *api) clearCart(c *gin.Context) {
	s, ok := a.openCart(c)
	if !ok {
		return
	}
	if err := s.Clear(c.Request.Context()); err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewOf(cartID(c), s))
}
