package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/go-storefront-checkout/internal/address"
	"github.com/imrishuroy/go-storefront-checkout/internal/backend"
	"github.com/imrishuroy/go-storefront-checkout/internal/domain"
	"github.com/imrishuroy/go-storefront-checkout/internal/validation"
)

// Identity headers set by the storefront's auth layer.
const (
	CustomerIDHeader        = "X-Customer-Id"
	CustomerEmailHeader     = "X-Customer-Email"
	CustomerFirstNameHeader = "X-Customer-First-Name"
	CustomerLastNameHeader  = "X-Customer-Last-Name"
	CustomerPhoneHeader     = "X-Customer-Phone"

	identityKey = "identity"
)

// withCustomer requires a customer id and forwards the caller's Authorization to the backend.
func (a *api) withCustomer(c *gin.Context) {
	id := strings.TrimSpace(c.GetHeader(CustomerIDHeader))
	if id == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{
			Error:   "missing_customer",
			Message: "sign in to continue",
		})
		return
	}
	c.Set(identityKey, domain.Identity{
		ID:        id,
		FirstName: strings.TrimSpace(c.GetHeader(CustomerFirstNameHeader)),
		LastName:  strings.TrimSpace(c.GetHeader(CustomerLastNameHeader)),
		Email:     strings.TrimSpace(c.GetHeader(CustomerEmailHeader)),
		Phone:     strings.TrimSpace(c.GetHeader(CustomerPhoneHeader)),
	})
	c.Request = c.Request.WithContext(backend.WithAuthToken(c.Request.Context(), c.GetHeader("Authorization")))
	c.Next()
}

func identity(c *gin.Context) domain.Identity {
	v, _ := c.Get(identityKey)
	id, _ := v.(domain.Identity)
	return id
}

type addressBook struct {
	Addresses []domain.Address       `json:"addresses"`
	Selected  *domain.Address        `json:"selected,omitempty"`
	Prefill   address.CheckoutFields `json:"prefill"`
}

// listAddresses returns the address book. ?address_id= changes the selection first.
func (a *api) listAddresses(c *gin.Context) {
	who := identity(c)
	addrs, err := a.addresses.List(c.Request.Context(), who.ID)
	if err != nil {
		a.writeError(c, err)
		return
	}
	if raw := c.Query("address_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			a.writeError(c, validation.NewError("address_id", "must be a number"))
			return
		}
		if _, err := a.addresses.Select(who.ID, id); err != nil {
			c.AbortWithStatusJSON(http.StatusNotFound, errorBody{Error: "address_not_found", Message: err.Error()})
			return
		}
	}

	book := addressBook{Addresses: addrs}
	if book.Addresses == nil {
		book.Addresses = []domain.Address{}
	}
	if sel, ok := a.addresses.Selected(who.ID); ok {
		book.Selected = &sel
	} else {
		book.Selected = address.SelectDefaultOrFirst(addrs)
	}
	book.Prefill = address.Prefill(who, book.Selected)
	c.JSON(http.StatusOK, book)
}

func (a *api) createAddress(c *gin.Context) {
	var req validation.CreateAddressRequest
	if err := validation.BindAndValidate(c, &req, a.validate); err != nil {
		return
	}
	who := identity(c)
	created, err := a.addresses.Create(c.Request.Context(), who.ID, domain.Address{
		AddressType: domain.AddressType(req.AddressType),
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Phone:       req.Phone,
		Line1:       req.AddressLine1,
		Line2:       req.AddressLine2,
		City:        req.City,
		State:       req.State,
		PostalCode:  req.PostalCode,
		Country:     req.Country,
		IsDefault:   req.IsDefault,
	})
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}
