package validation

import "github.com/shopspring/decimal"

// AddCartItemRequest is the payload for POST /cart/items.
type AddCartItemRequest struct {
	ProductID   string          `json:"product_id" validate:"required,max=128"`
	Name        string          `json:"name" validate:"required,max=256"`
	Price       decimal.Decimal `json:"price"` // checked at struct level, must be >= 0
	MaxQuantity int             `json:"max_quantity" validate:"omitempty,min=1,max=10000"`
	ImageURLs   string          `json:"image_urls" validate:"max=4096"`
	Size        string          `json:"size,omitempty" validate:"max=64"`
	Color       string          `json:"color,omitempty" validate:"max=64"`
}

// UpdateQuantityRequest is the payload for PATCH /cart/items/:productID. Zero removes the line.
type UpdateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

// CreateAddressRequest is the payload for POST /addresses.
type CreateAddressRequest struct {
	AddressType  string `json:"address_type" validate:"omitempty,oneof=home work other"`
	FirstName    string `json:"first_name" validate:"required,max=100"`
	LastName     string `json:"last_name" validate:"required,max=100"`
	Phone        string `json:"phone" validate:"required,min=7,max=20"`
	AddressLine1 string `json:"address_line_1" validate:"required,max=256"`
	AddressLine2 string `json:"address_line_2" validate:"max=256"`
	City         string `json:"city" validate:"required,max=100"`
	State        string `json:"state" validate:"required,max=100"`
	PostalCode   string `json:"postal_code" validate:"max=20"`
	Country      string `json:"country" validate:"max=100"`
	IsDefault    bool   `json:"is_default"`
}

// CheckoutRequest is the payload for POST /checkout. The payment method is parsed by the payment
// package so that an unknown value surfaces as an invalid payment method.
type CheckoutRequest struct {
	PaymentMethod string `json:"payment_method" validate:"required"`
	AddressID     int64  `json:"address_id" validate:"omitempty,min=1"`
	Email         string `json:"email" validate:"omitempty,email"`
	FirstName     string `json:"first_name" validate:"max=100"`
	LastName      string `json:"last_name" validate:"max=100"`
	Phone         string `json:"phone" validate:"max=20"`
}
