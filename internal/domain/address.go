package domain

import (
	"strings"
	"time"
)

// AddressType classifies a delivery address.
type AddressType string

const (
	AddressTypeHome  AddressType = "home"
	AddressTypeWork  AddressType = "work"
	AddressTypeOther AddressType = "other"
)

// DefaultCountry is applied when an address omits its country.
const DefaultCountry = "Nigeria"

// Address is a delivery address owned by one customer. Field names follow the backend's wire format.
type Address struct {
	ID          int64       `json:"id,omitempty"`
	OwnerID     string      `json:"user_id"`
	AddressType AddressType `json:"address_type"`
	FirstName   string      `json:"first_name"`
	LastName    string      `json:"last_name"`
	Phone       string      `json:"phone"`
	Line1       string      `json:"address_line_1"`
	Line2       string      `json:"address_line_2,omitempty"`
	City        string      `json:"city"`
	State       string      `json:"state"`
	PostalCode  string      `json:"postal_code,omitempty"`
	Country     string      `json:"country"`
	IsDefault   bool        `json:"is_default"`
	CreatedAt   *time.Time  `json:"created_at,omitempty"`
	UpdatedAt   *time.Time  `json:"updated_at,omitempty"`
}

// RecipientName joins the first and last name.
func (a Address) RecipientName() string {
	return strings.TrimSpace(strings.TrimSpace(a.FirstName) + " " + strings.TrimSpace(a.LastName))
}

// DeliveryText renders the single-line delivery string sent with every order line:
// "line1, city, state postal".
func (a Address) DeliveryText() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{a.Line1, a.City} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	tail := strings.TrimSpace(strings.TrimSpace(a.State) + " " + strings.TrimSpace(a.PostalCode))
	if tail != "" {
		parts = append(parts, tail)
	}
	return strings.Join(parts, ", ")
}

// WithDefaults fills the address type and country when absent.
func (a Address) WithDefaults() Address {
	switch a.AddressType {
	case AddressTypeHome, AddressTypeWork, AddressTypeOther:
	default:
		a.AddressType = AddressTypeHome
	}
	if strings.TrimSpace(a.Country) == "" {
		a.Country = DefaultCountry
	}
	return a
}
