package cart

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultMaxQuantity is the supply ceiling applied when an item does not carry one.
const DefaultMaxQuantity = 99

// Variant is the optional size/color selection of a line.
type Variant struct {
	Size  string `json:"size,omitempty"`
	Color string `json:"color,omitempty"`
}

// Item is one cart line. Quantity always stays within [1, MaxQuantity].
type Item struct {
	ProductID   string          `json:"product_id"`
	Name        string          `json:"name"`
	UnitPrice   decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	MaxQuantity int             `json:"max_quantity"`
	ImageRef    string          `json:"image_urls,omitempty"`
	Variant     *Variant        `json:"variant,omitempty"`
}

// LineTotal is UnitPrice x Quantity.
func (i Item) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// PrimaryImage returns the first non-empty reference of the comma-joined ImageRef.
func (i Item) PrimaryImage() string {
	for _, ref := range strings.Split(i.ImageRef, ",") {
		if ref = strings.TrimSpace(ref); ref != "" {
			return ref
		}
	}
	return ""
}

func (i Item) normalized() Item {
	if i.MaxQuantity < 1 {
		i.MaxQuantity = DefaultMaxQuantity
	}
	i.Quantity = clamp(i.Quantity, i.MaxQuantity)
	if i.UnitPrice.IsNegative() {
		i.UnitPrice = decimal.Zero
	}
	if i.Variant != nil && i.Variant.Size == "" && i.Variant.Color == "" {
		i.Variant = nil
	}
	return i
}

func clamp(qty, ceiling int) int {
	if qty < 1 {
		return 1
	}
	if qty > ceiling {
		return ceiling
	}
	return qty
}
