package orders

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Line statuses and shop assignment sent with every product line.
const (
	lineStatusPending = "Pending"
	defaultShopID     = "default"
)

// CreateOrderPayload is the body of the create-order endpoint.
type CreateOrderPayload struct {
	ID               int           `json:"id"`
	Total            json.Number   `json:"total"`
	TaxAmount        json.Number   `json:"taxAmount"`
	PaymentReference *string       `json:"paymentReference"`
	PaymentMethod    string        `json:"paymentMethod"`
	Products         []ProductLine `json:"products"`
}

// ProductLine is one cart line as the backend records it.
type ProductLine struct {
	CustomerID      string `json:"customer_id"`
	Product         string `json:"product"`
	Quantity        int    `json:"quantity"`
	ProductID       string `json:"product_id"`
	Status          string `json:"status"`
	ShopID          string `json:"shop_id"`
	OrderImage      string `json:"order_image"`
	DeliveryAddress string `json:"delivery_address"`
}

// BuildPayload maps a validated session onto the create-order body.
func BuildPayload(s Session) CreateOrderPayload {
	delivery := s.Address.DeliveryText()
	products := make([]ProductLine, 0, len(s.Items))
	for _, it := range s.Items {
		products = append(products, ProductLine{
			CustomerID:      s.OwnerID,
			Product:         it.Name,
			Quantity:        it.Quantity,
			ProductID:       it.ProductID,
			Status:          lineStatusPending,
			ShopID:          defaultShopID,
			OrderImage:      it.PrimaryImage(),
			DeliveryAddress: delivery,
		})
	}
	p := CreateOrderPayload{
		Total:         number(s.Totals.Total),
		TaxAmount:     number(s.Totals.Tax),
		PaymentMethod: s.Method.Label(),
		Products:      products,
	}
	if s.PaymentReference != "" {
		ref := s.PaymentReference
		p.PaymentReference = &ref
	}
	return p
}

func number(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}
