package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

// InitiatePaymentRequest asks the backend to open a secure payment session.
type InitiatePaymentRequest struct {
	Amount        json.Number `json:"amount"`
	UserID        string      `json:"userId"`
	CustomerEmail string      `json:"customerEmail,omitempty"`
	CustomerName  string      `json:"customerName,omitempty"`
}

// InitiatePaymentResponse carries the server-issued payment reference.
type InitiatePaymentResponse struct {
	Success          bool   `json:"success"`
	PaymentReference string `json:"paymentReference"`
	SecureToken      string `json:"secureToken"`
	Message          string `json:"message,omitempty"`
}

// PaymentRecord is the backend's view of a payment.
type PaymentRecord struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
	OrderID   string `json:"orderId,omitempty"`
}

// VerificationResponse is returned by the callback and status endpoints.
type VerificationResponse struct {
	Success bool          `json:"success"`
	Data    PaymentRecord `json:"data"`
	Message string        `json:"message,omitempty"`
}

// PaymentCompleted is the status the backend reports for a settled payment.
const PaymentCompleted = "completed"

// InitiateSecurePayment opens a payment session and returns its reference and token.
func (c *Client) InitiateSecurePayment(ctx context.Context, req InitiatePaymentRequest) (InitiatePaymentResponse, error) {
	var resp InitiatePaymentResponse
	data, err := c.do(ctx, http.MethodPost, PathInitiatePayment, nil, req)
	if err != nil {
		return resp, err
	}
	err = c.decode(PathInitiatePayment, data, &resp)
	return resp, err
}

// PaymentCallback asks the backend to verify reference against the gateway.
func (c *Client) PaymentCallback(ctx context.Context, reference string) (VerificationResponse, error) {
	var resp VerificationResponse
	data, err := c.do(ctx, http.MethodPost, PathPaymentCallback, nil, map[string]string{"paymentReference": reference})
	if err != nil {
		return resp, err
	}
	err = c.decode(PathPaymentCallback, data, &resp)
	return resp, err
}

// PaymentStatus reads the stored status of reference.
func (c *Client) PaymentStatus(ctx context.Context, reference string) (VerificationResponse, error) {
	var resp VerificationResponse
	data, err := c.do(ctx, http.MethodGet, PathPaymentStatus, url.Values{"reference": {reference}}, nil)
	if err != nil {
		return resp, err
	}
	err = c.decode(PathPaymentStatus, data, &resp)
	return resp, err
}
