package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrNotificationRefused is returned when the backend answers without accepting a notification.
var ErrNotificationRefused = errors.New("notification refused")

// EmailMessage is a rendered order confirmation email.
type EmailMessage struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// WhatsAppMessage is a rendered order confirmation chat message.
type WhatsAppMessage struct {
	Phone string `json:"phone,omitempty"`
	Text  string `json:"text"`
}

// OrderNotificationRequest hands the rendered confirmations to the backend for delivery.
type OrderNotificationRequest struct {
	Reference string           `json:"reference"`
	OrderID   string           `json:"orderId,omitempty"`
	Email     *EmailMessage    `json:"email,omitempty"`
	WhatsApp  *WhatsAppMessage `json:"whatsapp,omitempty"`
}

type notificationResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// SendOrderNotification asks the backend to deliver the confirmations of one order.
func (c *Client) SendOrderNotification(ctx context.Context, req OrderNotificationRequest) error {
	data, err := c.do(ctx, http.MethodPost, PathNotification, nil, req)
	if err != nil {
		return err
	}
	var resp notificationResponse
	if err := c.decode(PathNotification, data, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("%w for %s: %s", ErrNotificationRefused, req.Reference, resp.Message)
	}
	return nil
}
