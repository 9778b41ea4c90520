package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-storefront-checkout/internal/backend"
	"github.com/imrishuroy/go-storefront-checkout/internal/checkout"
	"github.com/imrishuroy/go-storefront-checkout/internal/gateway"
	"github.com/imrishuroy/go-storefront-checkout/internal/observability"
	"github.com/imrishuroy/go-storefront-checkout/internal/orders"
	"github.com/imrishuroy/go-storefront-checkout/internal/validation"
)

// errorBody is the JSON error envelope of every route.
type errorBody struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Field     string `json:"field,omitempty"`
	Reference string `json:"reference,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

// classify maps an error onto a status and envelope. Order matters: an order failure after
// payment also matches the validation or rejection error it wraps.
func classify(err error) (int, errorBody) {
	var (
		verr     *validation.Error
		declined *gateway.PaymentDeclinedError
		afterPay *gateway.OrderCreateAfterPaymentError
		rejected *orders.RejectedError
		ambig    *orders.AmbiguousResponseError
		netErr   *backend.NetworkError
	)
	switch {
	case errors.As(err, &declined):
		msg := declined.Description
		if msg == "" {
			msg = "payment was declined"
		}
		return http.StatusPaymentRequired, errorBody{Error: "payment_declined", Message: msg, Reference: declined.Reference}
	case errors.As(err, &afterPay):
		return http.StatusBadGateway, errorBody{
			Error:     "order_create_after_payment",
			Message:   "payment was received but the order could not be recorded; contact support with the reference",
			Reference: afterPay.Reference,
		}
	case errors.As(err, &verr):
		return http.StatusBadRequest, errorBody{
			Error:   "validation_failed",
			Message: verr.Field + " " + verr.Reason,
			Field:   verr.Field,
		}
	case errors.Is(err, checkout.ErrSubmitInProgress):
		return http.StatusConflict, errorBody{Error: "checkout_in_progress", Message: err.Error(), Retryable: true}
	case errors.Is(err, gateway.ErrCallbackInProgress):
		return http.StatusAccepted, errorBody{Error: "payment_processing", Message: "payment is still being processed"}
	case errors.Is(err, gateway.ErrUnknownReference):
		return http.StatusNotFound, errorBody{Error: "unknown_reference", Message: err.Error()}
	case errors.As(err, &rejected):
		return http.StatusUnprocessableEntity, errorBody{Error: "order_rejected", Message: rejected.Message, Reference: rejected.Reference}
	case errors.As(err, &ambig):
		return http.StatusBadGateway, errorBody{Error: "order_status_unknown", Message: ambig.Message, Reference: ambig.Reference}
	case errors.Is(err, gateway.ErrPaymentInitiation):
		return http.StatusBadGateway, errorBody{Error: "payment_initiation_failed", Message: err.Error(), Retryable: true}
	case errors.As(err, &netErr):
		return http.StatusBadGateway, errorBody{Error: "backend_unavailable", Message: "the store is unreachable, try again", Retryable: netErr.Retryable()}
	}
	return http.StatusInternalServerError, errorBody{Error: "internal_server_error", Message: "internal server error"}
}

// writeError answers with the envelope for err. Server-side failures are logged with the cause.
func (a *api) writeError(c *gin.Context, err error) {
	status, body := classify(err)
	logger := observability.Logger(c.Request.Context(), a.logger)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", zap.String("error_code", body.Error), zap.Error(err))
	} else {
		logger.Info("request refused", zap.String("error_code", body.Error), zap.Error(err))
	}
	c.AbortWithStatusJSON(status, body)
}
