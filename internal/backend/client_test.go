package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imrishuroy/go-storefront-checkout/internal/domain"
)

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(Config{BaseURL: srv.URL + "/", BreakerMaxFailures: 2, BreakerOpenTimeout: time.Minute}, nil,
		WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return c, srv
}

func TestNew_RejectsRelativeURL(t *testing.T) {
	_, err := New(Config{BaseURL: "localhost:3002"}, nil)
	require.Error(t, err)
}

func TestListAddresses(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/user-address", r.URL.Path)
		assert.Equal(t, "u-1", r.URL.Query().Get("user_id"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"success":true,"addresses":[
			{"id":4,"user_id":"u-1","first_name":"Ada","address_line_1":"1 Marina","city":"Lagos","state":"Lagos","is_default":true}]}`)
	})

	ctx := WithAuthToken(context.Background(), "Bearer tok")
	addrs, err := c.ListAddresses(ctx, "u-1")
	require.NoError(t, err)
	require.Len(t, addrs, 1)
	assert.Equal(t, int64(4), addrs[0].ID)
	assert.True(t, addrs[0].IsDefault)
	assert.Equal(t, "1 Marina", addrs[0].Line1)
}

func TestCreateAddress_UsesReturnedID(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var got domain.Address
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, "u-1", got.OwnerID)
		assert.True(t, got.IsDefault)
		_, _ = io.WriteString(w, `{"success":true,"address_id":31}`)
	})

	addr, err := c.CreateAddress(context.Background(), domain.Address{OwnerID: "u-1", IsDefault: true})
	require.NoError(t, err)
	assert.Equal(t, int64(31), addr.ID)
}

func TestCreateAddress_BackendRefusal(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"success":false,"message":"phone is invalid"}`)
	})

	_, err := c.CreateAddress(context.Background(), domain.Address{})
	require.ErrorContains(t, err, "phone is invalid")
}

func TestDo_HTTPErrorIsNetworkError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, `upstream down`)
	})

	_, err := c.CreateOrder(context.Background(), map[string]any{"id": 0})
	var ne *NetworkError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, PathCreateOrder, ne.Endpoint)
	assert.Equal(t, http.StatusBadGateway, ne.StatusCode)
	assert.Equal(t, "upstream down", ne.Body)
	assert.True(t, ne.Retryable())
	assert.ErrorIs(t, err, ErrBackendUnavailable)
}

func TestDo_BreakerOpensOnServerErrors(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	for i := 0; i < 2; i++ {
		_, err := c.PaymentStatus(context.Background(), "ref")
		require.Error(t, err)
	}
	_, err := c.PaymentStatus(context.Background(), "ref")
	var ne *NetworkError
	require.ErrorAs(t, err, &ne)
	assert.True(t, errors.Is(err, gobreaker.ErrOpenState))
	assert.Equal(t, int32(2), calls.Load())
}

func TestDo_ClientErrorsDoNotTripBreaker(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	})

	for i := 0; i < 4; i++ {
		_, err := c.PaymentCallback(context.Background(), "ref")
		var ne *NetworkError
		require.ErrorAs(t, err, &ne)
		assert.False(t, ne.Retryable())
	}
	assert.Equal(t, int32(4), calls.Load())
}

func TestDo_TransportError(t *testing.T) {
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	srv.Close()

	_, err := c.ListAddresses(context.Background(), "u")
	var ne *NetworkError
	require.ErrorAs(t, err, &ne)
	assert.Zero(t, ne.StatusCode)
	assert.True(t, ne.Retryable())
}

func TestPaymentEndpoints(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/secure-payment/initiate":
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, 10750.0, body["amount"])
			assert.Equal(t, "u-1", body["userId"])
			_, _ = io.WriteString(w, `{"success":true,"paymentReference":"KSW-1","secureToken":"tok"}`)
		case "/api/secure-payment/callback":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "KSW-1", body["paymentReference"])
			_, _ = io.WriteString(w, `{"success":true,"data":{"reference":"KSW-1","status":"completed"}}`)
		case "/api/secure-payment/status":
			assert.Equal(t, "KSW-1", r.URL.Query().Get("reference"))
			_, _ = io.WriteString(w, `{"success":true,"data":{"reference":"KSW-1","status":"pending"}}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})
	ctx := context.Background()

	started, err := c.InitiateSecurePayment(ctx, InitiatePaymentRequest{Amount: "10750", UserID: "u-1"})
	require.NoError(t, err)
	assert.Equal(t, "KSW-1", started.PaymentReference)
	assert.Equal(t, "tok", started.SecureToken)

	cb, err := c.PaymentCallback(ctx, "KSW-1")
	require.NoError(t, err)
	assert.Equal(t, PaymentCompleted, cb.Data.Status)

	st, err := c.PaymentStatus(ctx, "KSW-1")
	require.NoError(t, err)
	assert.Equal(t, "pending", st.Data.Status)
}

func TestSendOrderNotification(t *testing.T) {
	var got OrderNotificationRequest
	accept := true
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/"+PathNotification, r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		if accept {
			_, _ = io.WriteString(w, `{"success":true}`)
			return
		}
		_, _ = io.WriteString(w, `{"success":false,"message":"mailbox full"}`)
	})
	req := OrderNotificationRequest{
		Reference: "KSW-1",
		OrderID:   "55",
		Email:     &EmailMessage{To: "ada@example.com", Subject: "Order Confirmation", HTML: "<p>hi</p>"},
		WhatsApp:  &WhatsAppMessage{Phone: "+2348031234567", Text: "hi"},
	}

	require.NoError(t, c.SendOrderNotification(context.Background(), req))
	assert.Equal(t, req, got)

	accept = false
	err := c.SendOrderNotification(context.Background(), req)
	require.ErrorIs(t, err, ErrNotificationRefused)
	assert.Contains(t, err.Error(), "mailbox full")
}
