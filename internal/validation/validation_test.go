package validation

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

func TestAddCartItemRequest_Valid(t *testing.T) {
	v := New()

	req := AddCartItemRequest{
		ProductID:   "P1",
		Name:        "Adire scarf",
		Price:       decimal.NewFromInt(1000),
		MaxQuantity: 3,
	}

	if err := v.Struct(req); err != nil {
		t.Fatalf("expected valid, got error: %v", err)
	}
}

func TestAddCartItemRequest_NegativePrice(t *testing.T) {
	v := New()

	req := AddCartItemRequest{
		ProductID: "P1",
		Name:      "Adire scarf",
		Price:     decimal.NewFromInt(-1),
	}

	if err := v.Struct(req); err == nil {
		t.Fatal("expected validation error for negative price, got nil")
	}
}

func TestCheckoutRequest_EmailIsOptional(t *testing.T) {
	v := New()

	// card checkouts may take the email from the signed-in identity instead
	if err := v.Struct(CheckoutRequest{PaymentMethod: "card"}); err != nil {
		t.Fatalf("expected valid card checkout without email, got %v", err)
	}
	if err := v.Struct(CheckoutRequest{PaymentMethod: "card", Email: "not-an-email"}); err == nil {
		t.Fatal("expected malformed email to be rejected")
	}
}

func TestCreateAddressRequest_MissingFields(t *testing.T) {
	v := New()

	req := CreateAddressRequest{
		FirstName:   "Ada",
		AddressType: "castle",
	}

	if err := v.Struct(req); err == nil {
		t.Fatal("expected validation errors for missing required fields, got nil")
	}
}

func TestError_MatchesSentinel(t *testing.T) {
	cause := errors.New("unknown method")
	err := error(WrapError("payment_method", "is not supported", cause))

	if !errors.Is(err, ErrValidation) {
		t.Fatal("expected errors.Is(err, ErrValidation)")
	}
	if !errors.Is(err, cause) {
		t.Fatal("expected wrapped cause to match")
	}
	var ve *Error
	if !errors.As(err, &ve) || ve.Field != "payment_method" {
		t.Fatalf("expected *Error for payment_method, got %v", err)
	}
	if got := err.Error(); got != "validation: payment_method is not supported" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestBindAndValidate_WritesFieldErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/cart/items", strings.NewReader(`{"name":"x","price":"5"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	var req AddCartItemRequest
	if err := BindAndValidate(c, &req, New()); err == nil {
		t.Fatal("expected error for missing product_id")
	}
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"ProductID":"required"`) {
		t.Fatalf("expected ProductID field error, got %s", w.Body.String())
	}
}
