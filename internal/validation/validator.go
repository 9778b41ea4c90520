package validation

import validatorv10 "github.com/go-playground/validator/v10"

// New returns a validator with the struct-level rules of the request types registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	v.RegisterStructValidation(addCartItemStructValidation, AddCartItemRequest{})

	return v
}

func addCartItemStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(AddCartItemRequest)
	if req.Price.IsNegative() {
		sl.ReportError(req.Price, "price", "Price", "price_not_negative", req.Price.String())
	}
}
