package gateway

import (
	"net/url"
	"strings"
)

const (
	approvedCode        = "00"
	approvedDescription = "Approved by Financial Institution"
)

// Callback is what the hosted page reports on its return redirect.
type Callback struct {
	Reference    string `json:"reference"`
	ResponseCode string `json:"response_code"`
	Description  string `json:"description,omitempty"`
	Amount       string `json:"amount,omitempty"`
}

// Approved reports whether the gateway approved the payment.
func (c Callback) Approved() bool {
	return c.ResponseCode == approvedCode || strings.EqualFold(c.Description, approvedDescription)
}

// ParseCallback reads the return parameters. ok is false when no reference is present.
func ParseCallback(q url.Values) (Callback, bool) {
	cb := Callback{
		ResponseCode: first(q, "resp", "response", "ResponseCode"),
		Reference:    first(q, "txnref", "txn_ref", "transactionreference", "reference"),
		Description:  first(q, "desc", "ResponseDescription"),
		Amount:       first(q, "amount"),
	}
	return cb, cb.Reference != ""
}

func first(q url.Values, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(q.Get(k)); v != "" {
			return v
		}
	}
	return ""
}
