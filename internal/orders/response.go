package orders

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Kind tags the shape a create-order response arrived in.
type Kind int

const (
	KindUnrecognized Kind = iota
	KindDirectID          // {success, orderId}
	KindNestedID          // {success, result: {primaryOrderId}}
	KindBatch             // {success, result: {orders: [{orderId}], taxTransactions}}
	KindRejected          // {success: false, message somewhere}
)

func (k Kind) String() string {
	switch k {
	case KindDirectID:
		return "direct_id"
	case KindNestedID:
		return "nested_id"
	case KindBatch:
		return "batch"
	case KindRejected:
		return "rejected"
	default:
		return "unrecognized"
	}
}

// Response is the canonical reading of a create-order response body.
type Response struct {
	Kind            Kind
	PrimaryOrderID  string
	OrderIDs        []string
	TaxTransactions int
	Message         string
}

type rawBatchOrder struct {
	OrderID json.RawMessage `json:"orderId"`
}

type rawResult struct {
	PrimaryOrderID       json.RawMessage   `json:"primaryOrderId"`
	OrderID              json.RawMessage   `json:"orderId"`
	Orders               []rawBatchOrder   `json:"orders"`
	TaxTransactions      []json.RawMessage `json:"taxTransactions"`
	TotalTaxTransactions int               `json:"totalTaxTransactions"`
	Message              string            `json:"message"`
	Error                string            `json:"error"`
}

type rawResponse struct {
	Success *bool           `json:"success"`
	OrderID json.RawMessage `json:"orderId"`
	Result  json.RawMessage `json:"result"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

// Normalize maps every known create-order response shape onto Response. Bodies that match no
// known shape come back as KindUnrecognized.
func Normalize(body []byte) Response {
	body = bytes.TrimSpace(body)
	var raw rawResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		var msg string
		if json.Unmarshal(body, &msg) == nil && strings.TrimSpace(msg) != "" {
			return Response{Kind: KindRejected, Message: strings.TrimSpace(msg)}
		}
		return Response{Kind: KindUnrecognized}
	}

	var result rawResult
	if len(raw.Result) > 0 && raw.Result[0] == '{' {
		// a result that is not an object carries no ids or messages
		_ = json.Unmarshal(raw.Result, &result)
	}

	if raw.Success == nil || !*raw.Success {
		msg := firstNonEmpty(result.Message, result.Error, raw.Message, raw.Error)
		if msg == "" {
			return Response{Kind: KindUnrecognized}
		}
		return Response{Kind: KindRejected, Message: msg}
	}

	batch := make([]string, 0, len(result.Orders))
	for _, o := range result.Orders {
		if id := idString(o.OrderID); id != "" {
			batch = append(batch, id)
		}
	}
	nested := firstNonEmpty(idString(result.PrimaryOrderID), idString(result.OrderID))
	direct := idString(raw.OrderID)

	resp := Response{
		TaxTransactions: max(len(result.TaxTransactions), result.TotalTaxTransactions),
	}
	switch {
	case len(batch) > 0:
		resp.Kind = KindBatch
	case nested != "":
		resp.Kind = KindNestedID
	case direct != "":
		resp.Kind = KindDirectID
	default:
		return Response{Kind: KindUnrecognized}
	}
	resp.PrimaryOrderID = firstNonEmpty(nested, direct, firstOf(batch))
	resp.OrderIDs = batch
	if len(resp.OrderIDs) == 0 {
		resp.OrderIDs = []string{resp.PrimaryOrderID}
	}
	return resp
}

// idString reads an id that may be a JSON string or number. Zero and empty mean absent.
func idString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil && n.String() != "0" {
		return n.String()
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func firstOf(ids []string) string {
	if len(ids) == 0 {
		return ""
	}
	return ids[0]
}
