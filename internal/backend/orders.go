package backend

import (
	"context"
	"encoding/json"
	"net/http"
)

// CreateOrder posts payload to the order endpoint and returns the undecoded body; the response
// comes in several shapes and is normalized by the caller.
func (c *Client) CreateOrder(ctx context.Context, payload any) (json.RawMessage, error) {
	data, err := c.do(ctx, http.MethodPost, PathCreateOrder, nil, payload)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}
