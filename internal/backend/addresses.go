package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/imrishuroy/go-storefront-checkout/internal/domain"
)

type listAddressesResponse struct {
	Success   bool             `json:"success"`
	Addresses []domain.Address `json:"addresses"`
	Message   string           `json:"message"`
}

type createAddressResponse struct {
	Success   bool            `json:"success"`
	AddressID int64           `json:"address_id"`
	Address   *domain.Address `json:"address"`
	Message   string          `json:"message"`
}

// ListAddresses returns the saved addresses of ownerID in backend order.
func (c *Client) ListAddresses(ctx context.Context, ownerID string) ([]domain.Address, error) {
	data, err := c.do(ctx, http.MethodGet, PathAddresses, url.Values{"user_id": {ownerID}}, nil)
	if err != nil {
		return nil, err
	}
	var resp listAddressesResponse
	if err := c.decode(PathAddresses, data, &resp); err != nil {
		return nil, err
	}
	if !resp.Success && len(resp.Addresses) == 0 && resp.Message != "" {
		return nil, fmt.Errorf("list addresses: %s", resp.Message)
	}
	return resp.Addresses, nil
}

// CreateAddress saves addr and returns it with its backend id.
func (c *Client) CreateAddress(ctx context.Context, addr domain.Address) (domain.Address, error) {
	data, err := c.do(ctx, http.MethodPost, PathAddresses, nil, addr)
	if err != nil {
		return domain.Address{}, err
	}
	var resp createAddressResponse
	if err := c.decode(PathAddresses, data, &resp); err != nil {
		return domain.Address{}, err
	}
	if !resp.Success {
		msg := resp.Message
		if msg == "" {
			msg = "address was not saved"
		}
		return domain.Address{}, fmt.Errorf("create address: %s", msg)
	}
	if resp.Address != nil {
		return *resp.Address, nil
	}
	addr.ID = resp.AddressID
	return addr, nil
}
