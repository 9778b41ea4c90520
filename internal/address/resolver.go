// Package address resolves the delivery address used at checkout.
package address

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/imrishuroy/go-storefront-checkout/internal/domain"
	"github.com/imrishuroy/go-storefront-checkout/internal/observability"
	"github.com/imrishuroy/go-storefront-checkout/internal/validation"
)

// Backend is the address API of the commerce backend.
type Backend interface {
	ListAddresses(ctx context.Context, ownerID string) ([]domain.Address, error)
	CreateAddress(ctx context.Context, addr domain.Address) (domain.Address, error)
}

// Resolver caches each owner's addresses and their current selection.
type Resolver struct {
	backend Backend
	logger  *zap.Logger

	mu       sync.Mutex
	cache    map[string][]domain.Address
	selected map[string]int64
}

// NewResolver returns a Resolver over backend.
func NewResolver(backend Backend, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		backend:  backend,
		logger:   logger,
		cache:    map[string][]domain.Address{},
		selected: map[string]int64{},
	}
}

// List fetches the owner's addresses and refreshes the cache. No addresses is not an error.
func (r *Resolver) List(ctx context.Context, ownerID string) ([]domain.Address, error) {
	addrs, err := r.backend.ListAddresses(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list addresses for %s: %w", ownerID, err)
	}
	r.mu.Lock()
	r.cache[ownerID] = slices.Clone(addrs)
	r.mu.Unlock()
	return addrs, nil
}

// Cached returns the last fetched addresses of the owner.
func (r *Resolver) Cached(ownerID string) ([]domain.Address, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	addrs, ok := r.cache[ownerID]
	return slices.Clone(addrs), ok
}

// SelectDefaultOrFirst prefers the default address, then the first one, then nil.
func SelectDefaultOrFirst(addrs []domain.Address) *domain.Address {
	if len(addrs) == 0 {
		return nil
	}
	for i := range addrs {
		if addrs[i].IsDefault {
			a := addrs[i]
			return &a
		}
	}
	a := addrs[0]
	return &a
}

// Create saves a new address for the owner. The owner's first address is always the default.
// On success the cache is refreshed and the new address becomes the selection.
func (r *Resolver) Create(ctx context.Context, ownerID string, input domain.Address) (domain.Address, error) {
	existing, ok := r.Cached(ownerID)
	if !ok {
		var err error
		if existing, err = r.List(ctx, ownerID); err != nil {
			return domain.Address{}, err
		}
	}

	input = input.WithDefaults()
	input.ID = 0
	input.OwnerID = ownerID
	if len(existing) == 0 {
		input.IsDefault = true
	}

	created, err := r.backend.CreateAddress(ctx, input)
	if err != nil {
		return domain.Address{}, fmt.Errorf("create address for %s: %w", ownerID, err)
	}

	if _, err := r.List(ctx, ownerID); err != nil {
		// the address exists; a stale cache is recoverable on the next List
		observability.Logger(ctx, r.logger).Warn("refresh addresses after create failed",
			zap.String("owner_id", ownerID), zap.Error(err))
		r.mu.Lock()
		r.cache[ownerID] = append(r.cache[ownerID], created)
		r.mu.Unlock()
	}

	r.mu.Lock()
	r.selected[ownerID] = created.ID
	r.mu.Unlock()
	return created, nil
}

// Select marks a cached address as the owner's choice.
func (r *Resolver) Select(ownerID string, addressID int64) (domain.Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.cache[ownerID] {
		if a.ID == addressID {
			r.selected[ownerID] = addressID
			return a, nil
		}
	}
	return domain.Address{}, fmt.Errorf("address %d not found for %s", addressID, ownerID)
}

// Selected returns the owner's current selection when it is still cached.
func (r *Resolver) Selected(ownerID string) (domain.Address, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.selected[ownerID]
	if !ok {
		return domain.Address{}, false
	}
	for _, a := range r.cache[ownerID] {
		if a.ID == id {
			return a, true
		}
	}
	return domain.Address{}, false
}

// Resolve returns the delivery address for checkout: addressID when given, else the current
// selection, else the default or first saved address. It returns nil when the owner has none
// and a validation error when addressID is not one of theirs.
func (r *Resolver) Resolve(ctx context.Context, ownerID string, addressID int64) (*domain.Address, error) {
	if addressID == 0 {
		if a, ok := r.Selected(ownerID); ok {
			return &a, nil
		}
	}
	addrs, err := r.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if addressID != 0 {
		a, err := r.Select(ownerID, addressID)
		if err != nil {
			return nil, validation.WrapError("address_id", "not found", err)
		}
		return &a, nil
	}
	a := SelectDefaultOrFirst(addrs)
	if a != nil {
		r.mu.Lock()
		r.selected[ownerID] = a.ID
		r.mu.Unlock()
	}
	return a, nil
}

// CheckoutFields are the pre-filled contact and delivery fields of the checkout form.
type CheckoutFields struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
}

// Prefill merges the identity with the selected address; the address wins where both are set.
func Prefill(identity domain.Identity, addr *domain.Address) CheckoutFields {
	f := CheckoutFields{
		FirstName: identity.FirstName,
		LastName:  identity.LastName,
		Email:     identity.Email,
		Phone:     identity.Phone,
	}
	if addr == nil {
		return f
	}
	f.FirstName = firstNonEmpty(addr.FirstName, f.FirstName)
	f.LastName = firstNonEmpty(addr.LastName, f.LastName)
	f.Phone = firstNonEmpty(addr.Phone, f.Phone)
	f.Address = addr.Line1
	f.City = addr.City
	f.State = addr.State
	f.PostalCode = addr.PostalCode
	return f
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
