// Package cart holds the shopping cart table and keeps it persisted through a kv.Store.
package cart

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-storefront-checkout/internal/kv"
)

// Namespace prefixes every persisted cart key.
const Namespace = "kasuwa-cart-storage"

// StorageKey is the kv key holding the table of cartID.
func StorageKey(cartID string) string {
	return Namespace + ":" + cartID
}

// Store is one cart. Mutations persist the whole table before they become visible, so a reader
// never observes an in-memory table that storage does not hold.
type Store struct {
	mu      sync.RWMutex
	key     string
	storage kv.Store
	items   []Item
	logger  *zap.Logger
}

// Open loads the cart persisted for cartID, or starts an empty one.
func Open(ctx context.Context, storage kv.Store, cartID string, logger *zap.Logger) (*Store, error) {
	if strings.TrimSpace(cartID) == "" {
		return nil, fmt.Errorf("open cart: empty cart id")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		key:     StorageKey(cartID),
		storage: storage,
		logger:  logger.With(zap.String("cart_id", cartID)),
	}
	if err := s.load(ctx); err != nil {
		return nil, fmt.Errorf("open cart %s: %w", cartID, err)
	}
	return s, nil
}

// Refresh re-reads the persisted table, picking up writes made by other processes.
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// load replaces the in-memory table with the persisted one. Callers hold s.mu or own s.
func (s *Store) load(ctx context.Context) error {
	data, found, err := s.storage.Get(ctx, s.key)
	if err != nil {
		return err
	}
	if !found {
		s.items = nil
		return nil
	}
	items, err := Unmarshal(data)
	if err != nil {
		// a corrupt entry must not lock the customer out of their cart
		s.logger.Warn("discarding unreadable cart", zap.Error(err))
		items = nil
	}
	s.items = items
	return nil
}

// AddItem merges item into the cart. A known product gains one unit unless it is already at its
// ceiling; a new product is inserted with quantity 1.
func (s *Store) AddItem(ctx context.Context, item Item) error {
	item.ProductID = strings.TrimSpace(item.ProductID)
	if item.ProductID == "" {
		return nil
	}
	item = item.normalized()

	s.mu.Lock()
	defer s.mu.Unlock()

	next := slices.Clone(s.items)
	if i := s.indexOf(item.ProductID); i >= 0 {
		cur := next[i]
		cur.MaxQuantity = item.MaxQuantity
		if cur.Quantity < cur.MaxQuantity {
			cur.Quantity++
		}
		cur.Quantity = clamp(cur.Quantity, cur.MaxQuantity)
		if cur == s.items[i] {
			return nil
		}
		next[i] = cur
	} else {
		item.Quantity = 1
		next = append(next, item)
	}
	return s.commit(ctx, next)
}

// RemoveItem deletes the line for productID. Removing an absent product is a no-op.
func (s *Store) RemoveItem(ctx context.Context, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(productID)
	if i < 0 {
		return nil
	}
	return s.commit(ctx, slices.Delete(slices.Clone(s.items), i, i+1))
}

// UpdateQuantity sets the quantity of productID, clamped to its ceiling. qty <= 0 removes the line.
func (s *Store) UpdateQuantity(ctx context.Context, productID string, qty int) error {
	if qty <= 0 {
		return s.RemoveItem(ctx, productID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(productID)
	if i < 0 {
		return nil
	}
	next := slices.Clone(s.items)
	next[i].Quantity = clamp(qty, next[i].MaxQuantity)
	if next[i].Quantity == s.items[i].Quantity {
		return nil
	}
	return s.commit(ctx, next)
}

// Clear empties the cart and removes its persisted entry.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.storage.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	s.items = nil
	s.logger.Debug("cart cleared")
	return nil
}

// Items returns a copy of the current lines in insertion order.
func (s *Store) Items() []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Item, len(s.items))
	for i, it := range s.items {
		if it.Variant != nil {
			v := *it.Variant
			it.Variant = &v
		}
		out[i] = it
	}
	return out
}

// Quantity returns the quantity held for productID, or 0.
func (s *Store) Quantity(productID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(productID); i >= 0 {
		return s.items[i].Quantity
	}
	return 0
}

// TotalItems is the sum of all quantities.
func (s *Store) TotalItems() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, it := range s.items {
		n += it.Quantity
	}
	return n
}

// TotalPrice is the sum of UnitPrice x Quantity over all lines.
func (s *Store) TotalPrice() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Subtotal(s.items)
}

// Subtotal sums the line totals of items.
func Subtotal(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.LineTotal())
	}
	return total
}

// commit persists next and then swaps it in. Callers hold s.mu.
func (s *Store) commit(ctx context.Context, next []Item) error {
	data, err := Marshal(next)
	if err != nil {
		return err
	}
	if err := s.storage.Put(ctx, s.key, data); err != nil {
		return fmt.Errorf("persist cart: %w", err)
	}
	s.items = next
	return nil
}

func (s *Store) indexOf(productID string) int {
	return slices.IndexFunc(s.items, func(it Item) bool { return it.ProductID == productID })
}
