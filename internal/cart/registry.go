package cart

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/imrishuroy/go-storefront-checkout/internal/kv"
)

// Registry hands out one Store per cart id so that concurrent requests on a cart share its lock.
type Registry struct {
	mu      sync.Mutex
	storage kv.Store
	open    map[string]*Store
	logger  *zap.Logger
}

// NewRegistry returns a Registry persisting carts through storage.
func NewRegistry(storage kv.Store, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		storage: storage,
		open:    map[string]*Store{},
		logger:  logger,
	}
}

// Open returns the Store for cartID. A cached Store is refreshed from storage first, since
// another instance may have written the cart since it was loaded.
func (r *Registry) Open(ctx context.Context, cartID string) (*Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.open[cartID]; ok {
		if err := s.Refresh(ctx); err != nil {
			return nil, fmt.Errorf("refresh cart %s: %w", cartID, err)
		}
		return s, nil
	}
	s, err := Open(ctx, r.storage, cartID, r.logger)
	if err != nil {
		return nil, err
	}
	r.open[cartID] = s
	return s, nil
}

// Forget drops the cached Store so the next Open reloads it from storage.
func (r *Registry) Forget(cartID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.open, cartID)
}
