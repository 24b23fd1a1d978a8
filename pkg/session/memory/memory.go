// Package memory provides an in-process session backend.
package memory

import (
	"context"
	"sync"

	"storefront/pkg/cart"
	"storefront/pkg/session"
)

// Backend keeps carts in a map. Carts are cloned on the way in and out so
// callers never share state with the stored copy.
type Backend struct {
	mu    sync.RWMutex
	carts map[string]*cart.Cart
}

var _ session.Backend = (*Backend)(nil)

// New creates an empty Backend.
func New() *Backend {
	return &Backend{carts: make(map[string]*cart.Cart)}
}

func (b *Backend) Get(ctx context.Context, sid string) (*cart.Cart, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	c, ok := b.carts[sid]
	if !ok {
		return nil, session.ErrNoCart
	}
	return c.Clone(), nil
}

func (b *Backend) Put(ctx context.Context, sid string, c *cart.Cart) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.carts[sid] = c.Clone()
	return nil
}

func (b *Backend) Delete(ctx context.Context, sid string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.carts, sid)
	return nil
}

// Len reports how many sessions hold a cart.
func (b *Backend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.carts)
}
