// Package session keeps exactly one cart per shopper session.
//
// The Store is the only authority on whether a session has a cart. Storage is
// delegated to a Backend and per-session critical sections to a Locker, so the
// same Store works in-process or across instances sharing Redis.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/pkg/cart"
)

// ErrNoCart is returned by a Backend when the session holds no cart.
var ErrNoCart = errors.New("session has no cart")

// Backend persists carts keyed by session id.
type Backend interface {
	Get(ctx context.Context, sid string) (*cart.Cart, error)
	Put(ctx context.Context, sid string, c *cart.Cart) error
	Delete(ctx context.Context, sid string) error
}

// Locker serializes work on a single key. The returned func releases the lock.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

// Store wraps a Backend with the session cart contract.
type Store struct {
	backend Backend
	locker  Locker
	now     func() time.Time
}

// NewStore creates a Store. A nil locker falls back to an in-process MutexLocker.
func NewStore(backend Backend, locker Locker) *Store {
	if locker == nil {
		locker = NewMutexLocker()
	}
	return &Store{backend: backend, locker: locker, now: time.Now}
}

// Load returns the session's cart, or nil when there is none.
func (s *Store) Load(ctx context.Context, sid string) (*cart.Cart, error) {
	c, err := s.backend.Get(ctx, sid)
	if errors.Is(err, ErrNoCart) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return c, nil
}

// GetOrCreate returns the session's cart, creating and storing an empty
// draft cart when there is none.
func (s *Store) GetOrCreate(ctx context.Context, sid string) (*cart.Cart, error) {
	c, err := s.Load(ctx, sid)
	if err != nil || c != nil {
		return c, err
	}
	c = cart.New(s.now())
	if err := s.backend.Put(ctx, sid, c); err != nil {
		return nil, fmt.Errorf("create cart: %w", err)
	}
	return c, nil
}

// Save replaces the session's cart with c. It does nothing when the session
// has no cart, so Save never creates one.
func (s *Store) Save(ctx context.Context, sid string, c *cart.Cart) error {
	existing, err := s.Load(ctx, sid)
	if err != nil {
		return err
	}
	if existing == nil {
		return nil
	}
	c.Touch(s.now())
	if err := s.backend.Put(ctx, sid, c); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

// Clear removes the session's cart. Clearing an empty session is not an error.
func (s *Store) Clear(ctx context.Context, sid string) error {
	if err := s.backend.Delete(ctx, sid); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

// Lock enters the critical section for sid.
func (s *Store) Lock(ctx context.Context, sid string) (func(), error) {
	unlock, err := s.locker.Lock(ctx, sid)
	if err != nil {
		return nil, fmt.Errorf("lock session: %w", err)
	}
	return unlock, nil
}

// Update runs fn on the session's cart under the session lock and saves the
// result. A session without a cart gets a new one, stored only when fn
// succeeds. When fn fails nothing is saved.
func (s *Store) Update(ctx context.Context, sid string, fn func(*cart.Cart) error) (*cart.Cart, error) {
	unlock, err := s.Lock(ctx, sid)
	if err != nil {
		return nil, err
	}
	defer unlock()

	c, err := s.Load(ctx, sid)
	if err != nil {
		return nil, err
	}
	fresh := c == nil
	if fresh {
		c = cart.New(s.now())
	}
	if err := fn(c); err != nil {
		return nil, err
	}
	if fresh {
		c.Touch(s.now())
		if err := s.backend.Put(ctx, sid, c); err != nil {
			return nil, fmt.Errorf("create cart: %w", err)
		}
		return c, nil
	}
	if err := s.Save(ctx, sid, c); err != nil {
		return nil, err
	}
	return c, nil
}
