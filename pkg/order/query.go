package order

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Query is the administrative read side over persisted orders, plus status updates.
type Query struct {
	repo Repository
	now  func() time.Time
}

// NewQuery returns a Query over repo.
func NewQuery(repo Repository) *Query {
	return &Query{repo: repo, now: time.Now}
}

// ListOrders returns every order whose customer first or last name contains name.
func (q *Query) ListOrders(ctx context.Context, name string) ([]Order, error) {
	return q.repo.List(ctx, Filter{Name: name})
}

// FindOrder returns the order with id or ErrNotFound.
func (q *Query) FindOrder(ctx context.Context, id string) (Order, error) {
	return q.repo.Get(ctx, id)
}

// UpdateStatus moves an order forward in its lifecycle.
func (q *Query) UpdateStatus(ctx context.Context, id string, status Status) (Order, error) {
	o, err := q.repo.Get(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if !o.Status.CanTransitionTo(status) {
		return Order{}, fmt.Errorf("%w: %s -> %s", ErrInvalidStatus, o.Status, status)
	}
	at := q.now().UTC()
	if err := q.repo.UpdateStatus(ctx, id, o.Status, status, at); err != nil {
		if errors.Is(err, ErrInvalidStatus) {
			return Order{}, fmt.Errorf("%w: order %s left %s before the update", err, id, o.Status)
		}
		return Order{}, err
	}
	o.Status = status
	o.UpdatedAt = at
	return o, nil
}
