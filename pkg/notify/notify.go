// Package notify tells the outside world that an order was placed.
// Delivery is best-effort: callers log failures and move on.
package notify

import (
	"context"
	"errors"

	"storefront/pkg/order"
)

// Notifier announces placed orders.
type Notifier interface {
	NotifyOrderPlaced(ctx context.Context, o order.Order) error
}

// Func adapts a function to Notifier.
type Func func(ctx context.Context, o order.Order) error

func (f Func) NotifyOrderPlaced(ctx context.Context, o order.Order) error {
	return f(ctx, o)
}

// Nop discards every notification.
type Nop struct{}

func (Nop) NotifyOrderPlaced(context.Context, order.Order) error { return nil }

// Fanout delivers to every notifier, even after one fails, and joins the errors.
type Fanout []Notifier

func (f Fanout) NotifyOrderPlaced(ctx context.Context, o order.Order) error {
	var errs []error
	for _, n := range f {
		if err := n.NotifyOrderPlaced(ctx, o); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
