package order

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"storefront/pkg/cart"
)

// Status of a persisted order.
type Status string

const (
	StatusPlaced    Status = "placed"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
)

var transitions = map[Status][]Status{
	StatusPlaced:  {StatusShipped},
	StatusShipped: {StatusDelivered},
}

// CanTransitionTo reports whether an order in s may move to next.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ParseStatus validates a status name.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusPlaced, StatusShipped, StatusDelivered:
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// Line is an immutable purchased line. UnitPrice is the price at purchase time.
type Line struct {
	ProductID int64           `json:"product_id"`
	Label     string          `json:"label"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Total is quantity × unit price at purchase.
func (l Line) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Order is the durable form of a placed cart. Total is frozen when the
// order is placed and never recomputed from the catalog.
type Order struct {
	ID        string          `json:"id"`
	Customer  cart.Shipping   `json:"customer"`
	Lines     []Line          `json:"lines"`
	Total     decimal.Decimal `json:"total"`
	Status    Status          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Filter narrows order listings. An empty Name matches every order.
type Filter struct {
	// Name matches a substring of the customer's first or last name, case-insensitively.
	Name string
}

// Matches reports whether o satisfies f.
func (f Filter) Matches(o Order) bool {
	if f.Name == "" {
		return true
	}
	needle := strings.ToLower(f.Name)
	return strings.Contains(strings.ToLower(o.Customer.FirstName), needle) ||
		strings.Contains(strings.ToLower(o.Customer.LastName), needle)
}

// Repository defines behavior for persisting orders.
type Repository interface {
	// Place deducts every line's quantity from product stock and stores o as
	// one atomic unit. When any deduction would take stock below zero nothing
	// is written and a *StockConflictError is returned.
	Place(ctx context.Context, o Order) error
	Get(ctx context.Context, id string) (Order, error)
	// List returns matching orders, newest first.
	List(ctx context.Context, f Filter) ([]Order, error)
	// UpdateStatus moves order id from status from to status to. It returns
	// ErrInvalidStatus when the stored status is no longer from.
	UpdateStatus(ctx context.Context, id string, from, to Status, at time.Time) error
}

var (
	// ErrNotFound indicates the requested order does not exist.
	ErrNotFound = errors.New("order not found")
	// ErrDuplicate indicates an order with the same id was already stored.
	ErrDuplicate = errors.New("order already exists")
	// ErrInvalidStatus indicates an unknown status or a disallowed transition.
	ErrInvalidStatus = errors.New("invalid order status")
)

// StockConflictError reports products whose stock could not cover an order at commit time.
type StockConflictError struct {
	ProductIDs []int64
}

func (e *StockConflictError) Error() string {
	ids := make([]string, len(e.ProductIDs))
	for i, id := range e.ProductIDs {
		ids[i] = strconv.FormatInt(id, 10)
	}
	return "insufficient stock at commit for products " + strings.Join(ids, ", ")
}
