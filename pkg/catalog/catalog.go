// Package catalog defines the products a shopper can put in a cart and the
// read-side store that serves them.
package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Category groups products for browsing and for related-product lookups.
type Category struct {
	ID    int64  `json:"id"`
	Slug  string `json:"slug"`
	Label string `json:"label"`
}

// Product is a sellable item. Quantity is the stock on hand and never goes below zero.
type Product struct {
	ID          int64           `json:"id"`
	Slug        string          `json:"slug"`
	Label       string          `json:"label"`
	Description string          `json:"description,omitempty"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	Categories  []Category      `json:"categories,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// InStock reports whether q units can be taken from the current stock.
func (p Product) InStock(q int) bool {
	return q > 0 && q <= p.Quantity
}

// Store is the read side of the catalog.
type Store interface {
	FindByID(ctx context.Context, id int64) (Product, error)
	FindBySlug(ctx context.Context, slug string) (Product, error)
	// Search matches term case-insensitively against product labels.
	Search(ctx context.Context, term string) ([]Product, error)
	// Related returns other products sharing at least one category with id.
	Related(ctx context.Context, id int64) ([]Product, error)
	// ListInStock returns up to limit products with stock left, lowest stock first.
	ListInStock(ctx context.Context, limit int) ([]Product, error)
}

// ErrNotFound indicates the requested product does not exist.
var ErrNotFound = errors.New("product not found")
