// Package cart implements the in-progress order a shopper builds before checkout.
//
// A Cart starts in StatusDraft, collects lines and shipping details, and moves
// to StatusPlaced exactly once when checkout commits it as an order.
package cart

import (
	"errors"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"storefront/pkg/catalog"
)

// Status is the lifecycle state of a cart.
type Status string

const (
	StatusDraft  Status = "draft"
	StatusPlaced Status = "placed"
)

var (
	// ErrInvalidQuantity is returned when a line quantity is below one.
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	// ErrInvalidStateTransition is returned when mutating or placing a cart that is already placed.
	ErrInvalidStateTransition = errors.New("cart is already placed")
	// ErrLineNotFound is returned when updating a product that has no line in the cart.
	ErrLineNotFound = errors.New("product is not in the cart")
	// ErrOutOfStock is returned when a line would ask for more than the product has in stock.
	ErrOutOfStock = errors.New("requested quantity exceeds available stock")
)

// Line is one product and quantity in a cart. Label and UnitPrice are a
// display snapshot; checkout reprices every line from the catalog.
type Line struct {
	ProductID int64           `json:"product_id"`
	Label     string          `json:"label"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

// Total is quantity × unit price.
func (l Line) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is the session-scoped aggregate.
type Cart struct {
	Lines     []Line    `json:"lines"`
	Shipping  *Shipping `json:"shipping,omitempty"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// New returns an empty draft cart created at now.
func New(now time.Time) *Cart {
	return &Cart{Status: StatusDraft, CreatedAt: now}
}

// AddLine adds qty units of p. A product already in the cart has its line
// quantity increased rather than getting a second line.
func (c *Cart) AddLine(p catalog.Product, qty int) error {
	if err := c.mutable(); err != nil {
		return err
	}
	if qty < 1 {
		return ErrInvalidQuantity
	}
	if i := c.index(p.ID); i >= 0 {
		if !p.InStock(c.Lines[i].Quantity + qty) {
			return ErrOutOfStock
		}
		c.Lines[i].Quantity += qty
		c.Lines[i].Label = p.Label
		c.Lines[i].UnitPrice = p.UnitPrice
		return nil
	}
	if !p.InStock(qty) {
		return ErrOutOfStock
	}
	c.Lines = append(c.Lines, Line{
		ProductID: p.ID,
		Label:     p.Label,
		UnitPrice: p.UnitPrice,
		Quantity:  qty,
	})
	return nil
}

// SetQuantity replaces the quantity of the line holding productID.
func (c *Cart) SetQuantity(productID int64, qty int) error {
	if err := c.mutable(); err != nil {
		return err
	}
	if qty < 1 {
		return ErrInvalidQuantity
	}
	i := c.index(productID)
	if i < 0 {
		return ErrLineNotFound
	}
	c.Lines[i].Quantity = qty
	return nil
}

// RemoveLine drops the line holding productID.
func (c *Cart) RemoveLine(productID int64) error {
	if err := c.mutable(); err != nil {
		return err
	}
	i := c.index(productID)
	if i < 0 {
		return ErrLineNotFound
	}
	c.Lines = slices.Delete(c.Lines, i, i+1)
	return nil
}

// Reprice refreshes the label and unit price of the line holding p.ID.
func (c *Cart) Reprice(p catalog.Product) {
	if i := c.index(p.ID); i >= 0 {
		c.Lines[i].Label = p.Label
		c.Lines[i].UnitPrice = p.UnitPrice
	}
}

// SetShippingInfo validates s and attaches it to the cart. On failure the
// cart is left untouched and the error lists every violated field.
func (c *Cart) SetShippingInfo(s Shipping) error {
	if err := c.mutable(); err != nil {
		return err
	}
	s = s.normalize()
	if err := ValidateShipping(s); err != nil {
		return err
	}
	c.Shipping = &s
	return nil
}

// Total sums the line totals.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		total = total.Add(l.Total())
	}
	return total
}

// ItemCount is the number of units across all lines.
func (c *Cart) ItemCount() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// MarkPlaced moves the cart from draft to placed.
func (c *Cart) MarkPlaced(now time.Time) error {
	if c.Status == StatusPlaced {
		return ErrInvalidStateTransition
	}
	c.Status = StatusPlaced
	c.UpdatedAt = now
	return nil
}

// Touch records a modification time.
func (c *Cart) Touch(now time.Time) {
	c.UpdatedAt = now
}

// Clone returns a deep copy.
func (c *Cart) Clone() *Cart {
	out := *c
	out.Lines = slices.Clone(c.Lines)
	if c.Shipping != nil {
		s := *c.Shipping
		out.Shipping = &s
	}
	return &out
}

func (c *Cart) mutable() error {
	if c.Status == StatusPlaced {
		return ErrInvalidStateTransition
	}
	return nil
}

func (c *Cart) index(productID int64) int {
	return slices.IndexFunc(c.Lines, func(l Line) bool { return l.ProductID == productID })
}
