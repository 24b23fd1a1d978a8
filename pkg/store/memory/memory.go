// Package memory implements the catalog and order stores in process memory.
//
// Products and orders share one lock so that placing an order, which deducts
// stock and records the order, is a single atomic step.
package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"storefront/pkg/catalog"
	"storefront/pkg/order"
)

// Store provides an in-memory implementation of catalog.Store and order.Repository.
type Store struct {
	mu       sync.RWMutex
	products map[int64]catalog.Product
	orders   map[string]order.Order

	// beforeInsert runs after stock is deducted and before the order is
	// recorded. Tests use it to inject a mid-commit failure.
	beforeInsert func() error
}

var (
	_ catalog.Store    = (*Store)(nil)
	_ order.Repository = (*Store)(nil)
)

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		products: make(map[int64]catalog.Product),
		orders:   make(map[string]order.Order),
	}
}

// InjectCommitFault makes Place fail with err after stock is deducted and
// before the order is recorded. A nil err removes the fault.
func (s *Store) InjectCommitFault(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		s.beforeInsert = nil
		return
	}
	s.beforeInsert = func() error { return err }
}

// Seed inserts or replaces products.
func (s *Store) Seed(products ...catalog.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range products {
		s.products[p.ID] = cloneProduct(p)
	}
}

// FindByID retrieves a product by ID.
func (s *Store) FindByID(ctx context.Context, id int64) (catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return catalog.Product{}, catalog.ErrNotFound
	}
	return cloneProduct(p), nil
}

// FindBySlug retrieves a product by slug.
func (s *Store) FindBySlug(ctx context.Context, slug string) (catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.products {
		if p.Slug == slug {
			return cloneProduct(p), nil
		}
	}
	return catalog.Product{}, catalog.ErrNotFound
}

// Search returns products whose label contains term.
func (s *Store) Search(ctx context.Context, term string) ([]catalog.Product, error) {
	needle := strings.ToLower(strings.TrimSpace(term))
	return s.collect(func(p catalog.Product) bool {
		return strings.Contains(strings.ToLower(p.Label), needle)
	}, byID), nil
}

// Related returns products sharing a category with id, excluding id itself.
func (s *Store) Related(ctx context.Context, id int64) ([]catalog.Product, error) {
	s.mu.RLock()
	p, ok := s.products[id]
	s.mu.RUnlock()
	if !ok {
		return nil, catalog.ErrNotFound
	}
	cats := make(map[int64]bool, len(p.Categories))
	for _, c := range p.Categories {
		cats[c.ID] = true
	}
	return s.collect(func(other catalog.Product) bool {
		if other.ID == id {
			return false
		}
		return slices.ContainsFunc(other.Categories, func(c catalog.Category) bool { return cats[c.ID] })
	}, byID), nil
}

// ListInStock returns up to limit products that still have stock.
func (s *Store) ListInStock(ctx context.Context, limit int) ([]catalog.Product, error) {
	out := s.collect(func(p catalog.Product) bool { return p.Quantity > 0 }, func(a, b catalog.Product) int {
		return cmp.Or(cmp.Compare(a.Quantity, b.Quantity), cmp.Compare(a.ID, b.ID))
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Place deducts stock for every line and stores the order.
func (s *Store) Place(ctx context.Context, o order.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[o.ID]; exists {
		return order.ErrDuplicate
	}

	// First pass: every line must be covered before anything changes.
	need := make(map[int64]int, len(o.Lines))
	for _, l := range o.Lines {
		need[l.ProductID] += l.Quantity
	}
	var short []int64
	for id, qty := range need {
		p, ok := s.products[id]
		if !ok || p.Quantity < qty {
			short = append(short, id)
		}
	}
	if len(short) > 0 {
		slices.Sort(short)
		return &order.StockConflictError{ProductIDs: short}
	}

	// Second pass: deduct, keeping the previous values to restore on failure.
	prev := make(map[int64]catalog.Product, len(need))
	for id, qty := range need {
		p := s.products[id]
		prev[id] = p
		p.Quantity -= qty
		p.UpdatedAt = o.CreatedAt
		s.products[id] = p
	}

	if s.beforeInsert != nil {
		if err := s.beforeInsert(); err != nil {
			for id, p := range prev {
				s.products[id] = p
			}
			return err
		}
	}

	s.orders[o.ID] = cloneOrder(o)
	return nil
}

// Get retrieves an order by ID.
func (s *Store) Get(ctx context.Context, id string) (order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return order.Order{}, order.ErrNotFound
	}
	return cloneOrder(o), nil
}

// List returns orders matching f, newest first.
func (s *Store) List(ctx context.Context, f order.Filter) ([]order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]order.Order, 0, len(s.orders))
	for _, o := range s.orders {
		if f.Matches(o) {
			out = append(out, cloneOrder(o))
		}
	}
	slices.SortFunc(out, func(a, b order.Order) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

// UpdateStatus moves an existing order from one status to another.
func (s *Store) UpdateStatus(ctx context.Context, id string, from, to order.Status, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return order.ErrNotFound
	}
	if o.Status != from {
		return order.ErrInvalidStatus
	}
	o.Status = to
	o.UpdatedAt = at
	s.orders[id] = o
	return nil
}

func (s *Store) collect(keep func(catalog.Product) bool, less func(a, b catalog.Product) int) []catalog.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]catalog.Product, 0)
	for _, p := range s.products {
		if keep(p) {
			out = append(out, cloneProduct(p))
		}
	}
	slices.SortFunc(out, less)
	return out
}

func byID(a, b catalog.Product) int {
	return cmp.Compare(a.ID, b.ID)
}

func cloneProduct(p catalog.Product) catalog.Product {
	p.Categories = slices.Clone(p.Categories)
	return p
}

func cloneOrder(o order.Order) order.Order {
	o.Lines = slices.Clone(o.Lines)
	return o
}
