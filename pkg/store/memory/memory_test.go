package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/pkg/cart"
	"storefront/pkg/catalog"
	"storefront/pkg/order"
)

var (
	shoes = catalog.Category{ID: 1, Slug: "shoes", Label: "Shoes"}
	hats  = catalog.Category{ID: 2, Slug: "hats", Label: "Hats"}
	t0    = time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
)

func seeded(t *testing.T) *Store {
	t.Helper()
	s := New()
	s.Seed(
		catalog.Product{ID: 1, Slug: "runner", Label: "Trail Runner", UnitPrice: decimal.RequireFromString("10.00"), Quantity: 5, Categories: []catalog.Category{shoes}},
		catalog.Product{ID: 2, Slug: "boot", Label: "Winter Boot", UnitPrice: decimal.RequireFromString("25.00"), Quantity: 1, Categories: []catalog.Category{shoes}},
		catalog.Product{ID: 3, Slug: "cap", Label: "Running Cap", UnitPrice: decimal.RequireFromString("7.50"), Quantity: 0, Categories: []catalog.Category{hats}},
	)
	return s
}

func newOrder(id string, lines ...order.Line) order.Order {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Total())
	}
	return order.Order{
		ID:        id,
		Customer:  cart.Shipping{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"},
		Lines:     lines,
		Total:     total,
		Status:    order.StatusPlaced,
		CreatedAt: t0,
		UpdatedAt: t0,
	}
}

func stock(t *testing.T, s *Store, id int64) int {
	t.Helper()
	p, err := s.FindByID(context.Background(), id)
	require.NoError(t, err)
	return p.Quantity
}

func TestCatalogLookups(t *testing.T) {
	ctx := context.Background()
	s := seeded(t)

	p, err := s.FindBySlug(ctx, "boot")
	require.NoError(t, err)
	assert.Equal(t, int64(2), p.ID)

	_, err = s.FindByID(ctx, 99)
	assert.ErrorIs(t, err, catalog.ErrNotFound)
	_, err = s.FindBySlug(ctx, "nope")
	assert.ErrorIs(t, err, catalog.ErrNotFound)

	found, err := s.Search(ctx, "RUN")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, int64(1), found[0].ID)
	assert.Equal(t, int64(3), found[1].ID)

	related, err := s.Related(ctx, 1)
	require.NoError(t, err)
	require.Len(t, related, 1)
	assert.Equal(t, int64(2), related[0].ID)

	listed, err := s.ListInStock(ctx, 10)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, int64(2), listed[0].ID, "lowest stock first")
}

func TestPlaceDeductsStockAndStoresOrder(t *testing.T) {
	ctx := context.Background()
	s := seeded(t)
	o := newOrder("o-1",
		order.Line{ProductID: 1, Label: "Trail Runner", Quantity: 3, UnitPrice: decimal.RequireFromString("10.00")},
		order.Line{ProductID: 2, Label: "Winter Boot", Quantity: 1, UnitPrice: decimal.RequireFromString("25.00")},
	)

	require.NoError(t, s.Place(ctx, o))
	assert.Equal(t, 2, stock(t, s, 1))
	assert.Equal(t, 0, stock(t, s, 2))

	got, err := s.Get(ctx, "o-1")
	require.NoError(t, err)
	assert.True(t, got.Total.Equal(decimal.RequireFromString("55.00")))
	assert.Len(t, got.Lines, 2)

	assert.ErrorIs(t, s.Place(ctx, o), order.ErrDuplicate)
}

func TestPlaceInsufficientStockChangesNothing(t *testing.T) {
	ctx := context.Background()
	s := seeded(t)
	o := newOrder("o-1",
		order.Line{ProductID: 1, Quantity: 1, UnitPrice: decimal.RequireFromString("10.00")},
		order.Line{ProductID: 2, Quantity: 2, UnitPrice: decimal.RequireFromString("25.00")},
		order.Line{ProductID: 3, Quantity: 1, UnitPrice: decimal.RequireFromString("7.50")},
	)

	err := s.Place(ctx, o)
	var conflict *order.StockConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, []int64{2, 3}, conflict.ProductIDs)

	assert.Equal(t, 5, stock(t, s, 1))
	assert.Equal(t, 1, stock(t, s, 2))
	_, err = s.Get(ctx, "o-1")
	assert.ErrorIs(t, err, order.ErrNotFound)
}

func TestPlaceFailureAfterDeductionRollsBack(t *testing.T) {
	ctx := context.Background()
	s := seeded(t)
	boom := errors.New("disk full")
	s.beforeInsert = func() error { return boom }

	err := s.Place(ctx, newOrder("o-1",
		order.Line{ProductID: 1, Quantity: 3, UnitPrice: decimal.RequireFromString("10.00")},
	))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 5, stock(t, s, 1))

	orders, err := s.List(ctx, order.Filter{})
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestConcurrentPlaceNeverOversells(t *testing.T) {
	ctx := context.Background()
	s := seeded(t)

	var wg sync.WaitGroup
	var mu sync.Mutex
	placed := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			o := newOrder(string(rune('a'+i)), order.Line{ProductID: 1, Quantity: 2, UnitPrice: decimal.RequireFromString("10.00")})
			if err := s.Place(ctx, o); err == nil {
				mu.Lock()
				placed++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 2, placed)
	assert.Equal(t, 1, stock(t, s, 1))
}

func TestListFilterAndUpdateStatus(t *testing.T) {
	ctx := context.Background()
	s := seeded(t)
	first := newOrder("o-1", order.Line{ProductID: 1, Quantity: 1, UnitPrice: decimal.RequireFromString("10.00")})
	second := newOrder("o-2", order.Line{ProductID: 1, Quantity: 1, UnitPrice: decimal.RequireFromString("10.00")})
	second.Customer.FirstName = "Grace"
	second.Customer.LastName = "Hopper"
	second.CreatedAt = t0.Add(time.Hour)
	require.NoError(t, s.Place(ctx, first))
	require.NoError(t, s.Place(ctx, second))

	all, err := s.List(ctx, order.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "o-2", all[0].ID, "newest first")

	hopper, err := s.List(ctx, order.Filter{Name: "hop"})
	require.NoError(t, err)
	require.Len(t, hopper, 1)
	assert.Equal(t, "o-2", hopper[0].ID)

	at := t0.Add(2 * time.Hour)
	require.NoError(t, s.UpdateStatus(ctx, "o-1", order.StatusPlaced, order.StatusShipped, at))
	got, err := s.Get(ctx, "o-1")
	require.NoError(t, err)
	assert.Equal(t, order.StatusShipped, got.Status)
	assert.Equal(t, at, got.UpdatedAt)

	assert.ErrorIs(t, s.UpdateStatus(ctx, "missing", order.StatusPlaced, order.StatusShipped, at), order.ErrNotFound)
	assert.ErrorIs(t, s.UpdateStatus(ctx, "o-1", order.StatusPlaced, order.StatusShipped, at), order.ErrInvalidStatus,
		"stale expected status")
	got, err = s.Get(ctx, "o-1")
	require.NoError(t, err)
	assert.Equal(t, order.StatusShipped, got.Status)
}
