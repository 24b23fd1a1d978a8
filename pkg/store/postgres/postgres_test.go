package postgres

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"storefront/pkg/cart"
	"storefront/pkg/catalog"
	"storefront/pkg/order"
)

func setupTestDB(t *testing.T) *Store {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres integration test skipped in -short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)
	ctx := context.Background()

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("storefront"),
		tcpostgres.WithUsername("shop"),
		tcpostgres.WithPassword("shop"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pgContainer.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := Open(ctx, dsn, 10, 5)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, Migrate(db))

	s := New(db)
	shoes := catalog.Category{ID: 1, Slug: "shoes", Label: "Shoes"}
	hats := catalog.Category{ID: 2, Slug: "hats", Label: "Hats"}
	require.NoError(t, s.Seed(ctx,
		catalog.Product{ID: 1, Slug: "runner", Label: "Trail Runner", UnitPrice: decimal.RequireFromString("10.00"), Quantity: 5, Categories: []catalog.Category{shoes}},
		catalog.Product{ID: 2, Slug: "boot", Label: "Winter Boot", UnitPrice: decimal.RequireFromString("25.00"), Quantity: 1, Categories: []catalog.Category{shoes}},
		catalog.Product{ID: 3, Slug: "cap", Label: "Running 100% Cap", UnitPrice: decimal.RequireFromString("7.50"), Quantity: 0, Categories: []catalog.Category{hats}},
	))
	return s
}

func newTestOrder(id string, lines ...order.Line) order.Order {
	now := time.Now().UTC().Truncate(time.Microsecond)
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Total())
	}
	return order.Order{
		ID: id,
		Customer: cart.Shipping{
			FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Phone: "+44 20 7946 0958",
			Address: "12 Analytical Row", Country: "GB", State: "London", City: "London", PostalCode: "NW1",
			PaymentMethod: cart.PaymentPaypal,
		},
		Lines:     lines,
		Total:     total,
		Status:    order.StatusPlaced,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func line(productID int64, qty int, price string) order.Line {
	return order.Line{ProductID: productID, Label: "item", Quantity: qty, UnitPrice: decimal.RequireFromString(price)}
}

func stockOf(t *testing.T, s *Store, id int64) int {
	t.Helper()
	p, err := s.FindByID(context.Background(), id)
	require.NoError(t, err)
	return p.Quantity
}

func TestCatalogQueries(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	p, err := s.FindBySlug(ctx, "runner")
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.ID)
	assert.True(t, p.UnitPrice.Equal(decimal.RequireFromString("10.00")))
	require.Len(t, p.Categories, 1)
	assert.Equal(t, "shoes", p.Categories[0].Slug)

	_, err = s.FindByID(ctx, 404)
	assert.ErrorIs(t, err, catalog.ErrNotFound)

	found, err := s.Search(ctx, "100%")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, int64(3), found[0].ID)

	related, err := s.Related(ctx, 1)
	require.NoError(t, err)
	require.Len(t, related, 1)
	assert.Equal(t, int64(2), related[0].ID)

	listed, err := s.ListInStock(ctx, 1)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, int64(2), listed[0].ID)
}

func TestPlaceAndQueryOrder(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	o := newTestOrder("order-1", line(1, 3, "10.00"), line(2, 1, "25.00"))
	require.NoError(t, s.Place(ctx, o))

	assert.Equal(t, 2, stockOf(t, s, 1))
	assert.Equal(t, 0, stockOf(t, s, 2))

	got, err := s.Get(ctx, "order-1")
	require.NoError(t, err)
	assert.True(t, got.Total.Equal(decimal.RequireFromString("55.00")))
	assert.Equal(t, order.StatusPlaced, got.Status)
	assert.Equal(t, cart.PaymentPaypal, got.Customer.PaymentMethod)
	require.Len(t, got.Lines, 2)
	assert.Equal(t, int64(1), got.Lines[0].ProductID)
	assert.Equal(t, 3, got.Lines[0].Quantity)

	list, err := s.List(ctx, order.Filter{Name: "love"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	none, err := s.List(ctx, order.Filter{Name: "hopper"})
	require.NoError(t, err)
	assert.Empty(t, none)

	require.NoError(t, s.UpdateStatus(ctx, "order-1", order.StatusPlaced, order.StatusShipped, time.Now()))
	got, err = s.Get(ctx, "order-1")
	require.NoError(t, err)
	assert.Equal(t, order.StatusShipped, got.Status)
	assert.ErrorIs(t, s.UpdateStatus(ctx, "missing", order.StatusPlaced, order.StatusShipped, time.Now()), order.ErrNotFound)
	assert.ErrorIs(t, s.UpdateStatus(ctx, "order-1", order.StatusPlaced, order.StatusShipped, time.Now()), order.ErrInvalidStatus)
}

func TestPlaceInsufficientStockRollsBack(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	err := s.Place(ctx, newTestOrder("order-1", line(1, 2, "10.00"), line(2, 5, "25.00")))
	var conflict *order.StockConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, []int64{2}, conflict.ProductIDs)

	assert.Equal(t, 5, stockOf(t, s, 1))
	assert.Equal(t, 1, stockOf(t, s, 2))
	_, err = s.Get(ctx, "order-1")
	assert.ErrorIs(t, err, order.ErrNotFound)
}

func TestPlaceFailureAfterDeductionRollsBack(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, s.Place(ctx, newTestOrder("order-1", line(1, 1, "10.00"))))
	require.Equal(t, 4, stockOf(t, s, 1))
	require.Equal(t, 1, stockOf(t, s, 2))

	// Both deductions succeed, then the header insert hits the primary key.
	err := s.Place(ctx, newTestOrder("order-1", line(1, 2, "10.00"), line(2, 1, "25.00")))
	assert.ErrorIs(t, err, order.ErrDuplicate)

	assert.Equal(t, 4, stockOf(t, s, 1))
	assert.Equal(t, 1, stockOf(t, s, 2))
	got, err := s.Get(ctx, "order-1")
	require.NoError(t, err)
	require.Len(t, got.Lines, 1)
	assert.Equal(t, int64(1), got.Lines[0].ProductID)
	assert.True(t, got.Total.Equal(decimal.RequireFromString("10.00")))
}

func TestConcurrentPlaceLastUnit(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.Place(ctx, newTestOrder([]string{"a", "b"}[i], line(2, 1, "25.00")))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		var conflict *order.StockConflictError
		assert.ErrorAs(t, err, &conflict)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 0, stockOf(t, s, 2))
}
