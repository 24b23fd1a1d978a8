package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/pkg/cart"
	"storefront/pkg/catalog"
	"storefront/pkg/session"
)

func TestBackendIsolatesStoredCarts(t *testing.T) {
	ctx := context.Background()
	b := New()

	_, err := b.Get(ctx, "sid")
	assert.ErrorIs(t, err, session.ErrNoCart)

	c := cart.New(time.Now())
	require.NoError(t, c.AddLine(catalog.Product{ID: 1, Label: "Mug", UnitPrice: decimal.RequireFromString("4.50"), Quantity: 9}, 1))
	require.NoError(t, b.Put(ctx, "sid", c))

	c.Lines[0].Quantity = 7
	got, err := b.Get(ctx, "sid")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Lines[0].Quantity)

	got.Lines[0].Quantity = 3
	again, err := b.Get(ctx, "sid")
	require.NoError(t, err)
	assert.Equal(t, 1, again.Lines[0].Quantity)

	require.NoError(t, b.Delete(ctx, "sid"))
	assert.Equal(t, 0, b.Len())
}
