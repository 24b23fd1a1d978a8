package session_test

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
	"storefront/pkg/session"
	"storefront/pkg/session/memory"
)

var widget = catalog.Product{ID: 1, Label: "Widget", UnitPrice: decimal.RequireFromString("10.00"), Quantity: 100}

func TestLoadWithoutCart(t *testing.T) {
	s := session.NewStore(memory.New(), nil)
	c, err := s.Load(context.Background(), "sid")
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestGetOrCreate(t *testing.T) {
	ctx := context.Background()
	backend := memory.New()
	s := session.NewStore(backend, nil)

	c, err := s.GetOrCreate(ctx, "sid")
	require.NoError(t, err)
	assert.Equal(t, cart.StatusDraft, c.Status)
	assert.True(t, c.IsEmpty())
	assert.False(t, c.CreatedAt.IsZero())

	again, err := s.GetOrCreate(ctx, "sid")
	require.NoError(t, err)
	assert.Equal(t, c.CreatedAt, again.CreatedAt)
	assert.Equal(t, 1, backend.Len())
}

func TestSaveDoesNotCreate(t *testing.T) {
	ctx := context.Background()
	backend := memory.New()
	s := session.NewStore(backend, nil)

	require.NoError(t, s.Save(ctx, "sid", cart.New(time.Now())))
	assert.Equal(t, 0, backend.Len())

	c, err := s.GetOrCreate(ctx, "sid")
	require.NoError(t, err)
	require.NoError(t, c.AddLine(widget, 2))
	require.NoError(t, s.Save(ctx, "sid", c))

	loaded, err := s.Load(ctx, "sid")
	require.NoError(t, err)
	require.Len(t, loaded.Lines, 1)
	assert.Equal(t, 2, loaded.Lines[0].Quantity)
	assert.False(t, loaded.UpdatedAt.IsZero())
}

func TestClearIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := session.NewStore(memory.New(), nil)

	_, err := s.GetOrCreate(ctx, "sid")
	require.NoError(t, err)
	require.NoError(t, s.Clear(ctx, "sid"))
	require.NoError(t, s.Clear(ctx, "sid"))

	c, err := s.Load(ctx, "sid")
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestSessionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	s := session.NewStore(memory.New(), nil)

	_, err := s.Update(ctx, "a", func(c *cart.Cart) error { return c.AddLine(widget, 1) })
	require.NoError(t, err)

	other, err := s.Load(ctx, "b")
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestUpdateFailureSavesNothing(t *testing.T) {
	ctx := context.Background()
	s := session.NewStore(memory.New(), nil)

	_, err := s.Update(ctx, "sid", func(c *cart.Cart) error { return c.AddLine(widget, 1) })
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = s.Update(ctx, "sid", func(c *cart.Cart) error {
		c.Lines[0].Quantity = 50
		return boom
	})
	assert.ErrorIs(t, err, boom)

	c, err := s.Load(ctx, "sid")
	require.NoError(t, err)
	assert.Equal(t, 1, c.Lines[0].Quantity)

	_, err = s.Update(ctx, "fresh", func(c *cart.Cart) error { return c.RemoveLine(99) })
	assert.ErrorIs(t, err, cart.ErrLineNotFound)

	c, err = s.Load(ctx, "fresh")
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestConcurrentUpdatesDoNotLoseWrites(t *testing.T) {
	ctx := context.Background()
	s := session.NewStore(memory.New(), nil)

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Update(ctx, "sid", func(c *cart.Cart) error { return c.AddLine(widget, 1) })
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	c, err := s.Load(ctx, "sid")
	require.NoError(t, err)
	assert.Equal(t, 50, c.ItemCount())
}
