package cart

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/pkg/catalog"
)

var t0 = time.Date(2026, 3, 9, 22, 52, 0, 0, time.UTC)

func product(id int64, price string, stock int) catalog.Product {
	return catalog.Product{
		ID:        id,
		Label:     "product",
		UnitPrice: decimal.RequireFromString(price),
		Quantity:  stock,
	}
}

func validShipping() Shipping {
	return Shipping{
		FirstName:     "Ada",
		LastName:      "Lovelace",
		Email:         "ada@example.com",
		Phone:         "+44 20 7946 0958",
		Address:       "12 Analytical Row",
		Country:       "gb",
		State:         "Greater London",
		City:          "London",
		PostalCode:    "NW1 6XE",
		PaymentMethod: PaymentPaypal,
	}
}

func TestNewCartIsDraft(t *testing.T) {
	c := New(t0)
	assert.Equal(t, StatusDraft, c.Status)
	assert.Equal(t, t0, c.CreatedAt)
	assert.True(t, c.UpdatedAt.IsZero())
	assert.True(t, c.IsEmpty())
	assert.True(t, c.Total().IsZero())
}

func TestAddLineThenTotalIsExact(t *testing.T) {
	c := New(t0)
	require.NoError(t, c.AddLine(product(1, "10.00", 5), 3))
	require.NoError(t, c.AddLine(product(2, "25.00", 1), 1))

	assert.True(t, c.Total().Equal(decimal.RequireFromString("55.00")), c.Total().String())
	assert.Equal(t, 4, c.ItemCount())
}

func TestTotalHasNoFloatingPointDrift(t *testing.T) {
	c := New(t0)
	for id := int64(1); id <= 10; id++ {
		require.NoError(t, c.AddLine(product(id, "0.10", 100), 3))
	}
	assert.Equal(t, "3", c.Total().String())
}

func TestAddLineMergesSameProduct(t *testing.T) {
	c := New(t0)
	p := product(1, "10.00", 5)
	require.NoError(t, c.AddLine(p, 2))
	require.NoError(t, c.AddLine(p, 1))

	require.Len(t, c.Lines, 1)
	assert.Equal(t, 3, c.Lines[0].Quantity)
}

func TestAddLineRejectsInvalidQuantity(t *testing.T) {
	c := New(t0)
	for _, q := range []int{0, -2} {
		err := c.AddLine(product(1, "10.00", 5), q)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	}
	assert.True(t, c.IsEmpty())
}

func TestAddLineRejectsMoreThanStock(t *testing.T) {
	c := New(t0)
	p := product(1, "10.00", 3)
	assert.ErrorIs(t, c.AddLine(p, 4), ErrOutOfStock)

	require.NoError(t, c.AddLine(p, 2))
	assert.ErrorIs(t, c.AddLine(p, 2), ErrOutOfStock)
	assert.Equal(t, 2, c.Lines[0].Quantity)
}

func TestSetQuantityAndRemoveLine(t *testing.T) {
	c := New(t0)
	require.NoError(t, c.AddLine(product(1, "10.00", 5), 1))
	require.NoError(t, c.AddLine(product(2, "4.50", 5), 1))

	require.NoError(t, c.SetQuantity(1, 4))
	assert.Equal(t, 4, c.Lines[0].Quantity)
	assert.ErrorIs(t, c.SetQuantity(1, 0), ErrInvalidQuantity)
	assert.ErrorIs(t, c.SetQuantity(9, 1), ErrLineNotFound)

	require.NoError(t, c.RemoveLine(1))
	require.Len(t, c.Lines, 1)
	assert.Equal(t, int64(2), c.Lines[0].ProductID)
	assert.ErrorIs(t, c.RemoveLine(1), ErrLineNotFound)
}

func TestReprice(t *testing.T) {
	c := New(t0)
	require.NoError(t, c.AddLine(product(1, "10.00", 5), 2))

	c.Reprice(product(1, "12.50", 5))
	assert.Equal(t, "25", c.Total().String())
}

func TestMarkPlacedOnce(t *testing.T) {
	c := New(t0)
	later := t0.Add(time.Minute)
	require.NoError(t, c.MarkPlaced(later))
	assert.Equal(t, StatusPlaced, c.Status)
	assert.Equal(t, later, c.UpdatedAt)

	assert.ErrorIs(t, c.MarkPlaced(later), ErrInvalidStateTransition)
}

func TestPlacedCartRejectsMutation(t *testing.T) {
	c := New(t0)
	require.NoError(t, c.AddLine(product(1, "10.00", 5), 1))
	require.NoError(t, c.MarkPlaced(t0))

	assert.ErrorIs(t, c.AddLine(product(2, "1.00", 5), 1), ErrInvalidStateTransition)
	assert.ErrorIs(t, c.SetQuantity(1, 2), ErrInvalidStateTransition)
	assert.ErrorIs(t, c.RemoveLine(1), ErrInvalidStateTransition)
	assert.ErrorIs(t, c.SetShippingInfo(validShipping()), ErrInvalidStateTransition)
}

func TestSetShippingInfoNormalizes(t *testing.T) {
	c := New(t0)
	s := validShipping()
	s.FirstName = "  Ada "
	require.NoError(t, c.SetShippingInfo(s))

	require.NotNil(t, c.Shipping)
	assert.Equal(t, "Ada", c.Shipping.FirstName)
	assert.Equal(t, "GB", c.Shipping.Country)
	assert.Equal(t, "Ada Lovelace", c.Shipping.FullName())
}

func TestSetShippingInfoReportsEveryViolation(t *testing.T) {
	c := New(t0)
	s := validShipping()
	s.FirstName = ""
	s.Email = "not-an-email"
	s.Phone = "abc"
	s.PaymentMethod = "bitcoin"

	err := c.SetShippingInfo(s)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Nil(t, c.Shipping)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	fields := map[string]string{}
	for _, v := range ve.Violations {
		fields[v.Field] = v.Rule
	}
	assert.Equal(t, map[string]string{
		"first_name":     "required",
		"email":          "email",
		"phone":          "phone",
		"payment_method": "oneof",
	}, fields)
	assert.Contains(t, err.Error(), "first_name")
}

func TestCloneIsDeep(t *testing.T) {
	c := New(t0)
	require.NoError(t, c.AddLine(product(1, "10.00", 5), 1))
	require.NoError(t, c.SetShippingInfo(validShipping()))

	cp := c.Clone()
	cp.Lines[0].Quantity = 5
	cp.Shipping.City = "Paris"

	assert.Equal(t, 1, c.Lines[0].Quantity)
	assert.Equal(t, "London", c.Shipping.City)
}
