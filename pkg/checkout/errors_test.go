package checkout

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"storefront/pkg/cart"
)

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "product unavailable: products 3, 8",
		(&ProductUnavailableError{ProductIDs: []int64{3, 8}}).Error())
	assert.Equal(t, "insufficient stock: products 1",
		(&InsufficientStockError{Shortages: []Shortage{{ProductID: 1}}}).Error())
}

func TestPersistenceErrorUnwraps(t *testing.T) {
	cause := errors.New("connection reset")
	err := fmt.Errorf("checkout: %w", &PersistenceError{Err: cause})
	assert.ErrorIs(t, err, ErrPersistence)
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsRetryable(err))
}

func TestResultLabel(t *testing.T) {
	assert.Equal(t, "success", resultLabel(nil))
	assert.Equal(t, "no_active_cart", resultLabel(ErrNoActiveCart))
	assert.Equal(t, "validation", resultLabel(&cart.ValidationError{}))
	assert.Equal(t, "insufficient_stock", resultLabel(&InsufficientStockError{}))
	assert.Equal(t, "persistence", resultLabel(&PersistenceError{Err: errors.New("x")}))
	assert.Equal(t, "error", resultLabel(errors.New("other")))
}
