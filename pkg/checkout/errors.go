package checkout

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrNoActiveCart is returned when the session holds no draft cart.
	ErrNoActiveCart = errors.New("no active cart")
	// ErrEmptyCart is returned when the cart has no lines.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrProductUnavailable matches *ProductUnavailableError.
	ErrProductUnavailable = errors.New("product unavailable")
	// ErrInsufficientStock matches *InsufficientStockError.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrPersistence matches *PersistenceError.
	ErrPersistence = errors.New("checkout could not be persisted")
)

// ProductUnavailableError lists cart products that no longer exist in the catalog.
type ProductUnavailableError struct {
	ProductIDs []int64
}

func (e *ProductUnavailableError) Error() string {
	return fmt.Sprintf("%s: %s", ErrProductUnavailable, joinIDs(e.ProductIDs))
}

func (e *ProductUnavailableError) Is(target error) bool {
	return target == ErrProductUnavailable
}

// Shortage is one cart line that asks for more than the catalog holds.
type Shortage struct {
	ProductID int64  `json:"product_id"`
	Label     string `json:"label"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

// InsufficientStockError names every line that cannot be covered.
type InsufficientStockError struct {
	Shortages []Shortage
}

func (e *InsufficientStockError) Error() string {
	ids := make([]int64, len(e.Shortages))
	for i, s := range e.Shortages {
		ids[i] = s.ProductID
	}
	return fmt.Sprintf("%s: %s", ErrInsufficientStock, joinIDs(ids))
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// PersistenceError wraps a storage failure. Nothing was committed.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", ErrPersistence, e.Err)
}

func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err is a transient failure the shopper can
// retry unchanged, as opposed to an input problem they need to fix.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrPersistence)
}

func joinIDs(ids []int64) string {
	s := make([]string, len(ids))
	for i, id := range ids {
		s[i] = strconv.FormatInt(id, 10)
	}
	return "products " + strings.Join(s, ", ")
}
