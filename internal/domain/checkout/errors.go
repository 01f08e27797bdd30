package checkout

import (
	"fmt"

	"github.com/go-faster/errors"
)

var (
	// ErrCartNotFound is returned when a checkout is requested for a customer
	// without a pending cart.
	ErrCartNotFound = errors.New("cart not found")
	// ErrInvariantViolation indicates corrupted internal state, such as a
	// register scan that selects nothing from a non-empty pool.
	ErrInvariantViolation = errors.New("invariant violation")
	// ErrInvalidRegisterCount is returned when a store is built without registers.
	ErrInvalidRegisterCount = errors.New("register count must be greater than 0")
)

// CartNotFoundError identifies the customer whose cart could not be found.
// It matches ErrCartNotFound via errors.Is.
type CartNotFoundError struct {
	CustomerID string
}

func (e *CartNotFoundError) Error() string {
	return fmt.Sprintf("no cart to checkout for customer %q", e.CustomerID)
}

// Is reports whether target is ErrCartNotFound.
func (e *CartNotFoundError) Is(target error) bool {
	return target == ErrCartNotFound
}
