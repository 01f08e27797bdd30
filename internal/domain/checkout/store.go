package checkout

import (
	"math"
	"sync"

	"github.com/go-faster/errors"
)

// DefaultRegisters is the register pool size used when none is configured.
const DefaultRegisters = 25

// Store owns a fixed pool of registers and routes each customer to the
// register holding their cart.
//
// Locking: routesMu guards routes and is always acquired before any register
// lock. Store-wide reads lock every register in ascending id order. Customers
// that already have a cart only take routesMu for reading plus the lock of
// their own register, so they never wait on a pool scan that is not theirs
// to make.
type Store struct {
	registers []*Register

	routesMu sync.RWMutex
	routes   map[string]*Register
}

// NewStore creates a store with n empty registers numbered 0..n-1.
func NewStore(n int) (*Store, error) {
	if n < 1 {
		return nil, ErrInvalidRegisterCount
	}
	registers := make([]*Register, n)
	for i := range registers {
		registers[i] = NewRegister(i)
	}
	return &Store{
		registers: registers,
		routes:    make(map[string]*Register),
	}, nil
}

// Len returns the number of registers in the pool.
func (s *Store) Len() int {
	return len(s.registers)
}

// AssignItem adds itemID to the customer's cart and returns the id of the
// register holding it. A customer keeps their register until checkout; a new
// customer goes to the least utilized register.
func (s *Store) AssignItem(customerID, itemID string) (int, error) {
	s.routesMu.RLock()
	if r, ok := s.routes[customerID]; ok {
		r.AddItemToCart(customerID, itemID)
		s.routesMu.RUnlock()
		return r.ID(), nil
	}
	s.routesMu.RUnlock()

	s.routesMu.Lock()
	defer s.routesMu.Unlock()

	// Another request may have opened the cart between the two locks.
	if r, ok := s.routes[customerID]; ok {
		r.AddItemToCart(customerID, itemID)
		return r.ID(), nil
	}

	r, err := s.LeastUtilizedRegister()
	if err != nil {
		return 0, err
	}
	r.AddItemToCart(customerID, itemID)
	s.routes[customerID] = r
	return r.ID(), nil
}

// CheckoutCustomer closes the customer's cart. The route is removed only after
// the register has released the cart.
func (s *Store) CheckoutCustomer(customerID string) error {
	s.routesMu.Lock()
	defer s.routesMu.Unlock()

	r, ok := s.routes[customerID]
	if !ok {
		return &CartNotFoundError{CustomerID: customerID}
	}
	if err := r.CheckoutCart(customerID); err != nil {
		return err
	}
	delete(s.routes, customerID)
	return nil
}

// LeastUtilizedRegister returns the register with the fewest pending items.
// The first empty register wins outright; otherwise ties go to the lowest id.
func (s *Store) LeastUtilizedRegister() (*Register, error) {
	s.lockRegisters()
	defer s.unlockRegisters()

	lowest := math.MaxInt
	var selected *Register
	for _, r := range s.registers {
		total := r.totalItemsLocked()
		if total == 0 {
			return r, nil
		}
		if total < lowest {
			selected = r
			lowest = total
		}
	}

	if selected == nil {
		return nil, errors.Wrap(ErrInvariantViolation, "no register selected")
	}
	return selected, nil
}

// State returns a consistent snapshot of every register, keyed by register id.
func (s *Store) State() map[int][]string {
	s.lockRegisters()
	defer s.unlockRegisters()

	state := make(map[int][]string, len(s.registers))
	for _, r := range s.registers {
		state[r.ID()] = r.stateLocked()
	}
	return state
}

// PendingItems returns the number of items waiting at all registers.
func (s *Store) PendingItems() int {
	s.lockRegisters()
	defer s.unlockRegisters()

	total := 0
	for _, r := range s.registers {
		total += r.totalItemsLocked()
	}
	return total
}

// RegisterOf returns the register currently holding the customer's cart.
func (s *Store) RegisterOf(customerID string) (*Register, bool) {
	s.routesMu.RLock()
	defer s.routesMu.RUnlock()

	r, ok := s.routes[customerID]
	return r, ok
}

// Verify checks that every route points at a register holding the customer's
// cart and every cart has a route back to its register.
func (s *Store) Verify() error {
	s.routesMu.RLock()
	defer s.routesMu.RUnlock()
	s.lockRegisters()
	defer s.unlockRegisters()

	carts := 0
	for _, r := range s.registers {
		if len(r.order) != len(r.carts) {
			return errors.Wrapf(ErrInvariantViolation,
				"register %d tracks %d carts in order but holds %d", r.id, len(r.order), len(r.carts))
		}
		for id := range r.carts {
			if routed, ok := s.routes[id]; !ok || routed != r {
				return errors.Wrapf(ErrInvariantViolation,
					"customer %q has a cart at register %d without a matching route", id, r.id)
			}
		}
		carts += len(r.carts)
	}
	if carts != len(s.routes) {
		return errors.Wrapf(ErrInvariantViolation,
			"%d routes for %d carts", len(s.routes), carts)
	}
	return nil
}

func (s *Store) lockRegisters() {
	for _, r := range s.registers {
		r.mu.Lock()
	}
}

func (s *Store) unlockRegisters() {
	for i := len(s.registers) - 1; i >= 0; i-- {
		s.registers[i].mu.Unlock()
	}
}
