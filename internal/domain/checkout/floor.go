package checkout

import "sync/atomic"

// Floor is the process-wide handle to the live Store. Reset replaces the whole
// store in one atomic swap, so readers see either the old pool or the new one.
type Floor struct {
	registers int
	current   atomic.Pointer[Store]
}

// NewFloor creates a floor with a fresh store of n registers.
func NewFloor(n int) (*Floor, error) {
	s, err := NewStore(n)
	if err != nil {
		return nil, err
	}
	f := &Floor{registers: n}
	f.current.Store(s)
	return f, nil
}

// Current returns the live store.
func (f *Floor) Current() *Store {
	return f.current.Load()
}

// Reset discards all carts and routes and installs a fresh store.
func (f *Floor) Reset() error {
	s, err := NewStore(f.registers)
	if err != nil {
		return err
	}
	f.current.Store(s)
	return nil
}

// AssignItem assigns an item on the live store.
func (f *Floor) AssignItem(customerID, itemID string) (int, error) {
	return f.Current().AssignItem(customerID, itemID)
}

// CheckoutCustomer checks out a customer on the live store.
func (f *Floor) CheckoutCustomer(customerID string) error {
	return f.Current().CheckoutCustomer(customerID)
}

// State returns a snapshot of the live store.
func (f *Floor) State() map[int][]string {
	return f.Current().State()
}
