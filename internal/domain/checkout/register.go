package checkout

import "sync"

// Register is a single checkout station holding the pending carts assigned to it.
//
// All exported methods take the register lock. The *Locked helpers expect the
// caller to hold it already; Store uses them while scanning the whole pool.
type Register struct {
	id int

	mu    sync.Mutex
	carts map[string]*Cart
	// order lists customer ids in the order their carts were opened.
	order []string
}

// NewRegister creates an empty register with the given id.
func NewRegister(id int) *Register {
	return &Register{
		id:    id,
		carts: make(map[string]*Cart),
	}
}

// ID returns the register id.
func (r *Register) ID() int {
	return r.id
}

// AddItemToCart appends itemID to the customer's cart, opening a new cart if
// the customer has none at this register.
func (r *Register) AddItemToCart(customerID, itemID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.addItemLocked(customerID, itemID)
}

// CheckoutCart removes the customer's cart from the register.
func (r *Register) CheckoutCart(customerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.carts[customerID]; !ok {
		return &CartNotFoundError{CustomerID: customerID}
	}
	delete(r.carts, customerID)
	for i, id := range r.order {
		if id == customerID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// TotalItems returns the number of pending items across all carts.
func (r *Register) TotalItems() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.totalItemsLocked()
}

// State returns one entry per pending item, valued with the owning customer
// id, grouped by cart in the order the carts were opened.
func (r *Register) State() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.stateLocked()
}

// HasCart reports whether the customer has a pending cart at this register.
func (r *Register) HasCart(customerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.carts[customerID]
	return ok
}

func (r *Register) addItemLocked(customerID, itemID string) {
	cart, ok := r.carts[customerID]
	if !ok {
		cart = newCart(customerID)
		r.carts[customerID] = cart
		r.order = append(r.order, customerID)
	}
	cart.AddItem(itemID)
}

func (r *Register) totalItemsLocked() int {
	total := 0
	for _, cart := range r.carts {
		total += cart.Size()
	}
	return total
}

func (r *Register) stateLocked() []string {
	state := make([]string, 0, r.totalItemsLocked())
	for _, id := range r.order {
		cart := r.carts[id]
		for n := cart.Size(); n > 0; n-- {
			state = append(state, cart.CustomerID)
		}
	}
	return state
}
