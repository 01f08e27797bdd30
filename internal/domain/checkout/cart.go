package checkout

// Cart holds the items a single customer has queued for checkout.
type Cart struct {
	CustomerID string
	Items      []string
}

func newCart(customerID string) *Cart {
	return &Cart{CustomerID: customerID}
}

// AddItem appends itemID to the cart. Duplicates are kept.
func (c *Cart) AddItem(itemID string) {
	c.Items = append(c.Items, itemID)
}

// Size returns the number of items in the cart.
func (c *Cart) Size() int {
	return len(c.Items)
}
