package checkout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFloor_InvalidCount(t *testing.T) {
	_, err := NewFloor(0)
	require.ErrorIs(t, err, ErrInvalidRegisterCount)
}

func TestFloor_ResetSwapsStore(t *testing.T) {
	f, err := NewFloor(3)
	require.NoError(t, err)

	_, err = f.AssignItem("c1", "apple")
	require.NoError(t, err)
	before := f.Current()

	require.NoError(t, f.Reset())

	after := f.Current()
	assert.NotSame(t, before, after)
	assert.Equal(t, 3, after.Len())
	for id, items := range f.State() {
		assert.Empty(t, items, "register %d", id)
	}
	require.ErrorIs(t, f.CheckoutCustomer("c1"), ErrCartNotFound)

	// The discarded store is left untouched.
	assert.Equal(t, 1, before.PendingItems())
}

func TestFloor_Delegates(t *testing.T) {
	f, err := NewFloor(2)
	require.NoError(t, err)

	id, err := f.AssignItem("c1", "apple")
	require.NoError(t, err)
	assert.Equal(t, []string{"c1"}, f.State()[id])

	require.NoError(t, f.CheckoutCustomer("c1"))
	assert.Empty(t, f.State()[id])
}
