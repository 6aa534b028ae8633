package tickets

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInviteCapacity(t *testing.T) {
	paid := &Order{Status: OrderPaid, Quantity: 5}

	assert.NoError(t, inviteCapacity(paid, 0, 5))
	assert.NoError(t, inviteCapacity(paid, 3, 2))

	// repeated calls cannot mint past the order's seat count
	assert.ErrorIs(t, inviteCapacity(paid, 3, 3), ErrTooManyInvites)
	assert.ErrorIs(t, inviteCapacity(paid, 5, 1), ErrTooManyInvites)

	// only paid orders issue invites
	for _, s := range []OrderStatus{OrderPending, OrderCancelled, OrderRefunded} {
		o := &Order{Status: s, Quantity: 5}
		assert.ErrorIs(t, inviteCapacity(o, 0, 1), ErrInviteOrderNotPaid, s)
	}
}
