package tickets

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatusTransitions(t *testing.T) {
	assert.True(t, OrderPending.CanTransition(OrderPaid))
	assert.True(t, OrderPending.CanTransition(OrderCancelled))
	assert.True(t, OrderPending.CanTransition(OrderRefunded))
	assert.True(t, OrderPaid.CanTransition(OrderRefunded))

	// CANCELLED and REFUNDED are terminal
	for _, from := range []OrderStatus{OrderCancelled, OrderRefunded} {
		for _, to := range []OrderStatus{OrderPending, OrderPaid, OrderCancelled, OrderRefunded} {
			assert.False(t, from.CanTransition(to), "%s -> %s", from, to)
		}
	}

	assert.False(t, OrderPaid.CanTransition(OrderPending))
	assert.False(t, OrderPaid.CanTransition(OrderCancelled))
}

func TestRegStatusTransitions(t *testing.T) {
	assert.True(t, RegPendingPayment.CanTransition(RegApproved))
	assert.True(t, RegPendingPayment.CanTransition(RegPending))
	assert.True(t, RegPending.CanTransition(RegWaitlisted))
	assert.True(t, RegWaitlisted.CanTransition(RegApproved))

	// invite redemption or a fresh order may reactivate a cancelled registration
	assert.True(t, RegCancelled.CanTransition(RegPending))
	assert.True(t, RegCancelled.CanTransition(RegApproved))
	assert.True(t, RegCancelled.CanTransition(RegPendingPayment))
	assert.False(t, RegCancelled.CanTransition(RegRejected))

	assert.False(t, RegApproved.CanTransition(RegPending))
}

func TestRegStatusActive(t *testing.T) {
	for _, s := range []RegStatus{RegPendingPayment, RegPending, RegApproved, RegRejected, RegWaitlisted} {
		assert.True(t, s.Active(), s)
	}
	assert.False(t, RegCancelled.Active())
}

func TestInviteStatusTransitions(t *testing.T) {
	assert.True(t, InvitePending.CanTransition(InviteRedeemed))
	assert.True(t, InvitePending.CanTransition(InviteInvalid))

	assert.False(t, InviteRedeemed.CanTransition(InvitePending))
	assert.False(t, InviteRedeemed.CanTransition(InviteInvalid))
	assert.False(t, InviteInvalid.CanTransition(InviteRedeemed))
}
