package tickets

type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderPaid      OrderStatus = "PAID"
	OrderCancelled OrderStatus = "CANCELLED"
	OrderRefunded  OrderStatus = "REFUNDED"
)

// CANCELLED and REFUNDED are terminal.
var orderNext = map[OrderStatus]map[OrderStatus]bool{
	OrderPending:   {OrderPaid: true, OrderCancelled: true, OrderRefunded: true},
	OrderPaid:      {OrderRefunded: true},
	OrderCancelled: {},
	OrderRefunded:  {},
}

func (s OrderStatus) CanTransition(to OrderStatus) bool {
	return orderNext[s][to]
}

type RegStatus string

const (
	RegPendingPayment RegStatus = "PENDING_PAYMENT"
	RegPending        RegStatus = "PENDING"
	RegApproved       RegStatus = "APPROVED"
	RegRejected       RegStatus = "REJECTED"
	RegWaitlisted     RegStatus = "WAITLISTED"
	RegCancelled      RegStatus = "CANCELLED"
)

// A CANCELLED registration may be reactivated by a later invite redemption
// or a fresh order.
var regNext = map[RegStatus]map[RegStatus]bool{
	RegPendingPayment: {RegPending: true, RegApproved: true, RegCancelled: true},
	RegPending:        {RegApproved: true, RegRejected: true, RegWaitlisted: true, RegCancelled: true},
	RegApproved:       {RegRejected: true, RegCancelled: true},
	RegRejected:       {RegApproved: true, RegWaitlisted: true},
	RegWaitlisted:     {RegApproved: true, RegRejected: true, RegCancelled: true},
	RegCancelled:      {RegPendingPayment: true, RegPending: true, RegApproved: true},
}

func (s RegStatus) CanTransition(to RegStatus) bool {
	return regNext[s][to]
}

// Active reports whether the registration counts toward the event
// (blocks re-registration, receives communications once approved or pending).
func (s RegStatus) Active() bool {
	return s != RegCancelled
}

type InviteStatus string

const (
	InvitePending  InviteStatus = "PENDING"
	InviteRedeemed InviteStatus = "REDEEMED"
	InviteInvalid  InviteStatus = "INVALID"
)

var inviteNext = map[InviteStatus]map[InviteStatus]bool{
	InvitePending:  {InviteRedeemed: true, InviteInvalid: true},
	InviteRedeemed: {},
	InviteInvalid:  {},
}

func (s InviteStatus) CanTransition(to InviteStatus) bool {
	return inviteNext[s][to]
}
