package tickets

import "errors"

var (
	ErrEventNotFound        = errors.New("event not found")
	ErrOrderNotFound        = errors.New("order not found")
	ErrTicketTypeNotFound   = errors.New("ticket type not found")
	ErrInviteNotFound       = errors.New("invite not found")
	ErrRegistrationNotFound = errors.New("registration not found")
	ErrSoldOut              = errors.New("ticket type sold out")

	ErrInviteWrongEvent   = errors.New("invite belongs to a different event")
	ErrInviteNotPending   = errors.New("invite already used or invalidated")
	ErrInviteOrderNotPaid = errors.New("invite order is not paid")
	ErrAlreadyRegistered  = errors.New("user already registered for event")
	ErrTooManyInvites     = errors.New("invite count exceeds remaining order seats")
)
