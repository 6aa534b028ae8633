package checkin

import "errors"

var (
	ErrNotCheckedIn     = errors.New("not currently checked in")
	ErrAlreadyCheckedIn = errors.New("already checked in")
	ErrWindowClosed     = errors.New("check-in window is not open")
	ErrPermissionDenied = errors.New("no permission to manage check-ins for this event")
)
