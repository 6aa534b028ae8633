package checkin

import (
	"time"

	"github.com/ariefcatur/go-event-tickets/internal/tickets"
)

type StatusCode string

const (
	NotRegistered       StatusCode = "NOT_REGISTERED"
	RegistrationPending StatusCode = "REGISTRATION_PENDING"
	AlreadyCheckedIn    StatusCode = "ALREADY_CHECKED_IN"
	CheckInNotStarted   StatusCode = "CHECKIN_NOT_STARTED"
	EventEnded          StatusCode = "EVENT_ENDED"
	Ready               StatusCode = "READY"
)

// DefaultLead is how long before event start the check-in window opens.
const DefaultLead = 2 * time.Hour

type Status struct {
	Code       StatusCode `json:"statusCode"`
	CanCheckIn bool       `json:"canCheckIn"`
	Message    string     `json:"message"`
}

var messages = map[StatusCode]string{
	NotRegistered:       "you are not registered for this event",
	RegistrationPending: "your registration has not been approved yet",
	AlreadyCheckedIn:    "you are already checked in",
	CheckInNotStarted:   "check-in has not started yet",
	EventEnded:          "the event has ended",
	Ready:               "you can check in now",
}

// Evaluate applies the gate checks in their fixed order: registration
// existence, approval, existing check-in, window not open, window closed.
// A cancelled registration counts as not registered.
func Evaluate(event *tickets.Event, reg *tickets.Registration, lead time.Duration, now time.Time) Status {
	if lead <= 0 {
		lead = DefaultLead
	}
	code := func() StatusCode {
		if reg == nil || reg.Status == tickets.RegCancelled {
			return NotRegistered
		}
		if reg.Status != tickets.RegApproved {
			return RegistrationPending
		}
		if reg.CheckedIn() {
			return AlreadyCheckedIn
		}
		if now.Before(event.StartTime.Add(-lead)) {
			return CheckInNotStarted
		}
		if now.After(event.EndTime) {
			return EventEnded
		}
		return Ready
	}()
	return Status{Code: code, CanCheckIn: code == Ready, Message: messages[code]}
}
