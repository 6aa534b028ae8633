package checkin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ariefcatur/go-event-tickets/internal/tickets"
)

type Store interface {
	GetEvent(ctx context.Context, eventID string) (*tickets.Event, error)
	GetRegistration(ctx context.Context, eventID, userID string) (*tickets.Registration, error)
	SetCheckedIn(ctx context.Context, registrationID string, at time.Time) (bool, error)
	ClearCheckedIn(ctx context.Context, registrationID string) (bool, error)
	IsEventStaff(ctx context.Context, eventID, userID string) (bool, error)
}

// Publisher fans the recorded check-in out to the reward pipeline. Delivery
// is best-effort; the worker on the other side owns contribution and badge
// bookkeeping.
type Publisher interface {
	CheckInRecorded(eventID, userID, registrationID string, at time.Time)
}

type Service struct {
	Store     Store
	Publisher Publisher
	Lead      time.Duration
}

// GetCheckInStatus evaluates gate eligibility without mutating anything.
func (s *Service) GetCheckInStatus(ctx context.Context, eventID, userID string) (Status, error) {
	event, err := s.Store.GetEvent(ctx, eventID)
	if err != nil {
		return Status{}, err
	}
	reg, err := s.Store.GetRegistration(ctx, eventID, userID)
	if err != nil && !errors.Is(err, tickets.ErrRegistrationNotFound) {
		return Status{}, err
	}
	return Evaluate(event, reg, s.Lead, time.Now().UTC()), nil
}

// CheckIntoEvent records attendance. Users always check themselves in;
// checking in someone else requires event-management permission. The reward
// side effects ride on the publisher and never fail the check-in.
func (s *Service) CheckIntoEvent(ctx context.Context, eventID, userID, actingUserID string) (*tickets.Registration, error) {
	if actingUserID != "" && actingUserID != userID {
		ok, err := s.Store.IsEventStaff(ctx, eventID, actingUserID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrPermissionDenied
		}
	}

	event, err := s.Store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	reg, err := s.Store.GetRegistration(ctx, eventID, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	st := Evaluate(event, reg, s.Lead, now)
	switch st.Code {
	case Ready:
	case AlreadyCheckedIn:
		return nil, ErrAlreadyCheckedIn
	default:
		return nil, fmt.Errorf("%w: %s", ErrWindowClosed, st.Message)
	}

	ok, err := s.Store.SetCheckedIn(ctx, reg.ID, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		// lost the race to a concurrent check-in
		return nil, ErrAlreadyCheckedIn
	}
	reg.CheckedInAt = &now

	if s.Publisher != nil {
		s.Publisher.CheckInRecorded(eventID, userID, reg.ID, now)
	}
	return reg, nil
}

// CancelEventCheckIn reverses a recorded check-in.
func (s *Service) CancelEventCheckIn(ctx context.Context, eventID, userID, actingUserID string) (*tickets.Registration, error) {
	if actingUserID != "" && actingUserID != userID {
		ok, err := s.Store.IsEventStaff(ctx, eventID, actingUserID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrPermissionDenied
		}
	}

	reg, err := s.Store.GetRegistration(ctx, eventID, userID)
	if err != nil {
		return nil, err
	}
	if !reg.CheckedIn() {
		return nil, ErrNotCheckedIn
	}

	ok, err := s.Store.ClearCheckedIn(ctx, reg.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotCheckedIn
	}
	reg.CheckedInAt = nil
	return reg, nil
}
