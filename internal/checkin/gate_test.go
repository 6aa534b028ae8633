package checkin

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ariefcatur/go-event-tickets/internal/tickets"
)

var start = time.Date(2024, 6, 1, 18, 0, 0, 0, time.UTC)

func testEvent() *tickets.Event {
	return &tickets.Event{ID: "e1", StartTime: start, EndTime: start.Add(4 * time.Hour)}
}

func approvedReg() *tickets.Registration {
	return &tickets.Registration{ID: "r1", EventID: "e1", UserID: "u1", Status: tickets.RegApproved}
}

func TestEvaluate_NotRegistered(t *testing.T) {
	st := Evaluate(testEvent(), nil, 0, start)
	assert.Equal(t, NotRegistered, st.Code)
	assert.False(t, st.CanCheckIn)
}

func TestEvaluate_CancelledCountsAsNotRegistered(t *testing.T) {
	reg := approvedReg()
	reg.Status = tickets.RegCancelled
	st := Evaluate(testEvent(), reg, 0, start)
	assert.Equal(t, NotRegistered, st.Code)
}

func TestEvaluate_RegistrationPending(t *testing.T) {
	for _, s := range []tickets.RegStatus{tickets.RegPendingPayment, tickets.RegPending, tickets.RegWaitlisted, tickets.RegRejected} {
		reg := approvedReg()
		reg.Status = s
		st := Evaluate(testEvent(), reg, 0, start)
		assert.Equal(t, RegistrationPending, st.Code, s)
	}
}

func TestEvaluate_Window(t *testing.T) {
	reg := approvedReg()

	// three hours early: window opens at start - 2h
	st := Evaluate(testEvent(), reg, 0, start.Add(-3*time.Hour))
	assert.Equal(t, CheckInNotStarted, st.Code)
	assert.False(t, st.CanCheckIn)

	// one hour early: inside the window
	st = Evaluate(testEvent(), reg, 0, start.Add(-time.Hour))
	assert.Equal(t, Ready, st.Code)
	assert.True(t, st.CanCheckIn)

	// after the event ends
	st = Evaluate(testEvent(), reg, 0, start.Add(5*time.Hour))
	assert.Equal(t, EventEnded, st.Code)
}

func TestEvaluate_CustomLead(t *testing.T) {
	reg := approvedReg()
	st := Evaluate(testEvent(), reg, 30*time.Minute, start.Add(-time.Hour))
	assert.Equal(t, CheckInNotStarted, st.Code)
}

func TestEvaluate_AlreadyCheckedInBeatsWindow(t *testing.T) {
	reg := approvedReg()
	at := start.Add(-time.Hour)
	reg.CheckedInAt = &at

	// the existing check-in wins even outside the window
	st := Evaluate(testEvent(), reg, 0, start.Add(6*time.Hour))
	assert.Equal(t, AlreadyCheckedIn, st.Code)
	assert.False(t, st.CanCheckIn)
}
