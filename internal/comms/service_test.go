package comms

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-event-tickets/internal/tickets"
)

type fakeStore struct {
	count       int
	created     *Communication
	recipients  []Recipient
	comm        *Communication
	counts      StatusCounts
	resetN      int
	aggStatus   Status
	aggCounts   StatusCounts
	records     []RecordUpdate
	countCalled bool
}

func (f *fakeStore) CountByEvent(ctx context.Context, eventID string) (int, error) {
	f.countCalled = true
	return f.count, nil
}

func (f *fakeStore) CreateWithRecords(ctx context.Context, c *Communication, recipients []Recipient) error {
	f.created = c
	f.recipients = recipients
	return nil
}

func (f *fakeStore) Get(ctx context.Context, id string) (*Communication, error) {
	if f.comm == nil {
		return nil, ErrNotFound
	}
	return f.comm, nil
}

func (f *fakeStore) RecordStatusCounts(ctx context.Context, communicationID string) (StatusCounts, error) {
	return f.counts, nil
}

func (f *fakeStore) UpdateAggregates(ctx context.Context, communicationID string, counts StatusCounts, status Status) error {
	f.aggCounts = counts
	f.aggStatus = status
	if f.comm != nil {
		f.comm.Status = status
	}
	return nil
}

func (f *fakeStore) ResetFailedRecords(ctx context.Context, communicationID string) (int, error) {
	return f.resetN, nil
}

func (f *fakeStore) UpdateRecord(ctx context.Context, recordID string, status RecordStatus, errorMessage *string) error {
	f.records = append(f.records, RecordUpdate{RecordID: recordID, Status: status, ErrorMessage: errorMessage})
	return nil
}

type fakeRegistrants struct {
	regs   []tickets.Registrant
	called bool
}

func (f *fakeRegistrants) Registrants(ctx context.Context, eventID string, statuses []tickets.RegStatus) ([]tickets.Registrant, error) {
	f.called = true
	return f.regs, nil
}

type fakeQueue struct {
	queued []string
}

func (f *fakeQueue) CommunicationQueued(communicationID, eventID string) {
	f.queued = append(f.queued, communicationID)
}

func reachable(n int) []tickets.Registrant {
	var regs []tickets.Registrant
	for i := 0; i < n; i++ {
		email := "guest@example.com"
		regs = append(regs, tickets.Registrant{
			Status: tickets.RegApproved,
			User:   tickets.User{ID: "user", Email: &email, EmailVerified: true},
		})
	}
	return regs
}

func TestCreateEventCommunication(t *testing.T) {
	store := &fakeStore{}
	regs := &fakeRegistrants{regs: reachable(3)}
	queue := &fakeQueue{}
	svc := &Service{Store: store, Registrants: regs, Publisher: queue}

	c, err := svc.CreateEventCommunication(context.Background(), CreateInput{
		EventID: "evt-1", SenderID: "staff-1", Type: TypeEmail,
		Subject: "Doors open", Content: "See you at 7pm",
	})

	require.NoError(t, err)
	assert.Equal(t, StatusSending, c.Status)
	assert.Equal(t, 3, c.TotalRecipients)
	require.NotNil(t, store.created)
	assert.Len(t, store.recipients, 3)
	assert.Equal(t, []string{c.ID}, queue.queued)
}

func TestCreateEventCommunicationQuotaExceeded(t *testing.T) {
	store := &fakeStore{count: DefaultQuotaPerEvent}
	regs := &fakeRegistrants{regs: reachable(3)}
	svc := &Service{Store: store, Registrants: regs}

	_, err := svc.CreateEventCommunication(context.Background(), CreateInput{EventID: "evt-1", Type: TypeEmail})

	assert.ErrorIs(t, err, ErrQuotaExceeded)
	// quota is checked before any registrant work happens
	assert.False(t, regs.called)
	assert.Nil(t, store.created)
}

func TestCreateEventCommunicationNoRegistrants(t *testing.T) {
	svc := &Service{Store: &fakeStore{}, Registrants: &fakeRegistrants{}}

	_, err := svc.CreateEventCommunication(context.Background(), CreateInput{EventID: "evt-1", Type: TypeEmail})

	assert.ErrorIs(t, err, ErrNoRegistrants)
}

func TestCreateEventCommunicationNoValidRecipients(t *testing.T) {
	// registrants exist but none has a verified phone
	regs := &fakeRegistrants{regs: reachable(3)}
	svc := &Service{Store: &fakeStore{}, Registrants: regs}

	_, err := svc.CreateEventCommunication(context.Background(), CreateInput{EventID: "evt-1", Type: TypeSMS})

	assert.ErrorIs(t, err, ErrNoValidRecipients)
}

func TestCreateEventCommunicationScheduled(t *testing.T) {
	store := &fakeStore{}
	queue := &fakeQueue{}
	svc := &Service{Store: store, Registrants: &fakeRegistrants{regs: reachable(2)}, Publisher: queue}

	at := time.Now().Add(time.Hour)
	c, err := svc.CreateEventCommunication(context.Background(), CreateInput{
		EventID: "evt-1", Type: TypeEmail, ScheduledAt: &at,
	})

	require.NoError(t, err)
	assert.Equal(t, StatusPending, c.Status)
	// scheduled sends are not handed to the worker yet
	assert.Empty(t, queue.queued)
}

func TestUpdateCommunicationStats(t *testing.T) {
	store := &fakeStore{
		comm:   &Communication{ID: "comm-1", TotalRecipients: 4, Status: StatusSending},
		counts: StatusCounts{RecordSent: 1, RecordDelivered: 2, RecordFailed: 1},
	}
	svc := &Service{Store: store}

	c, err := svc.UpdateCommunicationStats(context.Background(), "comm-1")

	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, c.Status)
	assert.Equal(t, StatusCompleted, store.aggStatus)
	assert.Equal(t, store.counts, store.aggCounts)
}

func TestRetryFailedCommunicationRecords(t *testing.T) {
	store := &fakeStore{
		comm:   &Communication{ID: "comm-1", EventID: "evt-1", TotalRecipients: 4, Status: StatusFailed},
		counts: StatusCounts{RecordPending: 3, RecordFailed: 1},
		resetN: 3,
	}
	queue := &fakeQueue{}
	svc := &Service{Store: store, Publisher: queue}

	n, err := svc.RetryFailedCommunicationRecords(context.Background(), "comm-1")

	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, StatusSending, store.aggStatus)
	// the reopening write is a legal transition
	assert.True(t, StatusFailed.CanTransition(store.aggStatus))
	assert.Equal(t, []string{"comm-1"}, queue.queued)
}

func TestRetryCancelledCampaign(t *testing.T) {
	store := &fakeStore{
		comm:   &Communication{ID: "comm-1", TotalRecipients: 2, Status: StatusCancelled},
		resetN: 2,
	}
	queue := &fakeQueue{}
	svc := &Service{Store: store, Publisher: queue}

	_, err := svc.RetryFailedCommunicationRecords(context.Background(), "comm-1")

	assert.ErrorIs(t, err, ErrNotRetryable)
	assert.Empty(t, queue.queued)
	assert.Empty(t, store.aggStatus)
}

func TestUpdateCommunicationStatsKeepsCancelled(t *testing.T) {
	store := &fakeStore{
		comm:   &Communication{ID: "comm-1", TotalRecipients: 4, Status: StatusCancelled},
		counts: StatusCounts{RecordSent: 2, RecordFailed: 2},
	}
	svc := &Service{Store: store}

	c, err := svc.UpdateCommunicationStats(context.Background(), "comm-1")

	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, c.Status)
	assert.Equal(t, StatusCancelled, store.aggStatus)
}

func TestRetryFailedCommunicationRecordsNothingLeft(t *testing.T) {
	store := &fakeStore{
		comm: &Communication{ID: "comm-1", TotalRecipients: 2, Status: StatusFailed},
	}
	queue := &fakeQueue{}
	svc := &Service{Store: store, Publisher: queue}

	_, err := svc.RetryFailedCommunicationRecords(context.Background(), "comm-1")

	assert.ErrorIs(t, err, ErrNoRetryableRecords)
	assert.Empty(t, queue.queued)
}

func TestBatchUpdateCommunicationRecords(t *testing.T) {
	store := &fakeStore{}
	svc := &Service{Store: store}

	msg := "mailbox full"
	err := svc.BatchUpdateCommunicationRecords(context.Background(), []RecordUpdate{
		{RecordID: "rec-1", Status: RecordDelivered},
		{RecordID: "rec-2", Status: RecordFailed, ErrorMessage: &msg},
	})

	require.NoError(t, err)
	require.Len(t, store.records, 2)
	assert.Equal(t, RecordDelivered, store.records[0].Status)
	assert.Equal(t, "mailbox full", *store.records[1].ErrorMessage)
}
