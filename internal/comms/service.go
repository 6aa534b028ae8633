package comms

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ariefcatur/go-event-tickets/internal/tickets"
)

type Store interface {
	CountByEvent(ctx context.Context, eventID string) (int, error)
	CreateWithRecords(ctx context.Context, c *Communication, recipients []Recipient) error
	Get(ctx context.Context, id string) (*Communication, error)
	RecordStatusCounts(ctx context.Context, communicationID string) (StatusCounts, error)
	UpdateAggregates(ctx context.Context, communicationID string, counts StatusCounts, status Status) error
	ResetFailedRecords(ctx context.Context, communicationID string) (int, error)
	UpdateRecord(ctx context.Context, recordID string, status RecordStatus, errorMessage *string) error
}

type RegistrantSource interface {
	Registrants(ctx context.Context, eventID string, statuses []tickets.RegStatus) ([]tickets.Registrant, error)
}

// Publisher hands an immediate communication to the delivery worker.
type Publisher interface {
	CommunicationQueued(communicationID, eventID string)
}

type Service struct {
	Store       Store
	Registrants RegistrantSource
	Publisher   Publisher
	Quota       int
}

func (s *Service) quota() int {
	if s.Quota <= 0 {
		return DefaultQuotaPerEvent
	}
	return s.Quota
}

type Quota struct {
	CanSend   bool `json:"canSend"`
	Remaining int  `json:"remaining"`
	Limit     int  `json:"limit"`
}

func (s *Service) CanSendCommunication(ctx context.Context, eventID string) (Quota, error) {
	n, err := s.Store.CountByEvent(ctx, eventID)
	if err != nil {
		return Quota{}, err
	}
	remaining := s.quota() - n
	if remaining < 0 {
		remaining = 0
	}
	return Quota{CanSend: remaining > 0, Remaining: remaining, Limit: s.quota()}, nil
}

type CreateInput struct {
	EventID     string
	SenderID    string
	Type        Type
	Subject     string
	Content     string
	ScheduledAt *time.Time
}

// CreateEventCommunication checks the quota first, filters registrants down
// to reachable recipients and freezes that count onto the campaign. The
// records are created in the same transaction as the communication itself.
func (s *Service) CreateEventCommunication(ctx context.Context, in CreateInput) (*Communication, error) {
	q, err := s.CanSendCommunication(ctx, in.EventID)
	if err != nil {
		return nil, err
	}
	if !q.CanSend {
		return nil, ErrQuotaExceeded
	}

	regs, err := s.Registrants.Registrants(ctx, in.EventID,
		[]tickets.RegStatus{tickets.RegApproved, tickets.RegPending})
	if err != nil {
		return nil, err
	}
	if len(regs) == 0 {
		return nil, ErrNoRegistrants
	}
	recipients := FilterRecipients(in.Type, regs)
	if len(recipients) == 0 {
		return nil, ErrNoValidRecipients
	}

	status := StatusSending
	if in.ScheduledAt != nil {
		status = StatusPending
	}
	c := &Communication{
		ID:              uuid.NewString(),
		EventID:         in.EventID,
		SenderID:        in.SenderID,
		Type:            in.Type,
		Subject:         in.Subject,
		Content:         in.Content,
		Status:          status,
		TotalRecipients: len(recipients),
		ScheduledAt:     in.ScheduledAt,
	}
	if err := s.Store.CreateWithRecords(ctx, c, recipients); err != nil {
		return nil, err
	}

	if status == StatusSending && s.Publisher != nil {
		s.Publisher.CommunicationQueued(c.ID, c.EventID)
	}
	return c, nil
}

// GetCommunication loads the campaign without touching its aggregates.
func (s *Service) GetCommunication(ctx context.Context, id string) (*Communication, error) {
	return s.Store.Get(ctx, id)
}

// UpdateCommunicationStats re-derives the campaign status from its records.
// A derived status the transition table forbids (a CANCELLED campaign, say)
// leaves the current status in place.
func (s *Service) UpdateCommunicationStats(ctx context.Context, communicationID string) (*Communication, error) {
	c, err := s.Store.Get(ctx, communicationID)
	if err != nil {
		return nil, err
	}
	counts, err := s.Store.RecordStatusCounts(ctx, communicationID)
	if err != nil {
		return nil, err
	}
	status := DeriveStatus(counts, c.TotalRecipients)
	if status != c.Status && !c.Status.CanTransition(status) {
		status = c.Status
	}
	if err := s.Store.UpdateAggregates(ctx, communicationID, counts, status); err != nil {
		return nil, err
	}
	return s.Store.Get(ctx, communicationID)
}

// RetryFailedCommunicationRecords reopens failed records under the retry cap
// and requeues the campaign for delivery.
func (s *Service) RetryFailedCommunicationRecords(ctx context.Context, communicationID string) (int, error) {
	c, err := s.Store.Get(ctx, communicationID)
	if err != nil {
		return 0, err
	}
	if c.Status != StatusSending && !c.Status.CanTransition(StatusSending) {
		return 0, ErrNotRetryable
	}
	n, err := s.Store.ResetFailedRecords(ctx, communicationID)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, ErrNoRetryableRecords
	}
	counts, err := s.Store.RecordStatusCounts(ctx, communicationID)
	if err != nil {
		return n, err
	}
	if err := s.Store.UpdateAggregates(ctx, communicationID, counts, StatusSending); err != nil {
		return n, err
	}
	if s.Publisher != nil {
		s.Publisher.CommunicationQueued(c.ID, c.EventID)
	}
	return n, nil
}

type RecordUpdate struct {
	RecordID     string       `json:"recordId"`
	Status       RecordStatus `json:"status"`
	ErrorMessage *string      `json:"errorMessage,omitempty"`
}

// UpdateCommunicationRecord reports one delivery outcome from the transport.
func (s *Service) UpdateCommunicationRecord(ctx context.Context, u RecordUpdate) error {
	return s.Store.UpdateRecord(ctx, u.RecordID, u.Status, u.ErrorMessage)
}

// BatchUpdateCommunicationRecords applies transport outcomes in bulk; each
// write is idempotent so replays are harmless.
func (s *Service) BatchUpdateCommunicationRecords(ctx context.Context, updates []RecordUpdate) error {
	for _, u := range updates {
		if err := s.Store.UpdateRecord(ctx, u.RecordID, u.Status, u.ErrorMessage); err != nil {
			return err
		}
	}
	return nil
}
