package comms

import "time"

type Type string

const (
	TypeEmail Type = "EMAIL"
	TypeSMS   Type = "SMS"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusSending   Status = "SENDING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
)

// A capped retry reopens a finished campaign's failed records, so COMPLETED
// and FAILED may move back to SENDING. CANCELLED is terminal.
var commNext = map[Status]map[Status]bool{
	StatusPending:   {StatusSending: true, StatusCancelled: true},
	StatusSending:   {StatusCompleted: true, StatusFailed: true, StatusCancelled: true},
	StatusCompleted: {StatusSending: true},
	StatusFailed:    {StatusSending: true},
	StatusCancelled: {},
}

func (s Status) CanTransition(to Status) bool { return commNext[s][to] }

type RecordStatus string

const (
	RecordPending   RecordStatus = "PENDING"
	RecordSent      RecordStatus = "SENT"
	RecordDelivered RecordStatus = "DELIVERED"
	RecordRead      RecordStatus = "READ"
	RecordFailed    RecordStatus = "FAILED"
)

// Terminal reports whether the record has reached a final delivery outcome.
// FAILED stays terminal for stats even though a capped retry can reopen it.
func (s RecordStatus) Terminal() bool {
	switch s {
	case RecordSent, RecordDelivered, RecordRead, RecordFailed:
		return true
	}
	return false
}

// MaxRecordRetries caps total attempts per recipient; beyond it a failure is
// permanent.
const MaxRecordRetries = 3

// DefaultQuotaPerEvent caps live communications per event, enforced at
// creation time.
const DefaultQuotaPerEvent = 8

type Communication struct {
	ID              string
	EventID         string
	SenderID        string
	Type            Type
	Subject         string
	Content         string
	Status          Status
	TotalRecipients int
	SentCount       int
	DeliveredCount  int
	FailedCount     int
	ScheduledAt     *time.Time
	SentAt          *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type Record struct {
	ID              string
	CommunicationID string
	RecipientID     string
	Address         string
	Status          RecordStatus
	RetryCount      int
	ErrorMessage    *string
	SentAt          *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
