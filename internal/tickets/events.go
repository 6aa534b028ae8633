package tickets

import (
	"encoding/json"
	"time"
)

const (
	EventOrderCancelled  = "OrderCancelled"
	EventOrderRefunded   = "OrderRefunded"
	EventCheckInRecorded = "CheckInRecorded"
	EventCommQueued      = "CommunicationQueued"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

type OrderCancelledPayload struct {
	OrderID string `json:"order_id"`
	OrderNo string `json:"order_no"`
	EventID string `json:"event_id"`
	UserID  string `json:"user_id"`
	Reason  string `json:"reason"`
}

type OrderRefundedPayload struct {
	OrderID  string `json:"order_id"`
	OrderNo  string `json:"order_no"`
	EventID  string `json:"event_id"`
	UserID   string `json:"user_id"`
	RefundID string `json:"refund_id"`
}

type CheckInRecordedPayload struct {
	EventID        string    `json:"event_id"`
	UserID         string    `json:"user_id"`
	RegistrationID string    `json:"registration_id"`
	CheckedInAt    time.Time `json:"checked_in_at"`
}

type CommQueuedPayload struct {
	CommunicationID string `json:"communication_id"`
	EventID         string `json:"event_id"`
}
