package tickets

import (
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/ariefcatur/go-event-tickets/internal/kafka"
)

// Publisher is the fire-and-forget outbox: the primary transaction commits
// first, then the event rides to the dispatch worker, which owns retries for
// the auxiliary effects.
type Publisher struct {
	OrderCancelledProducer *kafkax.Producer
	OrderRefundedProducer  *kafkax.Producer
	CheckInProducer        *kafkax.Producer
	CommProducer           *kafkax.Producer
	Service                string
}

func (p *Publisher) envelope(eventType, correlationID string, payload any) []byte {
	ev := Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      p.Service,
		CorrelationID: correlationID,
		Payload:       kafkax.MustMarshal(payload),
	}
	return kafkax.MustMarshal(ev)
}

func headers(eventType string) []kafkago.Header {
	return []kafkago.Header{
		{Key: "x-event-type", Value: []byte(eventType)},
		{Key: "x-event-version", Value: []byte("1")},
	}
}

func (p *Publisher) OrderCancelled(o *Order, reason string) {
	b := p.envelope(EventOrderCancelled, o.ID, OrderCancelledPayload{
		OrderID: o.ID, OrderNo: o.OrderNo, EventID: o.EventID, UserID: o.UserID, Reason: reason,
	})
	p.OrderCancelledProducer.Publish(PartitionKey(o.ID), b, headers(EventOrderCancelled)...)
}

func (p *Publisher) OrderRefunded(o *Order, refundID string) {
	b := p.envelope(EventOrderRefunded, o.ID, OrderRefundedPayload{
		OrderID: o.ID, OrderNo: o.OrderNo, EventID: o.EventID, UserID: o.UserID, RefundID: refundID,
	})
	p.OrderRefundedProducer.Publish(PartitionKey(o.ID), b, headers(EventOrderRefunded)...)
}

func (p *Publisher) CheckInRecorded(eventID, userID, registrationID string, at time.Time) {
	b := p.envelope(EventCheckInRecorded, registrationID, CheckInRecordedPayload{
		EventID: eventID, UserID: userID, RegistrationID: registrationID, CheckedInAt: at,
	})
	p.CheckInProducer.Publish(PartitionKey(registrationID), b, headers(EventCheckInRecorded)...)
}

func (p *Publisher) CommunicationQueued(communicationID, eventID string) {
	b := p.envelope(EventCommQueued, communicationID, CommQueuedPayload{
		CommunicationID: communicationID, EventID: eventID,
	})
	p.CommProducer.Publish(PartitionKey(communicationID), b, headers(EventCommQueued)...)
}
