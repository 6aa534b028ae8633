package comms

import (
	"context"
	"log"
)

// Outbound is one message handed to the delivery transport.
type Outbound struct {
	Type    Type
	Address string
	Subject string
	Body    string
}

// Sender is the outbound mail/SMS collaborator. Implementations live at the
// edge (SMTP relay, SMS gateway); the delivery worker reports their outcomes
// back through the record-update APIs.
type Sender interface {
	Send(ctx context.Context, msg Outbound) error
}

// LogSender logs instead of delivering. Default transport for local runs.
type LogSender struct{}

func (LogSender) Send(_ context.Context, msg Outbound) error {
	log.Printf("deliver %s to %s: %s", msg.Type, msg.Address, msg.Subject)
	return nil
}
