package dispatch

import (
	"context"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/ariefcatur/go-event-tickets/internal/comms"
	kafkax "github.com/ariefcatur/go-event-tickets/internal/kafka"
	"github.com/ariefcatur/go-event-tickets/internal/redisx"
	"github.com/ariefcatur/go-event-tickets/internal/rewards"
	"github.com/ariefcatur/go-event-tickets/internal/tickets"
)

// Service is the worker behind the outbox: cancellation notices, the
// contribution/badge pipeline and communication delivery all run here, off
// the request path. Reward and notice failures are logged and dropped; only
// infrastructure errors bubble up for redelivery.
type Service struct {
	Tickets     *tickets.Repo
	Comms       *comms.Service
	CommsRepo   *comms.Repo
	Rewards     *rewards.Repo
	Sender      comms.Sender
	Redis       *redis.Client
	ServiceName string
}

func (s *Service) Handle(ctx context.Context, m kafkago.Message) error {
	var env tickets.Envelope
	if err := kafkax.UnmarshalEnvelope(m.Value, &env); err != nil {
		return err
	}

	// dedup on event id: redelivered messages are no-ops
	dkey := fmt.Sprintf(redisx.KeyDedup, "dispatch", env.EventID)
	if exists, _ := redisx.Exists(ctx, s.Redis, dkey); exists {
		return nil
	}
	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()

	switch env.EventType {
	case tickets.EventOrderCancelled:
		return s.handleOrderClosed(ctx, env, "your order was cancelled")
	case tickets.EventOrderRefunded:
		return s.handleOrderClosed(ctx, env, "your order was refunded")
	case tickets.EventCheckInRecorded:
		return s.handleCheckIn(ctx, env)
	case tickets.EventCommQueued:
		return s.handleCommQueued(ctx, env)
	}
	return nil
}

// handleOrderClosed emails the buyer about a cancel/refund. Best-effort: a
// failed notice is logged, never redelivered.
func (s *Service) handleOrderClosed(ctx context.Context, env tickets.Envelope, notice string) error {
	p, err := kafkax.UnwrapPayload[tickets.OrderCancelledPayload](env.Payload)
	if err != nil {
		return err
	}
	user, err := s.Tickets.GetUser(ctx, p.UserID)
	if err != nil {
		log.Printf("order notice: user %s: %v", p.UserID, err)
		return nil
	}
	if user.Email == nil || *user.Email == "" {
		return nil
	}
	msg := comms.Outbound{
		Type:    comms.TypeEmail,
		Address: *user.Email,
		Subject: fmt.Sprintf("Order %s update", p.OrderNo),
		Body:    notice,
	}
	if err := s.Sender.Send(ctx, msg); err != nil {
		log.Printf("order notice: send to %s: %v", p.UserID, err)
	}
	return nil
}

// handleCheckIn runs the gamification side effects. Check-in already
// succeeded; anything failing here is logged and dropped.
func (s *Service) handleCheckIn(ctx context.Context, env tickets.Envelope) error {
	p, err := kafkax.UnwrapPayload[tickets.CheckInRecordedPayload](env.Payload)
	if err != nil {
		return err
	}
	if err := s.Rewards.RecordContribution(ctx, p.UserID, rewards.ContributionCheckIn, p.RegistrationID, p.CheckedInAt); err != nil {
		log.Printf("contribution for %s: %v", p.UserID, err)
		return nil
	}
	awarded, err := s.Rewards.EvaluateBadges(ctx, p.UserID)
	if err != nil {
		log.Printf("badge evaluation for %s: %v", p.UserID, err)
		return nil
	}
	if len(awarded) > 0 {
		log.Printf("badges awarded to %s: %v", p.UserID, awarded)
	}
	return nil
}

// handleCommQueued delivers one campaign's pending records, reports each
// outcome through the record-update API and re-derives the campaign stats.
func (s *Service) handleCommQueued(ctx context.Context, env tickets.Envelope) error {
	p, err := kafkax.UnwrapPayload[tickets.CommQueuedPayload](env.Payload)
	if err != nil {
		return err
	}
	c, err := s.CommsRepo.Get(ctx, p.CommunicationID)
	if err != nil {
		return err
	}
	records, err := s.CommsRepo.PendingRecords(ctx, p.CommunicationID)
	if err != nil {
		return err
	}

	for _, rec := range records {
		// per-attempt dedup so a redelivered campaign doesn't resend,
		// while a capped retry (bumped retry_count) still goes out
		dkey := fmt.Sprintf(redisx.KeyDelivery, c.ID, rec.ID, rec.RetryCount)
		if exists, _ := redisx.Exists(ctx, s.Redis, dkey); exists {
			continue
		}

		sendErr := s.Sender.Send(ctx, comms.Outbound{
			Type:    c.Type,
			Address: rec.Address,
			Subject: c.Subject,
			Body:    c.Content,
		})
		update := comms.RecordUpdate{RecordID: rec.ID, Status: comms.RecordSent}
		if sendErr != nil {
			msg := sendErr.Error()
			update = comms.RecordUpdate{RecordID: rec.ID, Status: comms.RecordFailed, ErrorMessage: &msg}
		}
		if err := s.Comms.UpdateCommunicationRecord(ctx, update); err != nil {
			return err
		}
		_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDelivery).Err()
	}

	_, err = s.Comms.UpdateCommunicationStats(ctx, p.CommunicationID)
	return err
}
