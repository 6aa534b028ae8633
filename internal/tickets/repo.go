package tickets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

type CreateOrderInput struct {
	EventID           string
	UserID            string
	TicketTypeID      string
	Quantity          int
	ExpirationMinutes int
	Answers           json.RawMessage
}

// CreateEventOrder starts checkout: resolves pricing, reserves inventory with
// a guarded atomic increment, creates the PENDING order plus the buyer's
// PENDING_PAYMENT registration, all in one transaction.
func (r *Repo) CreateEventOrder(ctx context.Context, in CreateOrderInput) (*Order, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var requireApproval bool
	err = tx.QueryRow(ctx, `SELECT require_approval FROM events WHERE id=$1`, in.EventID).Scan(&requireApproval)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrEventNotFound
	} else if err != nil {
		return nil, err
	}

	var basePrice int
	err = tx.QueryRow(ctx, `SELECT base_price_cents FROM ticket_types WHERE id=$1 AND event_id=$2`,
		in.TicketTypeID, in.EventID).Scan(&basePrice)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTicketTypeNotFound
	} else if err != nil {
		return nil, err
	}

	tiers, err := r.priceTiers(ctx, tx, in.TicketTypeID)
	if err != nil {
		return nil, err
	}
	pricing, err := ResolveTicketPricing(basePrice, tiers, in.Quantity)
	if err != nil {
		return nil, err
	}

	// Reservation pairs with the decrement in cancel/refund. Zero rows
	// affected means the guard failed: sold out.
	ct, err := tx.Exec(ctx, `
		UPDATE ticket_types
		SET current_quantity = current_quantity + $2, updated_at = now()
		WHERE id = $1 AND current_quantity + $2 <= total_quantity`,
		in.TicketTypeID, in.Quantity)
	if err != nil {
		return nil, err
	}
	if ct.RowsAffected() != 1 {
		return nil, ErrSoldOut
	}

	now := time.Now().UTC()
	o := &Order{
		ID:           uuid.NewString(),
		OrderNo:      NewOrderNo(now),
		EventID:      in.EventID,
		UserID:       in.UserID,
		TicketTypeID: in.TicketTypeID,
		Quantity:     in.Quantity,
		UnitCents:    pricing.UnitCents,
		TotalCents:   pricing.TotalCents,
		Status:       OrderPending,
		ExpiresAt:    BuildOrderExpiration(now, in.ExpirationMinutes),
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO orders(id, order_no, event_id, user_id, ticket_type_id, quantity,
		                   unit_cents, total_cents, status, expires_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		o.ID, o.OrderNo, o.EventID, o.UserID, o.TicketTypeID, o.Quantity,
		o.UnitCents, o.TotalCents, o.Status, o.ExpiresAt)
	if err != nil {
		return nil, err
	}

	if err := upsertRegistration(ctx, tx, registrationUpsert{
		EventID:      in.EventID,
		UserID:       in.UserID,
		Status:       RegPendingPayment,
		TicketTypeID: in.TicketTypeID,
		OrderID:      &o.ID,
		Answers:      in.Answers,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return o, nil
}

// CancelEventOrder is a no-op returning current state unless the order is
// PENDING. Cancellation releases the seats, cancels tied registrations and
// invalidates unredeemed invites. Safe to call repeatedly; the bool reports
// whether this call performed the transition.
func (r *Repo) CancelEventOrder(ctx context.Context, orderID, reason string) (*Order, bool, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	o, err := lockOrder(ctx, tx, `id`, orderID)
	if err != nil {
		return nil, false, err
	}
	if !o.Status.CanTransition(OrderCancelled) {
		return o, false, nil
	}

	if err := releaseOrder(ctx, tx, o, OrderCancelled, RegCancelled); err != nil {
		return nil, false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, false, err
	}
	o.Status = OrderCancelled
	return o, true, nil
}

// MarkEventOrderPaid transitions a PENDING order to PAID and moves its
// PENDING_PAYMENT registrations forward per the event's approval setting.
// Non-PENDING orders are returned unchanged.
func (r *Repo) MarkEventOrderPaid(ctx context.Context, orderNo, transactionID string, paidAt *time.Time) (*Order, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	o, err := lockOrder(ctx, tx, `order_no`, orderNo)
	if err != nil {
		return nil, err
	}
	if !o.Status.CanTransition(OrderPaid) {
		return o, nil
	}

	at := time.Now().UTC()
	if paidAt != nil {
		at = paidAt.UTC()
	}
	_, err = tx.Exec(ctx, `
		UPDATE orders SET status=$2, transaction_id=$3, paid_at=$4, updated_at=now()
		WHERE id=$1`, o.ID, OrderPaid, transactionID, at)
	if err != nil {
		return nil, err
	}

	var requireApproval bool
	if err := tx.QueryRow(ctx, `SELECT require_approval FROM events WHERE id=$1`, o.EventID).Scan(&requireApproval); err != nil {
		return nil, err
	}
	next := RegApproved
	if requireApproval {
		next = RegPending
	}
	_, err = tx.Exec(ctx, `
		UPDATE registrations SET status=$3, updated_at=now()
		WHERE order_id=$1 AND status=$2`, o.ID, RegPendingPayment, next)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	o.Status = OrderPaid
	o.TransactionID = &transactionID
	o.PaidAt = &at
	return o, nil
}

// MarkEventOrderRefunded mirrors cancellation accounting: registrations are
// cancelled, unredeemed invites invalidated and the seats released exactly
// once. Already-refunded orders are returned unchanged.
func (r *Repo) MarkEventOrderRefunded(ctx context.Context, orderNo, refundID string, refundedAt *time.Time) (*Order, bool, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	o, err := lockOrder(ctx, tx, `order_no`, orderNo)
	if err != nil {
		return nil, false, err
	}
	if !o.Status.CanTransition(OrderRefunded) {
		return o, false, nil
	}

	at := time.Now().UTC()
	if refundedAt != nil {
		at = refundedAt.UTC()
	}
	if err := releaseOrder(ctx, tx, o, OrderRefunded, RegCancelled); err != nil {
		return nil, false, err
	}
	_, err = tx.Exec(ctx, `UPDATE orders SET refund_id=$2, refunded_at=$3 WHERE id=$1`, o.ID, refundID, at)
	if err != nil {
		return nil, false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, err
	}
	o.Status = OrderRefunded
	o.RefundID = &refundID
	o.RefundedAt = &at
	return o, true, nil
}

// releaseOrder applies the shared cancel/refund bookkeeping inside tx.
func releaseOrder(ctx context.Context, tx pgx.Tx, o *Order, to OrderStatus, regTo RegStatus) error {
	if _, err := tx.Exec(ctx, `UPDATE orders SET status=$2, updated_at=now() WHERE id=$1`, o.ID, to); err != nil {
		return err
	}
	// Registrations tied directly or through a redeemed invite.
	if _, err := tx.Exec(ctx, `
		UPDATE registrations SET status=$2, updated_at=now()
		WHERE status <> $2
		  AND (order_id=$1
		       OR order_invite_id IN (SELECT id FROM order_invites WHERE order_id=$1))`,
		o.ID, regTo); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
		UPDATE order_invites SET status=$3 WHERE order_id=$1 AND status=$2`,
		o.ID, InvitePending, InviteInvalid); err != nil {
		return err
	}
	_, err := tx.Exec(ctx, `
		UPDATE ticket_types
		SET current_quantity = current_quantity - $2, updated_at = now()
		WHERE id = $1 AND current_quantity - $2 >= 0`,
		o.TicketTypeID, o.Quantity)
	return err
}

func lockOrder(ctx context.Context, tx pgx.Tx, col, val string) (*Order, error) {
	o := &Order{}
	err := tx.QueryRow(ctx, `
		SELECT id, order_no, event_id, user_id, ticket_type_id, quantity, unit_cents,
		       total_cents, status, expires_at, transaction_id, refund_id, paid_at,
		       refunded_at, created_at, updated_at
		FROM orders WHERE `+col+`=$1 FOR UPDATE`, val).Scan(
		&o.ID, &o.OrderNo, &o.EventID, &o.UserID, &o.TicketTypeID, &o.Quantity, &o.UnitCents,
		&o.TotalCents, &o.Status, &o.ExpiresAt, &o.TransactionID, &o.RefundID, &o.PaidAt,
		&o.RefundedAt, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrOrderNotFound
	} else if err != nil {
		return nil, err
	}
	return o, nil
}

func (r *Repo) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	return r.getOrderBy(ctx, `id`, orderID)
}

func (r *Repo) GetOrderByNo(ctx context.Context, orderNo string) (*Order, error) {
	return r.getOrderBy(ctx, `order_no`, orderNo)
}

func (r *Repo) getOrderBy(ctx context.Context, col, val string) (*Order, error) {
	o := &Order{}
	err := r.DB.QueryRow(ctx, `
		SELECT id, order_no, event_id, user_id, ticket_type_id, quantity, unit_cents,
		       total_cents, status, expires_at, transaction_id, refund_id, paid_at,
		       refunded_at, created_at, updated_at
		FROM orders WHERE `+col+`=$1`, val).Scan(
		&o.ID, &o.OrderNo, &o.EventID, &o.UserID, &o.TicketTypeID, &o.Quantity, &o.UnitCents,
		&o.TotalCents, &o.Status, &o.ExpiresAt, &o.TransactionID, &o.RefundID, &o.PaidAt,
		&o.RefundedAt, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrOrderNotFound
	} else if err != nil {
		return nil, err
	}
	return o, nil
}

func (r *Repo) priceTiers(ctx context.Context, tx pgx.Tx, ticketTypeID string) ([]PriceTier, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, ticket_type_id, quantity, price_cents
		FROM ticket_price_tiers WHERE ticket_type_id=$1`, ticketTypeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PriceTier
	for rows.Next() {
		var t PriceTier
		if err := rows.Scan(&t.ID, &t.TicketTypeID, &t.Quantity, &t.PriceCents); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ExpiredOrderIDs returns one page of PENDING orders past their expiration.
func (r *Repo) ExpiredOrderIDs(ctx context.Context, now time.Time, limit int) ([]string, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id FROM orders
		WHERE status=$1 AND expires_at < $2
		ORDER BY expires_at
		LIMIT $3`, OrderPending, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// IsEventStaff reports whether the user may manage the event (approve
// registrations, check in other attendees, send communications).
func (r *Repo) IsEventStaff(ctx context.Context, eventID, userID string) (bool, error) {
	var n int
	err := r.DB.QueryRow(ctx, `
		SELECT COUNT(*) FROM event_staff WHERE event_id=$1 AND user_id=$2`,
		eventID, userID).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *Repo) GetEvent(ctx context.Context, eventID string) (*Event, error) {
	e := &Event{}
	err := r.DB.QueryRow(ctx, `
		SELECT id, title, start_time, end_time, require_approval, created_at, updated_at
		FROM events WHERE id=$1`, eventID).Scan(
		&e.ID, &e.Title, &e.StartTime, &e.EndTime, &e.RequireApproval, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrEventNotFound
	} else if err != nil {
		return nil, err
	}
	return e, nil
}

type registrationUpsert struct {
	EventID      string
	UserID       string
	Status       RegStatus
	TicketTypeID string
	OrderID      *string
	InviteID     *string
	Answers      json.RawMessage
}

// upsertRegistration enforces the (event_id, user_id) uniqueness rule. An
// active registration blocks the write; a CANCELLED one is reactivated with
// its prior answers purged.
func upsertRegistration(ctx context.Context, tx pgx.Tx, in registrationUpsert) error {
	var status RegStatus
	err := tx.QueryRow(ctx, `
		SELECT status FROM registrations
		WHERE event_id=$1 AND user_id=$2 FOR UPDATE`, in.EventID, in.UserID).Scan(&status)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		_, err = tx.Exec(ctx, `
			INSERT INTO registrations(id, event_id, user_id, status, ticket_type_id,
			                          order_id, order_invite_id, answers)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			uuid.NewString(), in.EventID, in.UserID, in.Status, in.TicketTypeID,
			in.OrderID, in.InviteID, in.Answers)
		return err
	case err != nil:
		return err
	}

	if status.Active() {
		return ErrAlreadyRegistered
	}
	if !status.CanTransition(in.Status) {
		return fmt.Errorf("registration %s -> %s: illegal transition", status, in.Status)
	}
	_, err = tx.Exec(ctx, `
		UPDATE registrations
		SET status=$3, ticket_type_id=$4, order_id=$5, order_invite_id=$6,
		    answers=$7, checked_in_at=NULL, updated_at=now()
		WHERE event_id=$1 AND user_id=$2`,
		in.EventID, in.UserID, in.Status, in.TicketTypeID, in.OrderID, in.InviteID, in.Answers)
	return err
}

func (r *Repo) GetUser(ctx context.Context, userID string) (*User, error) {
	u := &User{}
	err := r.DB.QueryRow(ctx, `
		SELECT id, name, email, email_verified, virtual_email, phone, phone_verified
		FROM users WHERE id=$1`, userID).Scan(
		&u.ID, &u.Name, &u.Email, &u.EmailVerified, &u.VirtualEmail, &u.Phone, &u.PhoneVerified)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errors.New("user not found")
	} else if err != nil {
		return nil, err
	}
	return u, nil
}
