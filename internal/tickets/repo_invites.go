package tickets

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// inviteCapacity gates minting: only a PAID order issues invites, and the
// total minted across calls never exceeds the order's seats.
func inviteCapacity(o *Order, existing, requested int) error {
	if o.Status != OrderPaid {
		return ErrInviteOrderNotPaid
	}
	if requested > o.Quantity-existing {
		return ErrTooManyInvites
	}
	return nil
}

// CreateOrderInvites mints one single-use code per seat. A non-positive count
// is a no-op returning an empty list. The order is locked so concurrent calls
// cannot mint past its seat count.
func (r *Repo) CreateOrderInvites(ctx context.Context, orderID string, count int) ([]Invite, error) {
	if count <= 0 {
		return []Invite{}, nil
	}

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	o, err := lockOrder(ctx, tx, `id`, orderID)
	if err != nil {
		return nil, err
	}
	var existing int
	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM order_invites WHERE order_id=$1`, orderID).Scan(&existing); err != nil {
		return nil, err
	}
	if err := inviteCapacity(o, existing, count); err != nil {
		return nil, err
	}

	invites := make([]Invite, 0, count)
	for i := 0; i < count; i++ {
		inv := Invite{
			ID:      uuid.NewString(),
			OrderID: orderID,
			Code:    NewInviteCode(),
			Status:  InvitePending,
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_invites(id, order_id, code, status)
			VALUES ($1,$2,$3,$4)`, inv.ID, inv.OrderID, inv.Code, inv.Status); err != nil {
			return nil, err
		}
		invites = append(invites, inv)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return invites, nil
}

func (r *Repo) ListOrderInvites(ctx context.Context, orderID string) ([]InviteView, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT i.id, i.order_id, i.code, i.status, i.redeemed_by, i.redeemed_at, i.created_at,
		       u.name, u.email
		FROM order_invites i
		LEFT JOIN users u ON u.id = i.redeemed_by
		WHERE i.order_id=$1
		ORDER BY i.created_at`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []InviteView
	for rows.Next() {
		var v InviteView
		if err := rows.Scan(&v.ID, &v.OrderID, &v.Code, &v.Status, &v.RedeemedBy,
			&v.RedeemedAt, &v.CreatedAt, &v.RedeemerName, &v.RedeemerEmail); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// RedeemOrderInvite binds one invite to the redeeming user's registration.
// The invite must be PENDING, belong to the given event, and its order must
// be PAID. A code redeems at most once: the final guarded update loses under
// concurrency and the transaction rolls back.
func (r *Repo) RedeemOrderInvite(ctx context.Context, eventID, code, userID string, answers json.RawMessage) (*Registration, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var (
		inviteID     string
		inviteStatus InviteStatus
		orderStatus  OrderStatus
		orderEventID string
		ticketTypeID string
	)
	err = tx.QueryRow(ctx, `
		SELECT i.id, i.status, o.status, o.event_id, o.ticket_type_id
		FROM order_invites i
		JOIN orders o ON o.id = i.order_id
		WHERE i.code=$1
		FOR UPDATE OF i`, code).Scan(&inviteID, &inviteStatus, &orderStatus, &orderEventID, &ticketTypeID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrInviteNotFound
	} else if err != nil {
		return nil, err
	}

	if orderEventID != eventID {
		return nil, ErrInviteWrongEvent
	}
	if inviteStatus != InvitePending {
		return nil, ErrInviteNotPending
	}
	if orderStatus != OrderPaid {
		return nil, ErrInviteOrderNotPaid
	}

	var requireApproval bool
	if err := tx.QueryRow(ctx, `SELECT require_approval FROM events WHERE id=$1`, eventID).Scan(&requireApproval); err != nil {
		return nil, err
	}
	status := RegApproved
	if requireApproval {
		status = RegPending
	}

	if err := upsertRegistration(ctx, tx, registrationUpsert{
		EventID:      eventID,
		UserID:       userID,
		Status:       status,
		TicketTypeID: ticketTypeID,
		InviteID:     &inviteID,
		Answers:      answers,
	}); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	ct, err := tx.Exec(ctx, `
		UPDATE order_invites SET status=$2, redeemed_by=$3, redeemed_at=$4
		WHERE id=$1 AND status=$5`,
		inviteID, InviteRedeemed, userID, now, InvitePending)
	if err != nil {
		return nil, err
	}
	if ct.RowsAffected() != 1 {
		return nil, ErrInviteNotPending
	}

	reg := &Registration{}
	err = tx.QueryRow(ctx, `
		SELECT id, event_id, user_id, status, ticket_type_id, order_id, order_invite_id,
		       answers, checked_in_at, created_at, updated_at
		FROM registrations WHERE event_id=$1 AND user_id=$2`, eventID, userID).Scan(
		&reg.ID, &reg.EventID, &reg.UserID, &reg.Status, &reg.TicketTypeID, &reg.OrderID,
		&reg.OrderInviteID, &reg.Answers, &reg.CheckedInAt, &reg.CreatedAt, &reg.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return reg, nil
}
