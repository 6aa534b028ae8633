package tickets

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

func (r *Repo) GetRegistration(ctx context.Context, eventID, userID string) (*Registration, error) {
	reg := &Registration{}
	err := r.DB.QueryRow(ctx, `
		SELECT id, event_id, user_id, status, ticket_type_id, order_id, order_invite_id,
		       answers, checked_in_at, created_at, updated_at
		FROM registrations WHERE event_id=$1 AND user_id=$2`, eventID, userID).Scan(
		&reg.ID, &reg.EventID, &reg.UserID, &reg.Status, &reg.TicketTypeID, &reg.OrderID,
		&reg.OrderInviteID, &reg.Answers, &reg.CheckedInAt, &reg.CreatedAt, &reg.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRegistrationNotFound
	} else if err != nil {
		return nil, err
	}
	return reg, nil
}

// SetCheckedIn stamps checked_in_at exactly once; reports false when another
// writer got there first.
func (r *Repo) SetCheckedIn(ctx context.Context, registrationID string, at time.Time) (bool, error) {
	ct, err := r.DB.Exec(ctx, `
		UPDATE registrations SET checked_in_at=$2, updated_at=now()
		WHERE id=$1 AND status=$3 AND checked_in_at IS NULL`,
		registrationID, at, RegApproved)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}

func (r *Repo) ClearCheckedIn(ctx context.Context, registrationID string) (bool, error) {
	ct, err := r.DB.Exec(ctx, `
		UPDATE registrations SET checked_in_at=NULL, updated_at=now()
		WHERE id=$1 AND checked_in_at IS NOT NULL`, registrationID)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}

// Registrants lists the event's registrations in the given statuses, joined
// with the contact fields the communication recipient filters need.
func (r *Repo) Registrants(ctx context.Context, eventID string, statuses []RegStatus) ([]Registrant, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT reg.id, reg.user_id, reg.status,
		       u.name, u.email, u.email_verified, u.virtual_email, u.phone, u.phone_verified
		FROM registrations reg
		JOIN users u ON u.id = reg.user_id
		WHERE reg.event_id=$1 AND reg.status = ANY($2)`, eventID, statusStrings(statuses))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Registrant
	for rows.Next() {
		var reg Registrant
		if err := rows.Scan(&reg.RegistrationID, &reg.User.ID, &reg.Status,
			&reg.User.Name, &reg.User.Email, &reg.User.EmailVerified,
			&reg.User.VirtualEmail, &reg.User.Phone, &reg.User.PhoneVerified); err != nil {
			return nil, err
		}
		out = append(out, reg)
	}
	return out, rows.Err()
}

type Registrant struct {
	RegistrationID string
	Status         RegStatus
	User           User
}

func statusStrings(in []RegStatus) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = string(s)
	}
	return out
}
