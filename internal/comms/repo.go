package comms

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) CountByEvent(ctx context.Context, eventID string) (int, error) {
	var n int
	err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM communications WHERE event_id=$1`, eventID).Scan(&n)
	return n, err
}

// CreateWithRecords persists the communication and one record per recipient
// in a single transaction. TotalRecipients is frozen here.
func (r *Repo) CreateWithRecords(ctx context.Context, c *Communication, recipients []Recipient) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO communications(id, event_id, sender_id, type, subject, content,
		                           status, total_recipients, scheduled_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		c.ID, c.EventID, c.SenderID, c.Type, c.Subject, c.Content,
		c.Status, c.TotalRecipients, c.ScheduledAt)
	if err != nil {
		return err
	}

	for _, rcpt := range recipients {
		_, err = tx.Exec(ctx, `
			INSERT INTO communication_records(id, communication_id, recipient_id, address, status)
			VALUES ($1,$2,$3,$4,$5)`,
			uuid.NewString(), c.ID, rcpt.UserID, rcpt.Address, RecordPending)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *Repo) Get(ctx context.Context, id string) (*Communication, error) {
	c := &Communication{}
	err := r.DB.QueryRow(ctx, `
		SELECT id, event_id, sender_id, type, subject, content, status, total_recipients,
		       sent_count, delivered_count, failed_count, scheduled_at, sent_at,
		       created_at, updated_at
		FROM communications WHERE id=$1`, id).Scan(
		&c.ID, &c.EventID, &c.SenderID, &c.Type, &c.Subject, &c.Content, &c.Status,
		&c.TotalRecipients, &c.SentCount, &c.DeliveredCount, &c.FailedCount,
		&c.ScheduledAt, &c.SentAt, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}
	return c, nil
}

// RecordStatusCounts aggregates record statuses with a group-by.
func (r *Repo) RecordStatusCounts(ctx context.Context, communicationID string) (StatusCounts, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT status, COUNT(*) FROM communication_records
		WHERE communication_id=$1 GROUP BY status`, communicationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := StatusCounts{}
	for rows.Next() {
		var s RecordStatus
		var n int
		if err := rows.Scan(&s, &n); err != nil {
			return nil, err
		}
		counts[s] = n
	}
	return counts, rows.Err()
}

// UpdateAggregates writes the derived counts and status. sent_at is stamped
// only when the communication reaches a terminal status.
func (r *Repo) UpdateAggregates(ctx context.Context, communicationID string, counts StatusCounts, status Status) error {
	var sentAt *time.Time
	if status == StatusCompleted || status == StatusFailed {
		now := time.Now().UTC()
		sentAt = &now
	}
	_, err := r.DB.Exec(ctx, `
		UPDATE communications
		SET sent_count=$2, delivered_count=$3, failed_count=$4, status=$5,
		    sent_at=COALESCE(sent_at, $6), updated_at=now()
		WHERE id=$1`,
		communicationID, counts.Sent(), counts.Delivered(), counts.Failed(), status, sentAt)
	return err
}

// ResetFailedRecords reopens FAILED records still under the retry cap and
// returns how many qualified.
func (r *Repo) ResetFailedRecords(ctx context.Context, communicationID string) (int, error) {
	ct, err := r.DB.Exec(ctx, `
		UPDATE communication_records
		SET status=$2, retry_count=retry_count+1, error_message=NULL, updated_at=now()
		WHERE communication_id=$1 AND status=$3 AND retry_count < $4`,
		communicationID, RecordPending, RecordFailed, MaxRecordRetries)
	if err != nil {
		return 0, err
	}
	return int(ct.RowsAffected()), nil
}

// UpdateRecord is the idempotent per-record status writer used by the
// delivery transport. sent_at is set only on the transition into SENT.
func (r *Repo) UpdateRecord(ctx context.Context, recordID string, status RecordStatus, errorMessage *string) error {
	if status == RecordSent {
		_, err := r.DB.Exec(ctx, `
			UPDATE communication_records
			SET status=$2, error_message=$3, sent_at=COALESCE(sent_at, now()), updated_at=now()
			WHERE id=$1`, recordID, status, errorMessage)
		return err
	}
	_, err := r.DB.Exec(ctx, `
		UPDATE communication_records
		SET status=$2, error_message=$3, updated_at=now()
		WHERE id=$1`, recordID, status, errorMessage)
	return err
}

func (r *Repo) PendingRecords(ctx context.Context, communicationID string) ([]Record, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, communication_id, recipient_id, address, status, retry_count,
		       error_message, sent_at, created_at, updated_at
		FROM communication_records
		WHERE communication_id=$1 AND status=$2
		ORDER BY created_at`, communicationID, RecordPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.CommunicationID, &rec.RecipientID, &rec.Address,
			&rec.Status, &rec.RetryCount, &rec.ErrorMessage, &rec.SentAt,
			&rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
