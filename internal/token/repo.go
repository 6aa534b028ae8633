package token

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrTokenNotFound = errors.New("api token not found")

type Repo struct{ DB *pgxpool.Pool }

// Issued is handed back to the caller once; Plain is never persisted.
type Issued struct {
	Token ApiToken
	Plain string
}

// IssueEventsToken upserts on user_id: one live token per user, enforced by
// the unique constraint at the data boundary, not by call order. Re-issuing
// overwrites the hash, so any prior token stops verifying immediately.
func (r *Repo) IssueEventsToken(ctx context.Context, userID string) (*Issued, error) {
	plain, hash, lastFour, err := Generate()
	if err != nil {
		return nil, err
	}

	t := ApiToken{ID: uuid.NewString(), UserID: userID, TokenHash: hash, TokenLastFour: lastFour}
	err = r.DB.QueryRow(ctx, `
		INSERT INTO api_tokens(id, user_id, token_hash, token_last_four)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (user_id) DO UPDATE
		SET token_hash=EXCLUDED.token_hash, token_last_four=EXCLUDED.token_last_four,
		    revoked_at=NULL, last_used_at=NULL, created_at=now()
		RETURNING id, created_at`, t.ID, t.UserID, t.TokenHash, t.TokenLastFour).
		Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &Issued{Token: t, Plain: plain}, nil
}

// RevokeEventsToken clears the hash while preserving the audit fields.
// Revoking an absent or already-revoked token is a no-op.
func (r *Repo) RevokeEventsToken(ctx context.Context, userID string) error {
	_, err := r.DB.Exec(ctx, `
		UPDATE api_tokens SET token_hash='', revoked_at=now()
		WHERE user_id=$1 AND revoked_at IS NULL`, userID)
	return err
}

// VerifyEventsToken resolves a presented token to its owner by hash.
func (r *Repo) VerifyEventsToken(ctx context.Context, plain string) (*ApiToken, error) {
	if !WellFormed(plain) {
		return nil, ErrTokenNotFound
	}
	t := &ApiToken{}
	err := r.DB.QueryRow(ctx, `
		SELECT id, user_id, token_hash, token_last_four, created_at, last_used_at, revoked_at
		FROM api_tokens
		WHERE token_hash=$1 AND revoked_at IS NULL`, Hash(plain)).Scan(
		&t.ID, &t.UserID, &t.TokenHash, &t.TokenLastFour, &t.CreatedAt, &t.LastUsedAt, &t.RevokedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTokenNotFound
	} else if err != nil {
		return nil, err
	}
	return t, nil
}

// GetEventsToken returns the user's token metadata for display (last four
// only), or ErrTokenNotFound.
func (r *Repo) GetEventsToken(ctx context.Context, userID string) (*ApiToken, error) {
	t := &ApiToken{}
	err := r.DB.QueryRow(ctx, `
		SELECT id, user_id, token_hash, token_last_four, created_at, last_used_at, revoked_at
		FROM api_tokens WHERE user_id=$1`, userID).Scan(
		&t.ID, &t.UserID, &t.TokenHash, &t.TokenLastFour, &t.CreatedAt, &t.LastUsedAt, &t.RevokedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTokenNotFound
	} else if err != nil {
		return nil, err
	}
	return t, nil
}

// RecordEventsTokenUsage is best-effort bookkeeping on each authenticated
// call; callers ignore its error.
func (r *Repo) RecordEventsTokenUsage(ctx context.Context, tokenID, ip, userAgent string, at time.Time) error {
	_, err := r.DB.Exec(ctx, `
		UPDATE api_tokens SET last_used_at=$2, last_used_ip=$3, last_used_agent=$4
		WHERE id=$1`, tokenID, at, ip, userAgent)
	return err
}
