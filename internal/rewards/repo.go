package rewards

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repo owns the gamification bookkeeping that rides behind check-in: a
// contribution ledger and attendance badges. Failures here never reach the
// check-in caller; the dispatch worker logs and moves on.
type Repo struct{ DB *pgxpool.Pool }

const (
	ContributionCheckIn = "EVENT_CHECKIN"

	BadgeFirstCheckIn = "FIRST_CHECKIN"
	BadgeRegularGuest = "REGULAR_GUEST"
	BadgeEventDevotee = "EVENT_DEVOTEE"

	checkInPoints     = 10
	regularGuestCount = 5
	eventDevoteeCount = 20
)

// RecordContribution appends one ledger row; replays of the same check-in
// event are absorbed by the unique (kind, ref_id) constraint.
func (r *Repo) RecordContribution(ctx context.Context, userID, kind, refID string, at time.Time) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO contributions(id, user_id, kind, ref_id, points, occurred_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (kind, ref_id) DO NOTHING`,
		uuid.NewString(), userID, kind, refID, checkInPoints, at)
	return err
}

// EvaluateBadges awards any attendance badges the user newly qualifies for.
func (r *Repo) EvaluateBadges(ctx context.Context, userID string) ([]string, error) {
	var checkIns int
	err := r.DB.QueryRow(ctx, `
		SELECT COUNT(*) FROM contributions WHERE user_id=$1 AND kind=$2`,
		userID, ContributionCheckIn).Scan(&checkIns)
	if err != nil {
		return nil, err
	}

	var awarded []string
	for _, b := range []struct {
		code string
		min  int
	}{
		{BadgeFirstCheckIn, 1},
		{BadgeRegularGuest, regularGuestCount},
		{BadgeEventDevotee, eventDevoteeCount},
	} {
		if checkIns < b.min {
			continue
		}
		ct, err := r.DB.Exec(ctx, `
			INSERT INTO user_badges(id, user_id, badge)
			VALUES ($1,$2,$3)
			ON CONFLICT (user_id, badge) DO NOTHING`,
			uuid.NewString(), userID, b.code)
		if err != nil {
			return awarded, err
		}
		if ct.RowsAffected() == 1 {
			awarded = append(awarded, b.code)
		}
	}
	return awarded, nil
}
