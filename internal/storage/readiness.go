package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/meltforce/repcoach/internal/models"
)

// GetReadiness returns the check-in for a given day, or ErrNotFound when the
// athlete has not checked in.
func (db *DB) GetReadiness(ctx context.Context, userID int, day time.Time) (*models.ReadinessSnapshot, error) {
	var r models.ReadinessSnapshot
	err := db.Pool.QueryRow(ctx,
		`SELECT date, sleep, soreness, stress, score
		 FROM readiness
		 WHERE user_id = $1 AND date = $2`, userID, day.Format("2006-01-02")).
		Scan(&r.Date, &r.Sleep, &r.Soreness, &r.Stress, &r.Score)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying readiness: %w", err)
	}
	return &r, nil
}

// UpsertReadiness records a check-in, replacing any earlier one for the
// same day. At most one snapshot exists per user per day.
func (db *DB) UpsertReadiness(ctx context.Context, userID int, r models.ReadinessSnapshot) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO readiness (user_id, date, sleep, soreness, stress, score)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (user_id, date) DO UPDATE
		 SET sleep = EXCLUDED.sleep, soreness = EXCLUDED.soreness,
		     stress = EXCLUDED.stress, score = EXCLUDED.score`,
		userID, r.Date.Format("2006-01-02"), r.Sleep, r.Soreness, r.Stress, r.Score)
	if err != nil {
		return fmt.Errorf("upserting readiness: %w", err)
	}
	return nil
}
