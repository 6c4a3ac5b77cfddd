package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/repcoach/internal/models"
)

// QueryDisruptions returns a user's disruption records whose range overlaps
// [start, end), most recent first.
func (db *DB) QueryDisruptions(ctx context.Context, userID int, start, end time.Time) ([]models.Disruption, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, kind, severity, start_date, end_date
		 FROM disruptions
		 WHERE user_id = $1
		   AND start_date < $3
		   AND (end_date IS NULL OR end_date > $2)
		 ORDER BY start_date DESC`, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("querying disruptions: %w", err)
	}
	defer rows.Close()

	var result []models.Disruption
	for rows.Next() {
		var d models.Disruption
		if err := rows.Scan(&d.ID, &d.Kind, &d.Severity, &d.Start, &d.End); err != nil {
			return nil, fmt.Errorf("scanning disruption: %w", err)
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

// InsertDisruption records a new disruption.
func (db *DB) InsertDisruption(ctx context.Context, userID int, d models.Disruption) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO disruptions (id, user_id, kind, severity, start_date, end_date)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		d.ID, userID, d.Kind, d.Severity, d.Start, d.End)
	if err != nil {
		return fmt.Errorf("inserting disruption: %w", err)
	}
	return nil
}

// CloseDisruption marks a disruption as ended.
func (db *DB) CloseDisruption(ctx context.Context, userID int, id uuid.UUID, end time.Time) error {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE disruptions SET end_date = $3 WHERE user_id = $1 AND id = $2`,
		userID, id, end)
	if err != nil {
		return fmt.Errorf("closing disruption: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
