package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/meltforce/repcoach/internal/models"
)

// UpsertSetLog stores one logged set, keyed by set id. The engine fires its
// persistence callback without ordering guarantees, so the upsert makes
// closely-spaced duplicates idempotent.
func (db *DB) UpsertSetLog(ctx context.Context, userID int, rec models.SetLogRecord) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO set_logs (set_id, session_id, user_id, exercise_id, set_order,
		    target_reps, target_rpe, target_load, actual_weight, actual_reps, actual_rpe)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (set_id) DO UPDATE
		 SET actual_weight = EXCLUDED.actual_weight,
		     actual_reps = EXCLUDED.actual_reps,
		     actual_rpe = EXCLUDED.actual_rpe,
		     logged_at = NOW()`,
		rec.SetID, rec.SessionID, userID, rec.ExerciseID, rec.SetOrder,
		rec.TargetReps, rec.TargetRPE, rec.TargetLoad,
		rec.ActualWeight, rec.ActualReps, rec.ActualRPE)
	if err != nil {
		return fmt.Errorf("upserting set log: %w", err)
	}
	return nil
}

// QuerySetLogs returns the logged sets of one session in order.
func (db *DB) QuerySetLogs(ctx context.Context, userID int, sessionID uuid.UUID) ([]models.SetLogRecord, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT session_id, exercise_id, set_id, set_order, target_reps,
		        target_rpe, target_load, actual_weight, actual_reps, actual_rpe
		 FROM set_logs
		 WHERE user_id = $1 AND session_id = $2
		 ORDER BY set_order ASC`, userID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying set logs: %w", err)
	}
	defer rows.Close()

	var result []models.SetLogRecord
	for rows.Next() {
		var r models.SetLogRecord
		if err := rows.Scan(&r.SessionID, &r.ExerciseID, &r.SetID, &r.SetOrder,
			&r.TargetReps, &r.TargetRPE, &r.TargetLoad,
			&r.ActualWeight, &r.ActualReps, &r.ActualRPE); err != nil {
			return nil, fmt.Errorf("scanning set log: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// InsertAgentDecision appends one audit entry.
func (db *DB) InsertAgentDecision(ctx context.Context, userID int, sessionID uuid.UUID, d models.AgentDecision) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO agent_decisions (id, session_id, user_id, type, reasoning, requested, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO NOTHING`,
		d.ID, sessionID, userID, d.Type, d.Reasoning, d.Requested, d.Timestamp)
	if err != nil {
		return fmt.Errorf("inserting agent decision: %w", err)
	}
	return nil
}
