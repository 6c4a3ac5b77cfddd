package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/meltforce/repcoach/internal/models"
)

// GetMovementMemory returns every movement-memory record for a user.
func (db *DB) GetMovementMemory(ctx context.Context, userID int) ([]models.MovementMemory, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT exercise_id, exercise_name, last_weight, last_reps, last_sets,
		        avg_rpe, typical_rep_max, estimated_pr, trend, times_seen,
		        high_confidence, last_performed
		 FROM movement_memory
		 WHERE user_id = $1
		 ORDER BY exercise_name ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying movement memory: %w", err)
	}
	defer rows.Close()

	var result []models.MovementMemory
	for rows.Next() {
		var m models.MovementMemory
		if err := rows.Scan(&m.ExerciseID, &m.ExerciseName, &m.LastWeight, &m.LastReps,
			&m.LastSets, &m.AvgRPE, &m.TypicalRepMax, &m.EstimatedPR, &m.Trend,
			&m.TimesSeen, &m.HighConfidence, &m.LastPerformed); err != nil {
			return nil, fmt.Errorf("scanning movement memory: %w", err)
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

// GetMovementMemoryFor looks up one exercise's memory record.
func (db *DB) GetMovementMemoryFor(ctx context.Context, userID int, exerciseID uuid.UUID) (*models.MovementMemory, error) {
	var m models.MovementMemory
	err := db.Pool.QueryRow(ctx,
		`SELECT exercise_id, exercise_name, last_weight, last_reps, last_sets,
		        avg_rpe, typical_rep_max, estimated_pr, trend, times_seen,
		        high_confidence, last_performed
		 FROM movement_memory
		 WHERE user_id = $1 AND exercise_id = $2`, userID, exerciseID).
		Scan(&m.ExerciseID, &m.ExerciseName, &m.LastWeight, &m.LastReps,
			&m.LastSets, &m.AvgRPE, &m.TypicalRepMax, &m.EstimatedPR, &m.Trend,
			&m.TimesSeen, &m.HighConfidence, &m.LastPerformed)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying movement memory for %s: %w", exerciseID, err)
	}
	return &m, nil
}

// MemoryByExercise loads movement memory as a map keyed by exercise id,
// the shape the session engine consumes.
func (db *DB) MemoryByExercise(ctx context.Context, userID int) (map[uuid.UUID]models.MovementMemory, error) {
	records, err := db.GetMovementMemory(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]models.MovementMemory, len(records))
	for _, m := range records {
		out[m.ExerciseID] = m
	}
	return out, nil
}
