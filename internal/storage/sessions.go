package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/repcoach/internal/models"
)

// QueryCompletedSessions loads completed sessions in [start, end) with their
// performed sets, oldest first — the analyzer's input shape.
func (db *DB) QueryCompletedSessions(ctx context.Context, userID int, start, end time.Time) ([]models.CompletedSession, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, date, duration_min, focus
		 FROM sessions
		 WHERE user_id = $1 AND date >= $2 AND date < $3
		 ORDER BY date ASC`, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.CompletedSession
	index := map[uuid.UUID]int{}
	for rows.Next() {
		var s models.CompletedSession
		if err := rows.Scan(&s.ID, &s.Date, &s.DurationMin, &s.Focus); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		index[s.ID] = len(sessions)
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, nil
	}

	setRows, err := db.Pool.Query(ctx,
		`SELECT ss.session_id, ss.exercise_id, ss.exercise_name, ss.muscle_group,
		        ss.weight, ss.reps, ss.rpe, ss.is_warmup
		 FROM session_sets ss
		 JOIN sessions s ON s.id = ss.session_id
		 WHERE s.user_id = $1 AND s.date >= $2 AND s.date < $3
		 ORDER BY ss.session_id, ss.set_order ASC`, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("querying session sets: %w", err)
	}
	defer setRows.Close()

	for setRows.Next() {
		var sessionID uuid.UUID
		var set models.CompletedSet
		if err := setRows.Scan(&sessionID, &set.ExerciseID, &set.ExerciseName,
			&set.MuscleGroup, &set.Weight, &set.Reps, &set.RPE, &set.IsWarmup); err != nil {
			return nil, fmt.Errorf("scanning session set: %w", err)
		}
		if i, ok := index[sessionID]; ok {
			sessions[i].Sets = append(sessions[i].Sets, set)
		}
	}
	return sessions, setRows.Err()
}

// InsertCompletedSession stores a finished session and batch-inserts its
// sets. Re-inserting the same session id is a no-op.
func (db *DB) InsertCompletedSession(ctx context.Context, userID int, s models.CompletedSession) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO sessions (id, user_id, date, duration_min, focus)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO NOTHING`,
		s.ID, userID, s.Date, s.DurationMin, s.Focus)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}
	if len(s.Sets) == 0 {
		return nil
	}

	query := `INSERT INTO session_sets (session_id, exercise_id, exercise_name,
		muscle_group, weight, reps, rpe, is_warmup, set_order) VALUES `
	args := make([]any, 0, len(s.Sets)*9)
	valueStrings := make([]string, 0, len(s.Sets))

	for i, set := range s.Sets {
		base := i * 9
		valueStrings = append(valueStrings, fmt.Sprintf(
			"($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9,
		))
		args = append(args, s.ID, set.ExerciseID, set.ExerciseName, set.MuscleGroup,
			set.Weight, set.Reps, set.RPE, set.IsWarmup, i+1)
	}
	query += strings.Join(valueStrings, ",") + " ON CONFLICT DO NOTHING"

	if _, err := db.Pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting session sets: %w", err)
	}
	return nil
}
