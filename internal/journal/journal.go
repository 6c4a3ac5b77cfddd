// Package journal is a local SQLite log of performed sets and coaching
// decisions, used by the CLI when no server is available. It is an
// idempotent receiver for the session engine's persistence callback:
// re-recording a set replaces the earlier row, keyed by set id.
package journal

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/meltforce/repcoach/internal/models"
)

// Journal is the local training log.
type Journal struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite journal at dir/journal.db.
func Open(dir string) (*Journal, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating journal dir %s: %w", dir, err)
	}

	dbPath := filepath.Join(dir, "journal.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening journal db: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS set_logs (
		set_id        TEXT PRIMARY KEY,
		session_id    TEXT NOT NULL,
		exercise_id   TEXT NOT NULL,
		set_order     INTEGER NOT NULL,
		target_reps   INTEGER NOT NULL,
		target_rpe    REAL,
		target_load   REAL,
		actual_weight REAL,
		actual_reps   INTEGER,
		actual_rpe    REAL,
		logged_at     TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating set_logs table: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS decisions (
		id         TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		type       TEXT NOT NULL,
		reasoning  TEXT NOT NULL,
		requested  INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating decisions table: %w", err)
	}

	return &Journal{db: db}, nil
}

// RecordSet stores one logged set. Re-recording the same set id replaces
// the earlier row.
func (j *Journal) RecordSet(rec models.SetLogRecord) error {
	_, err := j.db.Exec(
		`INSERT OR REPLACE INTO set_logs
		 (set_id, session_id, exercise_id, set_order, target_reps, target_rpe,
		  target_load, actual_weight, actual_reps, actual_rpe)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.SetID.String(), rec.SessionID.String(), rec.ExerciseID.String(),
		rec.SetOrder, rec.TargetReps, rec.TargetRPE, rec.TargetLoad,
		rec.ActualWeight, rec.ActualReps, rec.ActualRPE,
	)
	return err
}

// Sets returns the logged sets of one session in order.
func (j *Journal) Sets(sessionID uuid.UUID) ([]models.SetLogRecord, error) {
	rows, err := j.db.Query(
		`SELECT set_id, session_id, exercise_id, set_order, target_reps,
		        target_rpe, target_load, actual_weight, actual_reps, actual_rpe
		 FROM set_logs WHERE session_id = ? ORDER BY set_order`,
		sessionID.String(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []models.SetLogRecord
	for rows.Next() {
		var rec models.SetLogRecord
		var setID, sessID, exID string
		if err := rows.Scan(&setID, &sessID, &exID, &rec.SetOrder, &rec.TargetReps,
			&rec.TargetRPE, &rec.TargetLoad,
			&rec.ActualWeight, &rec.ActualReps, &rec.ActualRPE); err != nil {
			return nil, err
		}
		if rec.SetID, err = uuid.Parse(setID); err != nil {
			return nil, fmt.Errorf("corrupt set_id %q: %w", setID, err)
		}
		if rec.SessionID, err = uuid.Parse(sessID); err != nil {
			return nil, fmt.Errorf("corrupt session_id %q: %w", sessID, err)
		}
		if rec.ExerciseID, err = uuid.Parse(exID); err != nil {
			return nil, fmt.Errorf("corrupt exercise_id %q: %w", exID, err)
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}

// RecordDecision appends one audit entry. Re-recording the same decision
// id is a no-op.
func (j *Journal) RecordDecision(sessionID uuid.UUID, d models.AgentDecision) error {
	_, err := j.db.Exec(
		`INSERT OR IGNORE INTO decisions (id, session_id, type, reasoning, requested)
		 VALUES (?, ?, ?, ?, ?)`,
		d.ID.String(), sessionID.String(), string(d.Type), d.Reasoning, d.Requested,
	)
	return err
}

// Decisions returns the audit log of one session, oldest first.
func (j *Journal) Decisions(sessionID uuid.UUID) ([]models.AgentDecision, error) {
	rows, err := j.db.Query(
		`SELECT id, type, reasoning, requested FROM decisions
		 WHERE session_id = ? ORDER BY created_at`,
		sessionID.String(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []models.AgentDecision
	for rows.Next() {
		var d models.AgentDecision
		var id, typ string
		if err := rows.Scan(&id, &typ, &d.Reasoning, &d.Requested); err != nil {
			return nil, err
		}
		if d.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("corrupt decision id %q: %w", id, err)
		}
		d.Type = models.DecisionType(typ)
		result = append(result, d)
	}
	return result, rows.Err()
}

// Close closes the journal database.
func (j *Journal) Close() error {
	return j.db.Close()
}
