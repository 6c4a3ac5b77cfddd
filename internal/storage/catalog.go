package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/meltforce/repcoach/internal/models"
)

// ErrNotFound marks lookups whose subject does not exist.
var ErrNotFound = errors.New("not found")

// ListExercises returns the full exercise catalog, sorted by name.
func (db *DB) ListExercises(ctx context.Context) ([]models.Exercise, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, name, modality, primary_metric, muscle_group
		 FROM exercises ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying exercises: %w", err)
	}
	defer rows.Close()

	var result []models.Exercise
	for rows.Next() {
		var e models.Exercise
		if err := rows.Scan(&e.ID, &e.Name, &e.Modality, &e.PrimaryMetric, &e.MuscleGroup); err != nil {
			return nil, fmt.Errorf("scanning exercise: %w", err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// GetExercise looks up one catalog entry by id.
func (db *DB) GetExercise(ctx context.Context, id uuid.UUID) (*models.Exercise, error) {
	var e models.Exercise
	err := db.Pool.QueryRow(ctx,
		`SELECT id, name, modality, primary_metric, muscle_group
		 FROM exercises WHERE id = $1`, id).
		Scan(&e.ID, &e.Name, &e.Modality, &e.PrimaryMetric, &e.MuscleGroup)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying exercise %s: %w", id, err)
	}
	return &e, nil
}

// FindExerciseByName looks up a catalog entry by case-insensitive name.
func (db *DB) FindExerciseByName(ctx context.Context, name string) (*models.Exercise, error) {
	var e models.Exercise
	err := db.Pool.QueryRow(ctx,
		`SELECT id, name, modality, primary_metric, muscle_group
		 FROM exercises WHERE LOWER(name) = LOWER($1)`, name).
		Scan(&e.ID, &e.Name, &e.Modality, &e.PrimaryMetric, &e.MuscleGroup)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying exercise %q: %w", name, err)
	}
	return &e, nil
}
