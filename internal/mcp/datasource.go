package mcp

import (
	"context"
	"time"

	"github.com/meltforce/repcoach/internal/models"
	"github.com/meltforce/repcoach/internal/storage"
)

// DataSource abstracts the data layer for MCP tools, so an assistant process
// can run against the local database or any store with the same shape.
type DataSource interface {
	QueryCompletedSessions(ctx context.Context, userID int, start, end time.Time) ([]models.CompletedSession, error)
	GetMovementMemory(ctx context.Context, userID int) ([]models.MovementMemory, error)
	QueryDisruptions(ctx context.Context, userID int, start, end time.Time) ([]models.Disruption, error)
	ListExercises(ctx context.Context) ([]models.Exercise, error)
}

// Compile-time check: *storage.DB satisfies DataSource.
var _ DataSource = (*storage.DB)(nil)
