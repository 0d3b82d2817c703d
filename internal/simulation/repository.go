// Package simulation runs workloads through the scheduler and keeps a record
// of every run.
package simulation

import (
	"context"

	"github.com/limiquantix/mlfq/internal/domain"
)

// RunRepository defines the interface for run record storage.
type RunRepository interface {
	// Create stores a new run record.
	Create(ctx context.Context, run *domain.Run) error

	// Get retrieves a run by ID.
	Get(ctx context.Context, id string) (*domain.Run, error)

	// List returns up to limit runs, newest first. A limit <= 0 returns all.
	List(ctx context.Context, limit int) ([]*domain.Run, error)
}
