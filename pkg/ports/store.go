package ports

import (
	"context"

	"github.com/aretw0/autopilot/pkg/schema"
)

// TaskStore persists tasks as ordered sequences of node records.
// Implementations overwrite a task as a whole; partial updates are not supported.
type TaskStore interface {
	// List returns the names of every stored task, sorted.
	List(ctx context.Context) ([]string, error)

	// Load retrieves the records of a task.
	// Returns domain.ErrTaskNotFound if the task does not exist.
	Load(ctx context.Context, task string) ([]schema.Record, error)

	// Save replaces the records of a task.
	Save(ctx context.Context, task string, records []schema.Record) error

	// Delete removes a task. Deleting a missing task is not an error.
	Delete(ctx context.Context, task string) error
}
