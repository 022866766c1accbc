package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/aretw0/autopilot/pkg/domain"
	"github.com/aretw0/autopilot/pkg/schema"
)

// Store implements ports.TaskStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string][]schema.Record
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string][]schema.Record),
	}
}

func copyRecords(in []schema.Record) []schema.Record {
	out := make([]schema.Record, len(in))
	for i, rec := range in {
		out[i] = maps.Clone(rec)
	}
	return out
}

// Save persists the task records in memory.
func (s *Store) Save(ctx context.Context, task string, records []schema.Record) error {
	// Deep copy to ensure isolation, similar to serialization
	copied := copyRecords(records)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[task] = copied
	return nil
}

// Load retrieves the task records from memory.
func (s *Store) Load(ctx context.Context, task string) ([]schema.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records, ok := s.data[task]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}

	// Copy on read so callers can't mutate store state through the maps
	return copyRecords(records), nil
}

// Delete removes the task.
func (s *Store) Delete(ctx context.Context, task string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, task)
	return nil
}

// List returns the stored task names, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Sorted(maps.Keys(s.data)), nil
}
