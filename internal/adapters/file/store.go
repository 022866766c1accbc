package file

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/aretw0/autopilot/pkg/domain"
	"github.com/aretw0/autopilot/pkg/schema"
)

// DefaultPath is where tasks live when no path is configured.
var DefaultPath = filepath.Join("data", "tasks.json")

// Store implements ports.TaskStore on a single JSON document mapping task names to their
// ordered records. Every Save rewrites the whole document atomically.
type Store struct {
	Path string

	mu sync.Mutex
}

// New creates a Store backed by path.
// If path is empty, it defaults to DefaultPath.
func New(path string) *Store {
	if path == "" {
		path = DefaultPath
	}
	return &Store{Path: path}
}

type document map[string][]schema.Record

func (s *Store) read() (document, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return document{}, nil
		}
		return nil, fmt.Errorf("failed to read task file: %w", err)
	}
	if len(data) == 0 {
		return document{}, nil
	}
	doc := document{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task file: %w", err)
	}
	return doc, nil
}

// write persists doc atomically: temp file in the same directory, fsync, rename.
func (s *Store) write(doc document) error {
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to ensure task directory: %w", err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal tasks: %w", err)
	}

	// Same directory keeps the rename on one filesystem
	tmpFile, err := os.CreateTemp(dir, "tmp-tasks-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath) // no-op once renamed
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// Rename replaces the destination in one step; readers see the old or the new file.
	if err := os.Rename(tmpPath, s.Path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Save replaces the records of a task.
func (s *Store) Save(ctx context.Context, task string, records []schema.Record) error {
	if task == "" {
		return fmt.Errorf("task name cannot be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}
	if records == nil {
		records = []schema.Record{}
	}
	doc[task] = records
	return s.write(doc)
}

// Load retrieves the records of a task.
func (s *Store) Load(ctx context.Context, task string) ([]schema.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	records, ok := doc[task]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	return records, nil
}

// Delete removes a task from the document.
func (s *Store) Delete(ctx context.Context, task string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := doc[task]; !ok {
		return nil
	}
	delete(doc, task)
	return s.write(doc)
}

// List returns the names of every stored task, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	return slices.Sorted(maps.Keys(doc)), nil
}
