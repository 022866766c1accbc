package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/autopilot/pkg/domain"
	"github.com/aretw0/autopilot/pkg/schema"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key written by the store and the locker.
const DefaultPrefix = "autopilot:"

// Store implements ports.TaskStore using Redis.
// Each task is one JSON value; a sorted set indexes task names.
type Store struct {
	client *backend.Client
	prefix string
}

type Option func(*Store)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: DefaultPrefix,
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

// Client exposes the underlying client so a Locker can share the connection.
func (s *Store) Client() *backend.Client {
	return s.client
}

func (s *Store) key(task string) string {
	return s.prefix + "task:" + task
}

func (s *Store) indexKey() string {
	return s.prefix + "tasks"
}

// Save persists the task records.
func (s *Store) Save(ctx context.Context, task string, records []schema.Record) error {
	if records == nil {
		records = []schema.Record{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(task), data, 0)
	// Equal scores make ZRANGE return members in lexical order.
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{Score: 0, Member: task})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Load retrieves the task records.
func (s *Store) Load(ctx context.Context, task string) ([]schema.Record, error) {
	val, err := s.client.Get(ctx, s.key(task)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var records []schema.Record
	if err := json.Unmarshal(val, &records); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task: %w", err)
	}
	return records, nil
}

// Delete removes the task.
func (s *Store) Delete(ctx context.Context, task string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.key(task))
	pipe.ZRem(ctx, s.indexKey(), task)

	_, err := pipe.Exec(ctx)
	return err
}

// List returns the stored task names, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	names, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return names, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
