package flags

import (
	"context"
	"fmt"
	"strconv"
)

// AllEntities is the flag field that switches the index off for every entity.
const AllEntities = "*"

// store is the consumer interface for flag hashes (ISP).
type store interface {
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HSet(ctx context.Context, key string, fields map[string]string) error
}

// Store keeps per-entity index kill switches in one hash: field = entity
// (or "*"), value = "1" enabled / "0" disabled.
type Store struct {
	store store
	key   string
}

// New creates a flag store on the given hash key.
func New(s store, key string) *Store {
	return &Store{store: s, key: key}
}

// Flags returns the raw flag hash.
func (s *Store) Flags(ctx context.Context) (map[string]string, error) {
	m, err := s.store.HGetAll(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("flags HGETALL %s: %w", s.key, err)
	}
	return m, nil
}

// SetEnabled switches the index path on or off for entity.
func (s *Store) SetEnabled(ctx context.Context, entity string, enabled bool) error {
	if entity == "" {
		return fmt.Errorf("entity is required")
	}
	v := strconv.FormatBool(enabled)
	if err := s.store.HSet(ctx, s.key, map[string]string{entity: v}); err != nil {
		return fmt.Errorf("flags HSET %s %s: %w", s.key, entity, err)
	}
	return nil
}
