package eligibility

import (
	"context"
	"strconv"
	"strings"
)

// Wildcard disables the index for every entity.
const Wildcard = "*"

// Snapshot is an immutable set of disabled entities.
type Snapshot struct {
	all      bool
	disabled map[string]struct{}
}

// NewSnapshot parses a flag hash. A value that parses as false disables
// the entity; unparsable values are ignored and reported in skipped.
func NewSnapshot(flags map[string]string) (snap *Snapshot, skipped []string) {
	snap = &Snapshot{disabled: make(map[string]struct{})}
	for k, v := range flags {
		enabled, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			skipped = append(skipped, k)
			continue
		}
		if enabled {
			continue
		}
		if k == Wildcard {
			snap.all = true
			continue
		}
		snap.disabled[k] = struct{}{}
	}
	return snap, skipped
}

// Disabled reports whether the index path is switched off for entity.
func (s *Snapshot) Disabled(entity string) bool {
	if s == nil {
		return false
	}
	if s.all {
		return true
	}
	_, ok := s.disabled[entity]
	return ok
}

// StaticSource serves a fixed flag hash, e.g. from configuration.
type StaticSource map[string]string

// Flags returns a copy of the static hash.
func (s StaticSource) Flags(_ context.Context) (map[string]string, error) {
	out := make(map[string]string, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out, nil
}
