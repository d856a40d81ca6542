package state

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jinzhu/copier"
)

// MemoryStore is an in-memory Store intended for tests, examples and
// editor sessions without durable storage. Snapshots are deep copied on the
// way in and out so callers cannot mutate stored state.
type MemoryStore[T any] struct {
	mu      sync.RWMutex
	records map[string]memoryRecord[T]
	now     func() time.Time
}

type memoryRecord[T any] struct {
	snapshot T
	meta     Meta
}

func NewMemoryStore[T any]() *MemoryStore[T] {
	return &MemoryStore[T]{records: map[string]memoryRecord[T]{}, now: time.Now}
}

func (s *MemoryStore[T]) Load(_ context.Context, ref Ref) (T, Meta, bool, error) {
	var zero T
	key, err := ref.Identifier()
	if err != nil {
		return zero, Meta{}, false, err
	}

	s.mu.RLock()
	record, ok := s.records[key]
	s.mu.RUnlock()
	if !ok {
		return zero, Meta{}, false, nil
	}
	snapshot, err := deepCopy(record.snapshot)
	if err != nil {
		return zero, Meta{}, false, err
	}
	return snapshot, cloneMeta(record.meta), true, nil
}

func (s *MemoryStore[T]) Save(_ context.Context, ref Ref, snapshot T, meta Meta) (Meta, error) {
	key, err := ref.Identifier()
	if err != nil {
		return Meta{}, err
	}
	copied, err := deepCopy(snapshot)
	if err != nil {
		return Meta{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.records[key]; ok {
		if err := checkETag(meta.ETag, existing.meta.ETag); err != nil {
			return existing.meta, err
		}
	}
	saved := nextMeta(meta, s.now())
	s.records[key] = memoryRecord[T]{snapshot: copied, meta: saved}
	return cloneMeta(saved), nil
}

// Len returns the number of stored snapshots.
func (s *MemoryStore[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func deepCopy[T any](src T) (T, error) {
	var dst T
	if err := copier.CopyWithOption(&dst, &src, copier.Option{DeepCopy: true}); err != nil {
		return dst, fmt.Errorf("state: copy snapshot: %w", err)
	}
	return dst, nil
}
