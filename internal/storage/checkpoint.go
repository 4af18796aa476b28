package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/yndnr/textnonce-go/pkg/nonce"
)

// MarkKey is the key under which the guard's high-water mark is stored.
var MarkKey = []byte("guard/last")

// CheckpointStore keeps a monotonic nonce.Instant in a KVEngine.
type CheckpointStore struct {
	kv KVEngine
	mu sync.Mutex
}

// NewCheckpointStore creates a CheckpointStore on top of kv.
func NewCheckpointStore(kv KVEngine) *CheckpointStore {
	return &CheckpointStore{kv: kv}
}

// LoadMark returns the stored mark. ok is false when none has been saved.
func (s *CheckpointStore) LoadMark(ctx context.Context) (nonce.Instant, bool, error) {
	raw, err := s.kv.Get(ctx, MarkKey)
	if errors.Is(err, ErrKeyNotFound) {
		return nonce.Instant{}, false, nil
	}
	if err != nil {
		return nonce.Instant{}, false, fmt.Errorf("load mark: %w", err)
	}
	mark, err := nonce.ParseInstant(raw)
	if err != nil {
		return nonce.Instant{}, false, fmt.Errorf("load mark: %w", err)
	}
	return mark, true, nil
}

// SaveMark stores mark unless the stored mark is already later.
// A corrupt stored value is overwritten.
func (s *CheckpointStore) SaveMark(ctx context.Context, mark nonce.Instant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.kv.Update(ctx, MarkKey, func(old []byte, found bool) ([]byte, error) {
		if found {
			if prev, perr := nonce.ParseInstant(old); perr == nil && !prev.Before(mark) {
				return nil, nil
			}
		}
		return mark.AppendBinary(nil), nil
	})
	if err != nil {
		return fmt.Errorf("save mark: %w", err)
	}
	return nil
}
