package docstore

import (
	"context"
	"strconv"
	"sync"
)

// MemoryStore implements Store with an in-process map. Used for testing
// and as the startup fallback when neither Redis nor PostgreSQL is
// configured. Versions are a per-key counter rendered as text.
type MemoryStore struct {
	mu   sync.Mutex
	docs map[string]memoryDoc
}

type memoryDoc struct {
	body []byte
	seq  uint64
}

// NewMemoryStore creates an empty in-memory document store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]memoryDoc)}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[key]
	if !ok {
		return nil, NoVersion, nil
	}

	// Copy so callers can't mutate stored state.
	body := make([]byte, len(doc.body))
	copy(body, doc.body)
	return body, Version(strconv.FormatUint(doc.seq, 10)), nil
}

func (s *MemoryStore) Put(_ context.Context, key string, body []byte, expected *Version) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, exists := s.docs[key]

	if expected != nil {
		current := NoVersion
		if exists {
			current = Version(strconv.FormatUint(doc.seq, 10))
		}
		if current != *expected {
			return ErrVersionConflict
		}
	}

	stored := make([]byte, len(body))
	copy(stored, body)
	s.docs[key] = memoryDoc{body: stored, seq: doc.seq + 1}
	return nil
}
