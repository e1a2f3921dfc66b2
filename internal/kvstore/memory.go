package kvstore

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-process Store used in tests and single-node setups
// without a broker. Expiry is checked lazily on access.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	value     string
	expiresAt time.Time // zero means no expiry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry)}
}

func (e memoryEntry) expired() bool {
	return !e.expiresAt.IsZero() && time.Now().After(e.expiresAt)
}

// Get returns the value for key.
func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok || entry.expired() {
		delete(s.entries, key)
		return "", false, nil
	}
	return entry.value, true, nil
}

// Set writes key=value with an optional TTL.
func (s *MemoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}
	s.entries[key] = entry
	return nil
}

// Delete removes a key.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// DeleteByPattern removes keys matching a trailing-* prefix pattern (or an
// exact key when the pattern has no wildcard).
func (s *MemoryStore) DeleteByPattern(_ context.Context, pattern string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		for key := range s.entries {
			if strings.HasPrefix(key, prefix) {
				delete(s.entries, key)
				deleted++
			}
		}
		return deleted, nil
	}

	if _, ok := s.entries[pattern]; ok {
		delete(s.entries, pattern)
		deleted++
	}
	return deleted, nil
}

// Exists reports whether key is present.
func (s *MemoryStore) Exists(ctx context.Context, key string) (bool, error) {
	_, ok, err := s.Get(ctx, key)
	return ok, err
}

// Len returns the number of live entries. Test helper.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, entry := range s.entries {
		if !entry.expired() {
			n++
		}
	}
	return n
}
