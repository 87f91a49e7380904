package fallback

import (
	"sync"
	"time"
)

var _ Store = (*InMemoryStore)(nil)

// InMemoryStore is a Store backed by a map. It does not survive a process
// restart, which makes it suitable for tests and for callers that opt out of
// persistence entirely.
type InMemoryStore struct {
	entries map[string]memoryEntry
	lock    sync.RWMutex
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: make(map[string]memoryEntry)}
}

func (s *InMemoryStore) Set(key, value string, ttl time.Duration) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.entries[key] = memoryEntry{value: value, expiresAt: NowTimeFunc().Add(ttl)}
	return nil
}

func (s *InMemoryStore) Get(key string) (string, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return "", false
	}
	if NowTimeFunc().After(entry.expiresAt) {
		delete(s.entries, key)
		return "", false
	}
	return entry.value, true
}

func (s *InMemoryStore) Delete(key string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	delete(s.entries, key)
	return nil
}
