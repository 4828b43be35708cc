package cache

import (
	"context"
	"sync"
	"time"
)

type memEntry struct {
	record
	expiresAt time.Time
}

// InMemoryResponseStore implements ResponseStore using an in-memory map.
// This is suitable for single-instance deployments and testing.
type InMemoryResponseStore struct {
	mu        sync.Mutex
	entries   map[string]memEntry
	ttl       time.Duration
	lockTTL   time.Duration
	now       func() time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryResponseStore creates a store keeping completed responses for
// ttl. It starts a background goroutine to clean up expired entries.
func NewInMemoryResponseStore(ttl time.Duration) *InMemoryResponseStore {
	s := &InMemoryResponseStore{
		entries:  make(map[string]memEntry),
		ttl:      ttl,
		lockTTL:  min(ttl, defaultLockTTL),
		now:      time.Now,
		stopChan: make(chan struct{}),
	}

	s.wg.Add(1)
	go s.cleanupLoop()

	return s
}

// Reserve claims key, see ResponseStore
func (s *InMemoryResponseStore) Reserve(_ context.Context, key, fingerprint string) (*StoredResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if e, ok := s.entries[key]; ok && now.Before(e.expiresAt) {
		return e.resolve(fingerprint)
	}

	s.entries[key] = memEntry{
		record:    record{State: statePending, Fingerprint: fingerprint},
		expiresAt: now.Add(s.lockTTL),
	}
	return nil, nil
}

// Complete stores the response of a reserved key
func (s *InMemoryResponseStore) Complete(_ context.Context, key, fingerprint string, resp StoredResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = memEntry{
		record:    record{State: stateDone, Fingerprint: fingerprint, Response: &resp},
		expiresAt: s.now().Add(s.ttl),
	}
	return nil
}

// Release drops a reservation so the request can be retried
func (s *InMemoryResponseStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (s *InMemoryResponseStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

// Size returns the number of entries in the store (for testing/monitoring)
func (s *InMemoryResponseStore) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *InMemoryResponseStore) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *InMemoryResponseStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, key)
		}
	}
}

// Ensure InMemoryResponseStore implements ResponseStore
var _ ResponseStore = (*InMemoryResponseStore)(nil)
