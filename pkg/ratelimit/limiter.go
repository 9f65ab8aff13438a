package ratelimit

import (
	"sync"
	"time"
)

// entry is one fixed window for one key. It is overwritten wholesale when
// the window expires, never incremented past the configured maximum.
type entry struct {
	count         int
	windowResetAt time.Time
}

// Store is a fixed-window request counter. It is explicitly owned by the
// caller and injected where limiting is applied, so tests can run against
// an isolated store.
//
// The window is approximate: a burst straddling a window boundary can pass
// up to 2*max requests. That is acceptable for abuse dampening.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
	now     func() time.Time
}

func NewStore() *Store {
	return &Store{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

// Check records one request for key and reports whether the key has
// exceeded maxRequests within the current window. The call that would cross
// the maximum returns true without incrementing further.
func (s *Store) Check(key string, maxRequests int, window time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	e, ok := s.entries[key]
	if !ok || now.After(e.windowResetAt) {
		s.entries[key] = &entry{count: 1, windowResetAt: now.Add(window)}
		return false
	}

	if e.count >= maxRequests {
		return true
	}

	e.count++
	return false
}

// Sweep drops entries whose window has already expired.
func (s *Store) Sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, e := range s.entries {
		if now.After(e.windowResetAt) {
			delete(s.entries, key)
		}
	}
}

// Len reports the number of tracked keys, expired or not.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// StartSweeper runs Sweep on the given interval until stop is closed.
func (s *Store) StartSweeper(interval time.Duration, stop <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Sweep()
			case <-stop:
				return
			}
		}
	}()
}
