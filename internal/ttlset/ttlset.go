// Package ttlset implements a small string set whose members expire after a
// fixed time-to-live. It replaces self-expiring guard sets built on timer
// closures with explicit deadline state and an injectable clock.
package ttlset

import (
	"sync"
	"time"
)

// Set is a string set with per-entry expiry. Safe for concurrent use.
type Set struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	deadline map[string]time.Time
}

// New creates a Set whose entries expire ttl after insertion.
func New(ttl time.Duration) *Set {
	return NewWithClock(ttl, time.Now)
}

// NewWithClock creates a Set using now as its time source, for
// deterministic tests.
func NewWithClock(ttl time.Duration, now func() time.Time) *Set {
	return &Set{
		ttl:      ttl,
		now:      now,
		deadline: make(map[string]time.Time),
	}
}

// Add inserts key, resetting its expiry if already present.
func (s *Set) Add(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purge()
	s.deadline[key] = s.now().Add(s.ttl)
}

// Contains reports whether key is present and not yet expired.
func (s *Set) Contains(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.deadline[key]
	if !ok {
		return false
	}
	if s.now().After(d) {
		delete(s.deadline, key)
		return false
	}
	return true
}

// Remove deletes key immediately, ahead of its expiry.
func (s *Set) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.deadline, key)
}

// Len returns the number of live entries.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purge()
	return len(s.deadline)
}

// purge drops expired entries. Callers must hold s.mu.
func (s *Set) purge() {
	now := s.now()
	for k, d := range s.deadline {
		if now.After(d) {
			delete(s.deadline, k)
		}
	}
}
