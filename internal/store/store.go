package store

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"termcal/internal/model"
)

// Term is one stored term session: the parsed payload plus the filters the
// caller wants applied when materializing from it.
type Term struct {
	ID      string
	Payload model.TermPayload
	Filters model.Filters

	CreatedAt time.Time
	ExpiresAt time.Time
}

// Store is an in-memory term-session store with TTL-based expiry. Eviction is
// driven externally (see the cron wiring in cmd/termcal); Get never returns
// an expired entry even before the sweeper runs.
type Store struct {
	mu    sync.RWMutex
	ttl   time.Duration
	terms map[string]Term
}

// New creates a Store whose entries live for ttl after insertion.
func New(ttl time.Duration) *Store {
	return &Store{
		ttl:   ttl,
		terms: make(map[string]Term),
	}
}

// Put stores a payload under a fresh id and returns the stored entry.
func (s *Store) Put(payload model.TermPayload, filters model.Filters) Term {
	now := time.Now()
	t := Term{
		ID:        uuid.NewString(),
		Payload:   payload,
		Filters:   filters,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	s.mu.Lock()
	s.terms[t.ID] = t
	s.mu.Unlock()

	return t
}

// Get returns the term stored under id, if present and unexpired.
func (s *Store) Get(id string) (Term, bool) {
	s.mu.RLock()
	t, ok := s.terms[id]
	s.mu.RUnlock()

	if !ok || time.Now().After(t.ExpiresAt) {
		return Term{}, false
	}
	return t, true
}

// Sweep evicts every entry expired as of now and reports how many went.
func (s *Store) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, t := range s.terms {
		if now.After(t.ExpiresAt) {
			delete(s.terms, id)
			removed++
		}
	}
	return removed
}

// Len reports the number of stored entries, expired or not.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.terms)
}
