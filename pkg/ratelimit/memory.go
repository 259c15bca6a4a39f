package ratelimit

import (
	"context"
	"sync"
	"time"

	"cricket-club-backend/pkg/clock"
)

// MemoryStore keeps windows in a mutex-guarded map bounded to MaxKeys entries.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*Entry
	cfg     Config
	maxKeys int
	clock   clock.Clock
}

type MemoryOption func(*MemoryStore)

// WithClock replaces the system clock.
func WithClock(c clock.Clock) MemoryOption {
	return func(s *MemoryStore) { s.clock = c }
}

// WithMaxKeys bounds the number of tracked keys (default 10000).
func WithMaxKeys(n int) MemoryOption {
	return func(s *MemoryStore) {
		if n > 0 {
			s.maxKeys = n
		}
	}
}

// NewMemoryStore creates an in-process limiter.
func NewMemoryStore(cfg Config, opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]*Entry),
		cfg:     cfg.withDefaults(),
		maxKeys: 10000,
		clock:   clock.Real(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Allow implements Limiter. It never returns an error.
func (s *MemoryStore) Allow(_ context.Context, key string) (Decision, error) {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || now.After(e.ResetAt) {
		if !ok && len(s.entries) >= s.maxKeys {
			s.makeRoomLocked(now)
		}
		e = &Entry{Count: 1, ResetAt: now.Add(s.cfg.Window)}
		s.entries[key] = e
		return s.decision(true, e), nil
	}

	if e.Count >= s.cfg.Max {
		return s.decision(false, e), nil
	}

	e.Count++
	return s.decision(true, e), nil
}

func (s *MemoryStore) decision(allowed bool, e *Entry) Decision {
	return Decision{Allowed: allowed, Count: e.Count, Limit: s.cfg.Max, ResetAt: e.ResetAt}
}

// Get returns a copy of the entry for key.
func (s *MemoryStore) Get(key string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Len returns the number of tracked keys.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep drops windows that have closed.
func (s *MemoryStore) Sweep() int {
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked(now)
}

// StartJanitor sweeps closed windows every interval until ctx is done.
func (s *MemoryStore) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.Sweep()
			}
		}
	}()
}

func (s *MemoryStore) sweepLocked(now time.Time) int {
	n := 0
	for k, e := range s.entries {
		if now.After(e.ResetAt) {
			delete(s.entries, k)
			n++
		}
	}
	return n
}

// makeRoomLocked frees one slot, preferring closed windows. Evicting an open
// window only ever makes the limiter more lenient for that key.
func (s *MemoryStore) makeRoomLocked(now time.Time) {
	if s.sweepLocked(now) > 0 {
		return
	}
	victim := ""
	var soonest time.Time
	for k, e := range s.entries {
		if victim == "" || e.ResetAt.Before(soonest) {
			victim, soonest = k, e.ResetAt
		}
	}
	delete(s.entries, victim)
}
