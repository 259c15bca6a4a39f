package cache

import (
	"context"
	"sync"
	"time"

	"cricket-club-backend/pkg/clock"
)

// Memory is an in-memory cache with TTL support and a fixed capacity.
//
// When full, expired entries are dropped first; if none are expired the entry
// closest to expiry is evicted.
type Memory struct {
	mu       sync.Mutex
	items    map[string]item
	capacity int
	clock    clock.Clock
}

type item struct {
	value     []byte
	expiresAt time.Time
}

// MemoryConfig configures the in-memory cache.
type MemoryConfig struct {
	// MaxEntries bounds the number of keys. Default: 10000.
	MaxEntries int

	// Clock defaults to the system clock.
	Clock clock.Clock
}

// NewMemory creates an in-memory cache.
func NewMemory(cfg MemoryConfig) *Memory {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 10000
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	return &Memory{
		items:    make(map[string]item),
		capacity: cfg.MaxEntries,
		clock:    cfg.Clock,
	}
}

// Get retrieves a value by key.
func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	it, ok := m.items[key]
	if !ok || !m.clock.Now().Before(it.expiresAt) {
		return nil, ErrNotFound
	}

	out := make([]byte, len(it.value))
	copy(out, it.value)
	return out, nil
}

// Set stores a value with the given TTL. A non-positive TTL is a no-op.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	if _, exists := m.items[key]; !exists && len(m.items) >= m.capacity {
		m.sweepLocked(now)
		if len(m.items) >= m.capacity {
			m.evictSoonestLocked()
		}
	}

	v := make([]byte, len(value))
	copy(v, value)
	m.items[key] = item{value: v, expiresAt: now.Add(ttl)}
	return nil
}

// Delete removes a key from the cache.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.items, key)
	m.mu.Unlock()
	return nil
}

// Sweep removes expired entries.
func (m *Memory) Sweep(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sweepLocked(m.clock.Now()), nil
}

// Len returns the number of stored entries, expired or not.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// StartJanitor sweeps the cache every interval until ctx is done.
func (m *Memory) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				_, _ = m.Sweep(ctx)
			}
		}
	}()
}

func (m *Memory) sweepLocked(now time.Time) int {
	n := 0
	for k, it := range m.items {
		if !now.Before(it.expiresAt) {
			delete(m.items, k)
			n++
		}
	}
	return n
}

func (m *Memory) evictSoonestLocked() {
	victim := ""
	var soonest time.Time
	for k, it := range m.items {
		if victim == "" || it.expiresAt.Before(soonest) {
			victim, soonest = k, it.expiresAt
		}
	}
	delete(m.items, victim)
}
