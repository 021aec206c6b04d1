package cache

import (
	"context"
	"sync"
	"time"
)

// Cooldown marks keys for a limited time. Acquire sets the marker and reports true
// when no live marker existed for key.
type Cooldown interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// sweepEvery is how many Acquire calls pass between scans for expired markers.
const sweepEvery = 1024

// MemoryCooldown keeps markers in process memory. There is no background sweep:
// every sweepEvery calls, Acquire drops whatever has expired, so the map holds at
// most the live markers plus one interval's worth of new keys.
type MemoryCooldown struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
	calls   int
}

func NewMemoryCooldown() *MemoryCooldown {
	return NewMemoryCooldownWithClock(time.Now)
}

func NewMemoryCooldownWithClock(now func() time.Time) *MemoryCooldown {
	return &MemoryCooldown{entries: make(map[string]time.Time), now: now}
}

func (m *MemoryCooldown) Acquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	m.calls++
	if m.calls >= sweepEvery {
		m.calls = 0
		m.evictExpired(now)
	}
	if exp, ok := m.entries[key]; ok && now.Before(exp) {
		return false, nil
	}
	m.entries[key] = now.Add(ttl)
	return true, nil
}

func (m *MemoryCooldown) evictExpired(now time.Time) {
	for k, exp := range m.entries {
		if !now.Before(exp) {
			delete(m.entries, k)
		}
	}
}

// Len reports the number of stored markers, live or expired.
func (m *MemoryCooldown) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
