package cache

import (
	"context"
	"strconv"
	"sync"
	"time"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

const (
	sweepEvery = 128
	sweepBatch = 512
)

// MemoryStore is the in-process Store used for single-node deployments and
// tests. Expired entries are dropped lazily on access, and every sweepEvery
// writes up to sweepBatch entries are scanned for expired keys.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	writes  uint64
	now     func() time.Time
	metrics *StoreMetrics
}

func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithClock(time.Now)
}

func NewMemoryStoreWithClock(now func() time.Time) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     now,
		metrics: newStoreMetrics(),
	}
}

// lookup must be called with mu held.
func (m *MemoryStore) lookup(key string) (memoryEntry, bool) {
	entry, ok := m.entries[key]
	if !ok {
		return memoryEntry{}, false
	}
	if entry.expired(m.now()) {
		delete(m.entries, key)
		return memoryEntry{}, false
	}
	return entry, true
}

// put must be called with mu held.
func (m *MemoryStore) put(key string, entry memoryEntry) {
	m.entries[key] = entry
	m.metrics.write()

	m.writes++
	if m.writes%sweepEvery == 0 {
		m.sweep()
	}
}

func (m *MemoryStore) sweep() {
	now := m.now()
	scanned := 0
	for key, entry := range m.entries {
		if scanned == sweepBatch {
			return
		}
		scanned++
		if entry.expired(now) {
			delete(m.entries, key)
		}
	}
}

func (m *MemoryStore) expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return m.now().Add(ttl)
}

func (m *MemoryStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.put(key, memoryEntry{value: value, expiresAt: m.expiry(ttl)})
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.lookup(key)
	if !ok {
		m.metrics.lookup(false)
		return "", ErrCacheMiss
	}
	m.metrics.lookup(true)
	return entry.value, nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key)
	m.metrics.delete()
	return nil
}

func (m *MemoryStore) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.lookup(key)
	m.metrics.lookup(ok)
	return ok, nil
}

func (m *MemoryStore) Increment(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var current int64
	if entry, ok := m.lookup(key); ok {
		n, err := strconv.ParseInt(entry.value, 10, 64)
		if err != nil {
			m.metrics.failure(false)
			return 0, err
		}
		current = n
	}
	current++

	m.put(key, memoryEntry{value: strconv.FormatInt(current, 10), expiresAt: m.expiry(ttl)})
	return current, nil
}

func (m *MemoryStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.lookup(key)
	if !ok {
		return 0, ErrCacheMiss
	}
	if entry.expiresAt.IsZero() {
		return 0, nil
	}
	return entry.expiresAt.Sub(m.now()), nil
}

func (m *MemoryStore) Health(ctx context.Context) error {
	return nil
}

func (m *MemoryStore) Metrics() MetricsSnapshot {
	return m.metrics.Snapshot()
}

func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *MemoryStore) Close() error {
	return nil
}
