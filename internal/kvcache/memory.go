// internal/kvcache/memory.go
//
// In-process Cache backend.
//
// Context
// -------
// Single-node deployments run without a shared cache tier; this backend
// keeps entries in a plain map guarded by an RWMutex, prunes expired
// entries with a background janitor, and bounds memory with a max-entry
// cap.  When an insert would exceed the cap, expired entries are swept
// first, then the least-recently-used survivors go.  Expiry is also
// checked on read, so correctness never depends on the janitor interval.
//
// Notes
// -----
// • Values are copied on Set and Get; callers cannot mutate stored bytes.
// • Oxford commas, two spaces after periods.

package kvcache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultJanitorInterval is how often the janitor sweeps expired entries.
const DefaultJanitorInterval = time.Minute

// DefaultMaxEntries caps the map when the constructor is given no limit.
const DefaultMaxEntries = 16384

type memoryEntry struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
	lastUsed  int64     // UnixNano, updated atomically on Get
}

func (e *memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// Memory is a TTL map cache.  Construct with NewMemory.
type Memory struct {
	mu         sync.RWMutex
	items      map[string]*memoryEntry
	maxEntries int
	done       chan struct{}
	closeOnce  sync.Once
}

// NewMemory returns a ready cache and starts its janitor.  Non-positive
// arguments select DefaultJanitorInterval and DefaultMaxEntries.
func NewMemory(janitorInterval time.Duration, maxEntries int) *Memory {
	if janitorInterval <= 0 {
		janitorInterval = DefaultJanitorInterval
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	m := &Memory{
		items:      make(map[string]*memoryEntry),
		maxEntries: maxEntries,
		done:       make(chan struct{}),
	}
	go m.janitor(janitorInterval)
	return m
}

// Get implements Cache.
func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	e, ok := m.items[key]
	m.mu.RUnlock()

	if !ok || e.expired(time.Now()) {
		return nil, ErrNotFound
	}
	atomic.StoreInt64(&e.lastUsed, time.Now().UnixNano())

	// Entries are immutable after Set, so copying outside the lock is safe.
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

// Set implements Cache.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	now := time.Now()
	e := &memoryEntry{
		value:    make([]byte, len(value)),
		lastUsed: now.UnixNano(),
	}
	copy(e.value, value)
	if ttl > 0 {
		e.expiresAt = now.Add(ttl)
	}

	m.mu.Lock()
	if _, exists := m.items[key]; !exists && len(m.items) >= m.maxEntries {
		m.evictLocked(now)
	}
	m.items[key] = e
	m.mu.Unlock()
	return nil
}

// evictLocked frees room for one insert: expired entries first, then the
// least-recently-used.  Caller holds the write lock.
func (m *Memory) evictLocked(now time.Time) {
	for k, e := range m.items {
		if e.expired(now) {
			delete(m.items, k)
		}
	}

	for len(m.items) >= m.maxEntries {
		var (
			oldestKey string
			oldest    int64
		)
		for k, e := range m.items {
			used := atomic.LoadInt64(&e.lastUsed)
			if oldestKey == "" || used < oldest {
				oldestKey, oldest = k, used
			}
		}
		delete(m.items, oldestKey)
	}
}

// Delete implements Cache.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.items, key)
	m.mu.Unlock()
	return nil
}

// Close stops the janitor.  The cache remains usable afterwards; entries
// simply stop being swept.
func (m *Memory) Close() error {
	m.closeOnce.Do(func() { close(m.done) })
	return nil
}

// Len reports the current entry count, expired entries included.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

func (m *Memory) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case now := <-ticker.C:
			m.mu.Lock()
			for k, e := range m.items {
				if e.expired(now) {
					delete(m.items, k)
				}
			}
			m.mu.Unlock()
		}
	}
}
