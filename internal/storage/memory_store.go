package storage

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value   []byte
	written time.Time
}

// MemoryStore keeps records in a map. With a TTL, a record not written for
// longer than the TTL reads as absent and is dropped by the next sweep.
type MemoryStore struct {
	mu        sync.Mutex
	records   map[string]memoryEntry
	ttl       time.Duration
	now       func() time.Time
	lastSweep time.Time
}

type MemoryOption func(*MemoryStore)

// WithTTL expires records ttl after their last write. Zero keeps them forever.
func WithTTL(ttl time.Duration) MemoryOption {
	return func(ms *MemoryStore) { ms.ttl = ttl }
}

func WithClock(now func() time.Time) MemoryOption {
	return func(ms *MemoryStore) { ms.now = now }
}

func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	ms := &MemoryStore{records: make(map[string]memoryEntry), now: time.Now}
	for _, opt := range opts {
		opt(ms)
	}
	ms.lastSweep = ms.now()
	return ms
}

func (ms *MemoryStore) Name() string { return "memory" }

func (ms *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	e, ok := ms.live(key, ms.now())
	if !ok {
		return nil, false, nil
	}
	return cloneBytes(e.value), true, nil
}

func (ms *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.put(key, value)
	return nil
}

func (ms *MemoryStore) Delete(_ context.Context, key string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	delete(ms.records, key)
	return nil
}

// Update holds the store lock while fn runs.
func (ms *MemoryStore) Update(ctx context.Context, key string, fn UpdateFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()

	cur, found := ms.live(key, ms.now())
	next, write, err := fn(cloneBytes(cur.value), found)
	if err != nil || !write {
		return err
	}
	ms.put(key, next)
	return nil
}

// Len counts stored records, expired ones included until swept.
func (ms *MemoryStore) Len() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return len(ms.records)
}

// Sweep drops expired records and reports how many went.
func (ms *MemoryStore) Sweep() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.sweep(ms.now())
}

// Snapshot returns the live records.
func (ms *MemoryStore) Snapshot() map[string][]byte {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.sweep(ms.now())
	out := make(map[string][]byte, len(ms.records))
	for k, e := range ms.records {
		out[k] = cloneBytes(e.value)
	}
	return out
}

// Restore replaces the whole content of the store. Restored records count
// as written now.
func (ms *MemoryStore) Restore(records map[string][]byte) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	now := ms.now()
	ms.records = make(map[string]memoryEntry, len(records))
	for k, v := range records {
		ms.records[k] = memoryEntry{value: cloneBytes(v), written: now}
	}
}

// live must be called with mu held.
func (ms *MemoryStore) live(key string, now time.Time) (memoryEntry, bool) {
	e, ok := ms.records[key]
	if !ok {
		return memoryEntry{}, false
	}
	if ms.expired(e, now) {
		delete(ms.records, key)
		return memoryEntry{}, false
	}
	return e, true
}

// put must be called with mu held. Writes sweep at most once per TTL.
func (ms *MemoryStore) put(key string, value []byte) {
	now := ms.now()
	ms.records[key] = memoryEntry{value: cloneBytes(value), written: now}
	if ms.ttl > 0 && now.Sub(ms.lastSweep) >= ms.ttl {
		ms.sweep(now)
	}
}

func (ms *MemoryStore) sweep(now time.Time) int {
	ms.lastSweep = now
	if ms.ttl <= 0 {
		return 0
	}
	n := 0
	for k, e := range ms.records {
		if ms.expired(e, now) {
			delete(ms.records, k)
			n++
		}
	}
	return n
}

func (ms *MemoryStore) expired(e memoryEntry, now time.Time) bool {
	return ms.ttl > 0 && now.Sub(e.written) > ms.ttl
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
