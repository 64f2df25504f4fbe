package storage

import (
	"context"
	"errors"
	"sync"
	"time"
	"unsafe"

	"github.com/cespare/xxhash/v2"
	"github.com/coocood/freecache"
)

const lockStripes = 64

// FreecacheStore keeps records in a fixed-size freecache segment. Records
// expire after ttl; under memory pressure freecache may also evict live
// records, which resets that scope early.
type FreecacheStore struct {
	cache *freecache.Cache
	ttl   int
	locks [lockStripes]sync.Mutex
}

// NewFreecacheStore allocates sizeMB megabytes. A ttl below one second
// disables expiry.
func NewFreecacheStore(sizeMB int, ttl time.Duration) *FreecacheStore {
	return &FreecacheStore{
		cache: freecache.NewCache(sizeMB * 1024 * 1024),
		ttl:   int(ttl.Seconds()),
	}
}

// unsafeStringToBytes avoids an allocation per lookup; freecache copies keys.
func unsafeStringToBytes(s string) []byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice(unsafe.StringData(s), len(s))
}

func (fs *FreecacheStore) Name() string { return "freecache" }

func (fs *FreecacheStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	return fs.get(key)
}

func (fs *FreecacheStore) get(key string) ([]byte, bool, error) {
	val, err := fs.cache.Get(unsafeStringToBytes(key))
	if errors.Is(err, freecache.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (fs *FreecacheStore) Set(_ context.Context, key string, value []byte) error {
	return fs.cache.Set(unsafeStringToBytes(key), value, fs.ttl)
}

func (fs *FreecacheStore) Delete(_ context.Context, key string) error {
	fs.cache.Del(unsafeStringToBytes(key))
	return nil
}

func (fs *FreecacheStore) Update(ctx context.Context, key string, fn UpdateFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	mu := &fs.locks[xxhash.Sum64String(key)%lockStripes]
	mu.Lock()
	defer mu.Unlock()

	cur, found, err := fs.get(key)
	if err != nil {
		return err
	}
	next, write, err := fn(cur, found)
	if err != nil || !write {
		return err
	}
	return fs.cache.Set(unsafeStringToBytes(key), next, fs.ttl)
}

func (fs *FreecacheStore) Len() int {
	return int(fs.cache.EntryCount())
}
