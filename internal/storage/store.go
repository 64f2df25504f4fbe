package storage

import (
	"context"
	"errors"
)

var ErrConflict = errors.New("storage: too many concurrent updates")

// UpdateFunc receives the current value of a key and returns the value to
// write. Returning write=false leaves the key untouched. It may be called
// more than once when a backend retries after a lost race, so it must not
// have side effects outside its return values.
type UpdateFunc func(current []byte, found bool) (next []byte, write bool, err error)

// Store is a key-value store of serialized usage records. Update is atomic
// per key; distinct keys never block each other.
//
// The quota engine reads and writes only through Update and Delete. Get and
// Set are plain non-atomic accessors for tests, seeding and tooling.
type Store interface {
	Name() string
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Update(ctx context.Context, key string, fn UpdateFunc) error
}

// Counter is implemented by stores that can report their size cheaply.
type Counter interface {
	Len() int
}

// Snapshotter is implemented by stores whose whole content can be dumped to
// and loaded from a file.
type Snapshotter interface {
	Snapshot() map[string][]byte
	Restore(records map[string][]byte)
}
