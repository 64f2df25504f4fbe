package storage

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	ms := NewMemoryStore()

	_, ok, err := ms.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, ms.Set(ctx, "a", []byte("1")))
	val, ok, err := ms.Get(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("1"), val)
	assert.Equal(t, 1, ms.Len())

	require.NoError(t, ms.Delete(ctx, "a"))
	_, ok, _ = ms.Get(ctx, "a")
	assert.False(t, ok)
	assert.Equal(t, 0, ms.Len())
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	ms := NewMemoryStore()
	require.NoError(t, ms.Set(ctx, "a", []byte("abc")))

	val, _, _ := ms.Get(ctx, "a")
	val[0] = 'z'

	again, _, _ := ms.Get(ctx, "a")
	assert.Equal(t, []byte("abc"), again)
}

func TestMemoryStore_UpdateSkipsWrite(t *testing.T) {
	ctx := context.Background()
	ms := NewMemoryStore()
	err := ms.Update(ctx, "a", func(cur []byte, found bool) ([]byte, bool, error) {
		assert.False(t, found)
		assert.Nil(t, cur)
		return []byte("x"), false, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 0, ms.Len())
}

func TestMemoryStore_UpdatePropagatesError(t *testing.T) {
	ctx := context.Background()
	ms := NewMemoryStore()
	boom := errors.New("boom")
	err := ms.Update(ctx, "a", func([]byte, bool) ([]byte, bool, error) {
		return []byte("x"), true, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, ms.Len())
}

func TestMemoryStore_UpdateCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewMemoryStore().Update(ctx, "a", func([]byte, bool) ([]byte, bool, error) {
		t.Fatal("fn must not run")
		return nil, false, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryStore_UpdateIsAtomic(t *testing.T) {
	ctx := context.Background()
	ms := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = ms.Update(ctx, "counter", func(cur []byte, found bool) ([]byte, bool, error) {
				n := 0
				if found {
					n, _ = strconv.Atoi(string(cur))
				}
				return []byte(strconv.Itoa(n + 1)), true, nil
			})
		}()
	}
	wg.Wait()

	val, _, _ := ms.Get(ctx, "counter")
	assert.Equal(t, "100", string(val))
}

func TestMemoryStore_SnapshotRestore(t *testing.T) {
	ctx := context.Background()
	ms := NewMemoryStore()
	require.NoError(t, ms.Set(ctx, "a", []byte("1")))
	require.NoError(t, ms.Set(ctx, "b", []byte("2")))

	snap := ms.Snapshot()
	assert.Len(t, snap, 2)

	other := NewMemoryStore()
	require.NoError(t, other.Set(ctx, "stale", []byte("0")))
	other.Restore(snap)
	assert.Equal(t, 2, other.Len())
	val, ok, _ := other.Get(ctx, "b")
	assert.True(t, ok)
	assert.Equal(t, []byte("2"), val)
	_, ok, _ = other.Get(ctx, "stale")
	assert.False(t, ok)
}

type stepClock struct{ now time.Time }

func (c *stepClock) Now() time.Time { return c.now }

func TestMemoryStore_ExpiredRecordIsGone(t *testing.T) {
	ctx := context.Background()
	clock := &stepClock{now: time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)}
	ms := NewMemoryStore(WithTTL(48*time.Hour), WithClock(clock.Now))
	require.NoError(t, ms.Set(ctx, "old", []byte("1")))

	clock.now = clock.now.Add(47 * time.Hour)
	_, ok, _ := ms.Get(ctx, "old")
	assert.True(t, ok)

	clock.now = clock.now.Add(2 * time.Hour)
	_, ok, err := ms.Get(ctx, "old")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, ms.Len())
	assert.Empty(t, ms.Snapshot())
}

func TestMemoryStore_UpdateSeesExpiredAsAbsent(t *testing.T) {
	ctx := context.Background()
	clock := &stepClock{now: time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)}
	ms := NewMemoryStore(WithTTL(24*time.Hour), WithClock(clock.Now))
	require.NoError(t, ms.Set(ctx, "a", []byte("1")))

	clock.now = clock.now.Add(25 * time.Hour)
	err := ms.Update(ctx, "a", func(cur []byte, found bool) ([]byte, bool, error) {
		assert.False(t, found)
		assert.Nil(t, cur)
		return []byte("2"), true, nil
	})
	require.NoError(t, err)
	val, ok, _ := ms.Get(ctx, "a")
	assert.True(t, ok)
	assert.Equal(t, []byte("2"), val)
}

func TestMemoryStore_WritesSweepUntouchedRecords(t *testing.T) {
	ctx := context.Background()
	clock := &stepClock{now: time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)}
	ms := NewMemoryStore(WithTTL(24*time.Hour), WithClock(clock.Now))
	for i := 0; i < 10; i++ {
		require.NoError(t, ms.Set(ctx, "cookieless:"+strconv.Itoa(i), []byte("{}")))
	}
	require.Equal(t, 10, ms.Len())

	clock.now = clock.now.Add(25 * time.Hour)
	require.NoError(t, ms.Set(ctx, "fresh", []byte("{}")))
	assert.Equal(t, 1, ms.Len())
}

func TestMemoryStore_Sweep(t *testing.T) {
	ctx := context.Background()
	clock := &stepClock{now: time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)}
	ms := NewMemoryStore(WithTTL(24*time.Hour), WithClock(clock.Now))
	require.NoError(t, ms.Set(ctx, "a", []byte("1")))
	clock.now = clock.now.Add(12 * time.Hour)
	require.NoError(t, ms.Set(ctx, "b", []byte("2")))

	clock.now = clock.now.Add(13 * time.Hour)
	assert.Equal(t, 1, ms.Sweep())
	assert.Equal(t, map[string][]byte{"b": []byte("2")}, ms.Snapshot())
}

func TestMemoryStore_NoTTLKeepsRecords(t *testing.T) {
	ctx := context.Background()
	clock := &stepClock{now: time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)}
	ms := NewMemoryStore(WithClock(clock.Now))
	require.NoError(t, ms.Set(ctx, "a", []byte("1")))

	clock.now = clock.now.AddDate(1, 0, 0)
	assert.Equal(t, 0, ms.Sweep())
	_, ok, _ := ms.Get(ctx, "a")
	assert.True(t, ok)
}
