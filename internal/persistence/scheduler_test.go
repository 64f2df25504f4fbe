package persistence

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quotad/internal/storage"
	"quotad/internal/structures"
	"quotad/internal/testutil"
)

func testConfig(filePath string, interval time.Duration) *structures.Config {
	return &structures.Config{
		Persistence: structures.Persistence{
			FilePath:     filePath,
			SaveInterval: interval,
		},
	}
}

func TestScheduler_PersistAndRestore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "usage.dat")
	metrics := &testutil.MockMetrics{}

	src := storage.NewMemoryStore()
	require.NoError(t, src.Set(ctx, "k", []byte(`{"conversions":2}`)))
	s := NewScheduler(testConfig(path, time.Minute), &testutil.MockLogger{}, NewFileManager(&testutil.MockCompressor{}, src, &testutil.MockLogger{}), metrics)
	require.NoError(t, s.Persist())
	assert.Len(t, metrics.PersistenceDurations, 1)

	dst := storage.NewMemoryStore()
	s2 := NewScheduler(testConfig(path, time.Minute), &testutil.MockLogger{}, NewFileManager(&testutil.MockCompressor{}, dst, &testutil.MockLogger{}), metrics)
	require.NoError(t, s2.Restore())
	val, ok, _ := dst.Get(ctx, "k")
	require.True(t, ok)
	assert.JSONEq(t, `{"conversions":2}`, string(val))
}

func TestScheduler_Restore_FileNotExist(t *testing.T) {
	fm := NewFileManager(&testutil.MockCompressor{}, storage.NewMemoryStore(), &testutil.MockLogger{})
	s := NewScheduler(testConfig("/nonexistent/file.dat", time.Minute), &testutil.MockLogger{}, fm, &testutil.MockMetrics{})
	assert.NoError(t, s.Restore())
}

func TestScheduler_Restore_CorruptedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.dat")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0644))

	fm := NewFileManager(&testutil.MockCompressor{}, storage.NewMemoryStore(), &testutil.MockLogger{})
	s := NewScheduler(testConfig(path, time.Minute), &testutil.MockLogger{}, fm, &testutil.MockMetrics{})
	assert.Error(t, s.Restore())
}

func TestScheduler_PersistError(t *testing.T) {
	logger := &testutil.MockLogger{}
	fm := NewFileManager(&testutil.MockCompressor{}, storage.NewMemoryStore(), logger)
	s := NewScheduler(testConfig("/nonexistent/dir/file.dat", time.Minute), logger, fm, &testutil.MockMetrics{})
	assert.Error(t, s.Persist())
	assert.Equal(t, 1, logger.Count("error"))
}

func TestScheduler_PeriodicSave(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "usage.dat")
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(ctx, "k", []byte(`{}`)))

	fm := NewFileManager(&testutil.MockCompressor{}, store, &testutil.MockLogger{})
	s := NewScheduler(testConfig(path, time.Second), &testutil.MockLogger{}, fm, &testutil.MockMetrics{})
	s.Init()
	defer s.Stop()

	assert.Eventually(t, func() bool {
		_, err := os.Stat(path)
		return err == nil
	}, 5*time.Second, 50*time.Millisecond)
}

func TestNewScheduler_NoopWithoutFilePath(t *testing.T) {
	fm := NewFileManager(&testutil.MockCompressor{}, storage.NewMemoryStore(), &testutil.MockLogger{})
	s := NewScheduler(testConfig("", time.Minute), &testutil.MockLogger{}, fm, &testutil.MockMetrics{})
	assert.IsType(t, noopScheduler{}, s)
	s.Init()
	s.Stop()
	assert.NoError(t, s.Restore())
	assert.NoError(t, s.Persist())
}

func TestNewScheduler_NoopForSharedStores(t *testing.T) {
	fm := NewFileManager(&testutil.MockCompressor{}, storage.NewFreecacheStore(1, 0), &testutil.MockLogger{})
	s := NewScheduler(testConfig("/tmp/x.dat", time.Minute), &testutil.MockLogger{}, fm, &testutil.MockMetrics{})
	assert.IsType(t, noopScheduler{}, s)
}
