package persistence

import (
	"errors"
	"fmt"
	"os"

	json "github.com/goccy/go-json"

	"quotad/internal/models"
	"quotad/internal/persistence/interfaces"
	"quotad/internal/providers"
	"quotad/internal/storage"
)

var ErrNotSnapshotter = errors.New("store does not support snapshots")

// FileManager dumps a snapshot-capable store to a compressed file and loads
// it back.
type FileManager struct {
	store      storage.Store
	compressor interfaces.CompressorInterface
	logger     providers.Logger
}

func NewFileManager(compressor interfaces.CompressorInterface, store storage.Store, logger providers.Logger) *FileManager {
	return &FileManager{
		compressor: compressor,
		store:      store,
		logger:     logger,
	}
}

// Supported reports whether the configured store can be persisted to a file.
func (f *FileManager) Supported() bool {
	_, ok := f.store.(storage.Snapshotter)
	return ok
}

func (f *FileManager) SaveToFile(fileName string) error {
	snap, ok := f.store.(storage.Snapshotter)
	if !ok {
		return ErrNotSnapshotter
	}

	records := snap.Snapshot()
	envelope := models.Snapshot{
		Version: models.SnapshotVersion,
		Records: make(map[string]json.RawMessage, len(records)),
	}
	for key, raw := range records {
		if !json.Valid(raw) {
			f.logger.Warnf(providers.TypeApp, "Skipping unreadable record %s in snapshot", key)
			continue
		}
		envelope.Records[key] = raw
	}

	jsonData, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	data, err := f.compressor.Compress(jsonData)
	if err != nil {
		return err
	}

	tmpFile := fileName + ".tmp"
	file, err := os.Create(tmpFile)
	if err != nil {
		return err
	}

	if _, err = file.Write(data); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Close(); err != nil {
		os.Remove(tmpFile)
		return err
	}

	return os.Rename(tmpFile, fileName)
}

// LoadFromFile replaces the store content with the snapshot in fileName.
// A missing file leaves the store empty.
func (f *FileManager) LoadFromFile(fileName string) error {
	snap, ok := f.store.(storage.Snapshotter)
	if !ok {
		return ErrNotSnapshotter
	}

	data, err := os.ReadFile(fileName)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	decompressed, err := f.compressor.Decompress(data)
	if err != nil {
		return fmt.Errorf("decompress snapshot: %w", err)
	}

	var envelope models.Snapshot
	if err := json.Unmarshal(decompressed, &envelope); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}
	if envelope.Version != models.SnapshotVersion {
		return fmt.Errorf("unsupported snapshot version %d", envelope.Version)
	}

	records := make(map[string][]byte, len(envelope.Records))
	for key, raw := range envelope.Records {
		records[key] = []byte(raw)
	}
	snap.Restore(records)
	f.logger.Infof(providers.TypeApp, "Restored %d usage records from %s", len(records), fileName)
	return nil
}
