package models

import json "github.com/goccy/go-json"

const SnapshotVersion = 1

// Snapshot is the on-disk envelope of the memory store. Records keep the
// exact bytes the engine wrote.
type Snapshot struct {
	Version int                        `json:"version"`
	Records map[string]json.RawMessage `json:"records"`
}
