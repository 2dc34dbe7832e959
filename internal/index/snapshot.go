package index

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/kailas-cloud/crossdex/internal/domain"
)

// SnapshotVersion is the current serialized snapshot format version.
const SnapshotVersion = 1

// Snapshot is the versioned, persisted form of the index: canonical triple
// to {location, alias set, keyword set, alternates}. Records are sorted by
// canonical key so serializing an unchanged index is byte-identical.
type Snapshot struct {
	Version         int                     `json:"version"`
	BuiltAt         time.Time               `json:"built_at"`
	Records         []domain.DocumentRecord `json:"records"`
	Inconsistencies []domain.Inconsistency  `json:"inconsistencies,omitempty"`
}

// SnapshotStore persists snapshots (file-backed for the CLI, store-backed
// for the server).
type SnapshotStore interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snap *Snapshot) error
}

// Snapshot captures the current mapping as a versioned snapshot.
func (x *Index) Snapshot() *Snapshot {
	x.mu.RLock()
	defer x.mu.RUnlock()

	records := make([]domain.DocumentRecord, 0, len(x.records))
	for _, rec := range x.records {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Key.String() < records[j].Key.String()
	})

	return &Snapshot{
		Version:         SnapshotVersion,
		BuiltAt:         x.builtAt,
		Records:         records,
		Inconsistencies: append([]domain.Inconsistency(nil), x.incons...),
	}
}

// LoadSnapshot installs a persisted snapshot, replacing the current mapping.
func (x *Index) LoadSnapshot(snap *Snapshot) error {
	if snap.Version != SnapshotVersion {
		return fmt.Errorf("snapshot version %d: %w", snap.Version, domain.ErrSnapshotVersion)
	}

	records := make(map[string]domain.DocumentRecord, len(snap.Records))
	for _, rec := range snap.Records {
		records[rec.Key.String()] = rec
	}

	x.Replace(records, snap.Inconsistencies)

	x.mu.Lock()
	x.builtAt = snap.BuiltAt
	x.mu.Unlock()
	return nil
}

// EncodeSnapshot serializes a snapshot to JSON.
func EncodeSnapshot(snap *Snapshot) ([]byte, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot parses a serialized snapshot, validating the version.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snap.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d: %w", snap.Version, domain.ErrSnapshotVersion)
	}
	return &snap, nil
}
