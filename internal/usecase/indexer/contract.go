package indexer

import (
	"context"

	"github.com/kailas-cloud/crossdex/internal/domain"
	"github.com/kailas-cloud/crossdex/internal/index"
)

// Builder scans the partition roots into canonical records.
type Builder interface {
	Build(ctx context.Context) (map[string]domain.DocumentRecord, []domain.Inconsistency, error)
}

// Index is the mutable resolution index the service maintains.
type Index interface {
	Replace(records map[string]domain.DocumentRecord, incons []domain.Inconsistency)
	Merge(records map[string]domain.DocumentRecord, incons []domain.Inconsistency)
	Snapshot() *index.Snapshot
	LoadSnapshot(snap *index.Snapshot) error
	Inconsistencies() []domain.Inconsistency
	Len() int
}

// SnapshotStore persists snapshots between runs.
type SnapshotStore interface {
	Load(ctx context.Context) (*index.Snapshot, error)
	Save(ctx context.Context, snap *index.Snapshot) error
}
