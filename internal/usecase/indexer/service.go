// Package indexer maintains the resolution index lifecycle: full rebuilds
// from the partition roots, snapshot persistence, and restore on startup.
package indexer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/crossdex/internal/domain"
	"github.com/kailas-cloud/crossdex/internal/logger"
	"github.com/kailas-cloud/crossdex/internal/metrics"
)

// Stats summarizes one rebuild.
type Stats struct {
	Records         int           `json:"records"`
	Inconsistencies int           `json:"inconsistencies"`
	Duration        time.Duration `json:"-"`
}

// Service owns index rebuilds and snapshot round-trips.
type Service struct {
	builder Builder
	index   Index
	snaps   SnapshotStore // optional; nil skips persistence
}

// New creates an indexer service.
func New(builder Builder, index Index, snaps SnapshotStore) *Service {
	return &Service{builder: builder, index: index, snaps: snaps}
}

// Rebuild scans every partition, installs the fresh mapping, and persists a
// snapshot. A rebuild over an unchanged source set is idempotent.
func (s *Service) Rebuild(ctx context.Context) (Stats, error) {
	start := time.Now()

	records, incons, err := s.builder.Build(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("rebuild index: %w", err)
	}
	s.index.Replace(records, incons)

	stats := Stats{
		Records:         len(records),
		Inconsistencies: len(incons),
		Duration:        time.Since(start),
	}
	metrics.IndexRebuildDuration.Observe(stats.Duration.Seconds())

	if s.snaps != nil {
		if err := s.snaps.Save(ctx, s.index.Snapshot()); err != nil {
			return stats, err
		}
	}

	logger.FromContext(ctx).Info("index rebuilt",
		zap.Int("records", stats.Records),
		zap.Int("inconsistencies", stats.Inconsistencies),
		zap.Duration("duration", stats.Duration),
	)
	return stats, nil
}

// Restore loads the persisted snapshot into the index. Returns
// domain.ErrIndexNotReady when no snapshot exists yet.
func (s *Service) Restore(ctx context.Context) error {
	if s.snaps == nil {
		return domain.ErrIndexNotReady
	}
	snap, err := s.snaps.Load(ctx)
	if err != nil {
		return err
	}
	if err := s.index.LoadSnapshot(snap); err != nil {
		return err
	}

	logger.FromContext(ctx).Info("index restored from snapshot",
		zap.Int("records", s.index.Len()),
	)
	return nil
}

// Refresh rescans the partitions and merges into the current mapping without
// invalidating existing entries: records restored from a snapshot survive,
// files added since the snapshot appear, and key collisions between the two
// are recorded as inconsistencies. The merged state is persisted.
func (s *Service) Refresh(ctx context.Context) (Stats, error) {
	start := time.Now()

	records, incons, err := s.builder.Build(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("refresh index: %w", err)
	}
	s.index.Merge(records, incons)

	stats := Stats{
		Records:         s.index.Len(),
		Inconsistencies: len(s.index.Inconsistencies()),
		Duration:        time.Since(start),
	}

	if s.snaps != nil {
		if err := s.snaps.Save(ctx, s.index.Snapshot()); err != nil {
			return stats, err
		}
	}

	logger.FromContext(ctx).Info("index refreshed",
		zap.Int("records", stats.Records),
		zap.Int("inconsistencies", stats.Inconsistencies),
		zap.Duration("duration", stats.Duration),
	)
	return stats, nil
}

// Inconsistencies lists duplicate canonical keys from the current mapping.
func (s *Service) Inconsistencies() []domain.Inconsistency {
	return s.index.Inconsistencies()
}
