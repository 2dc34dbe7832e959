// Package worker executes one domain task: resolve the sub-query against the
// domain's partition of the index, extract fields from each candidate, and
// hand back a typed result. A worker only ever sees its own partition.
package worker

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/crossdex/internal/domain"
	"github.com/kailas-cloud/crossdex/internal/logger"
	"github.com/kailas-cloud/crossdex/internal/metrics"
)

// Service runs domain tasks against the shared index.
type Service struct {
	index         Index
	extractor     Extractor
	registry      Registry // optional; nil accepts any domain id
	maxCandidates int
}

// New creates a domain worker service.
func New(index Index, extractor Extractor, maxCandidates int) *Service {
	return &Service{index: index, extractor: extractor, maxCandidates: maxCandidates}
}

// WithRegistry makes the worker reject domain ids the registry does not
// know. A classifier implementation outside this module can emit arbitrary
// ids; the worker guards the partition boundary itself.
func (s *Service) WithRegistry(registry Registry) *Service {
	s.registry = registry
	return s
}

// Execute answers a sub-query within a single domain. The returned result is
// always typed: success when at least one candidate yielded fields, no_data
// when the partition holds nothing matching, error when every candidate
// failed extraction. A single bad document never fails the domain; it is
// recorded as a note and the remaining candidates still run. A Go error
// comes back only for context cancellation, an unready index, or a domain
// id outside the registry.
func (s *Service) Execute(ctx context.Context, domainID, subQuery string) (*domain.DomainResult, error) {
	if s.registry != nil && !s.registry.Known(domainID) {
		return nil, fmt.Errorf("%s: %w", domainID, domain.ErrUnknownDomain)
	}
	if !s.index.Ready() {
		return nil, domain.ErrIndexNotReady
	}

	start := time.Now()
	defer func() {
		metrics.DomainTaskDuration.WithLabelValues(domainID).Observe(time.Since(start).Seconds())
	}()

	log := logger.FromContext(ctx)

	candidates := s.index.Lookup(subQuery, domainID, s.maxCandidates)
	if len(candidates) == 0 {
		log.Info("domain holds no matching records",
			zap.String("domain", domainID),
			zap.String("sub_query", subQuery),
		)
		return &domain.DomainResult{Domain: domainID, Status: domain.ResultNoData}, nil
	}

	result := &domain.DomainResult{Domain: domainID}
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		fields, err := s.extractor.Extract(ctx, c.Record)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Warn("candidate failed extraction",
				zap.String("domain", domainID),
				zap.String("location", c.Record.Location),
				zap.Error(err),
			)
			result.Notes = append(result.Notes, domain.ExtractionNote{
				Location: c.Record.Location,
				Reason:   err.Error(),
			})
			continue
		}

		result.Documents = append(result.Documents, c.Record.Location)
		result.Fields = append(result.Fields, fields...)
	}

	if len(result.Documents) > 0 {
		result.Status = domain.ResultSuccess
	} else {
		result.Status = domain.ResultError
	}

	log.Info("domain task finished",
		zap.String("domain", domainID),
		zap.String("status", string(result.Status)),
		zap.Int("documents", len(result.Documents)),
		zap.Int("fields", len(result.Fields)),
		zap.Int("failed_candidates", len(result.Notes)),
	)
	return result, nil
}
