package worker

import (
	"context"

	"github.com/kailas-cloud/crossdex/internal/domain"
)

// Index resolves a query to ranked document candidates within one domain
// partition.
type Index interface {
	Lookup(query, scope string, limit int) []domain.Candidate
	Ready() bool
}

// Extractor parses a resolved document into structured fields.
type Extractor interface {
	Extract(ctx context.Context, rec domain.DocumentRecord) ([]domain.Field, error)
}

// Registry answers whether a domain id is serviceable.
type Registry interface {
	Known(domain string) bool
}
