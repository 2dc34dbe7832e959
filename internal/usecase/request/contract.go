package request

import (
	"context"

	"github.com/kailas-cloud/crossdex/internal/domain"
	"github.com/kailas-cloud/crossdex/internal/registry"
)

// Classifier maps free text onto the required domain set. Implementations
// must be total: an unclassifiable request falls back, it never errors out
// of routing entirely.
type Classifier interface {
	Classify(ctx context.Context, text string) (registry.Classification, error)
	SubQuery(domain, text string, matched []string) string
}

// Worker executes one domain task and hands back a typed result.
type Worker interface {
	Execute(ctx context.Context, domainID, subQuery string) (*domain.DomainResult, error)
}

// StateStore persists the request state machine on every transition.
type StateStore interface {
	Save(ctx context.Context, req *domain.Request) error
	Get(ctx context.Context, id string) (*domain.Request, error)
	List(ctx context.Context) ([]*domain.Request, error)
}

// Aggregator synthesizes terminal domain tasks into the final report payload.
type Aggregator interface {
	Aggregate(req *domain.Request) *domain.AggregatedResult
}
