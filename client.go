// Package crossdex is the embedded SDK: the full query pipeline (capability
// registry, resolution index, domain worker, coordinator) wired in-process,
// with no HTTP server or database required.
package crossdex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/crossdex/internal/extractor"
	"github.com/kailas-cloud/crossdex/internal/index"
	"github.com/kailas-cloud/crossdex/internal/registry"
	"github.com/kailas-cloud/crossdex/internal/renderer"
	"github.com/kailas-cloud/crossdex/internal/repository/snapshot"
	openaiTransport "github.com/kailas-cloud/crossdex/internal/transport/openai"
	indexeruc "github.com/kailas-cloud/crossdex/internal/usecase/indexer"
	reportuc "github.com/kailas-cloud/crossdex/internal/usecase/report"
	requestuc "github.com/kailas-cloud/crossdex/internal/usecase/request"
	workeruc "github.com/kailas-cloud/crossdex/internal/usecase/worker"
)

const defaultDomainTimeout = 30 * time.Second

// Client is the crossdex SDK entry point.
type Client struct {
	requests *requestuc.Service
	indexer  *indexeruc.Service
	index    *index.Index
	renderer *renderer.Markdown
}

// New creates a crossdex Client over the configured partitions. The index is
// empty until Rebuild or Restore is called.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		defaultDomain: "dms",
		timeout:       defaultDomainTimeout,
		maxCandidates: 50,
		logger:        zap.NewNop(),
	}
	for _, o := range opts {
		o(cfg)
	}

	if len(cfg.partitions) == 0 {
		return nil, errors.New("crossdex: at least one partition required (use WithPartition)")
	}

	reg, err := registry.New(cfg.defaultDomain, registry.DefaultCapabilities()...)
	if err != nil {
		return nil, fmt.Errorf("crossdex: build registry: %w", err)
	}

	var classifier requestuc.Classifier = &registryClassifier{registry: reg}
	if cfg.openAIKey != "" {
		classifier = openaiTransport.NewClassifier(&openaiTransport.Config{
			APIKey:  cfg.openAIKey,
			BaseURL: cfg.openAIBaseURL,
			Model:   cfg.openAIModel,
			Logger:  cfg.logger,
		}, reg)
	}

	idx := index.New()
	builder := index.NewBuilder(cfg.partitions, cfg.logger)

	var snaps indexeruc.SnapshotStore
	if cfg.snapshotPath != "" {
		snaps = snapshot.NewFile(cfg.snapshotPath)
	}

	worker := workeruc.New(idx, extractor.NewText(), cfg.maxCandidates).WithRegistry(reg)
	requests := requestuc.New(classifier, worker, reportuc.New(), cfg.timeout).
		WithParallel(cfg.parallel)

	return &Client{
		requests: requests,
		indexer:  indexeruc.New(builder, idx, snaps),
		index:    idx,
		renderer: renderer.NewMarkdown(),
	}, nil
}

// Rebuild scans every partition and installs the fresh index.
func (c *Client) Rebuild(ctx context.Context) (RebuildStats, error) {
	stats, err := c.indexer.Rebuild(ctx)
	if err != nil {
		return RebuildStats{}, fmt.Errorf("rebuild: %w", err)
	}
	return RebuildStats{
		Records:         stats.Records,
		Inconsistencies: stats.Inconsistencies,
	}, nil
}

// Restore loads the index from the snapshot file without rescanning.
func (c *Client) Restore(ctx context.Context) error {
	if err := c.indexer.Restore(ctx); err != nil {
		return fmt.Errorf("restore: %w", err)
	}
	return nil
}

// Ask runs one query through the pipeline and returns the synthesized report.
// A report is returned whenever the request reaches a terminal state, even
// when it only contains gaps.
func (c *Client) Ask(ctx context.Context, query string) (*Report, error) {
	req, err := c.requests.Submit(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ask: %w", err)
	}
	res, err := c.requests.Aggregate(req)
	if err != nil {
		return nil, fmt.Errorf("ask: %w", err)
	}
	return fromAggregated(res), nil
}

// Markdown renders a report as a markdown document.
func (c *Client) Markdown(rep *Report) string {
	return c.renderer.Render(toAggregated(rep))
}

// Inconsistencies lists canonical key collisions found during the last build.
func (c *Client) Inconsistencies() []IndexConflict {
	incons := c.indexer.Inconsistencies()
	out := make([]IndexConflict, len(incons))
	for i, inc := range incons {
		out[i] = IndexConflict{
			Key:       inc.Key.String(),
			Locations: append([]string(nil), inc.Locations...),
		}
	}
	return out
}

// Batches lists every batch identifier known to the index.
func (c *Client) Batches() []string { return c.index.Batches() }

// Materials lists every material known to the index.
func (c *Client) Materials() []string { return c.index.Materials() }

// registryClassifier adapts the keyword registry to the coordinator's
// classifier contract.
type registryClassifier struct {
	registry *registry.Registry
}

func (c *registryClassifier) Classify(_ context.Context, text string) (registry.Classification, error) {
	return c.registry.Classify(text), nil
}

func (c *registryClassifier) SubQuery(domain, text string, matched []string) string {
	return c.registry.SubQuery(domain, text, matched)
}
