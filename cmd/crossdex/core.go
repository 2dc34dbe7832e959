package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/crossdex/internal/config"
	"github.com/kailas-cloud/crossdex/internal/extractor"
	"github.com/kailas-cloud/crossdex/internal/index"
	logpkg "github.com/kailas-cloud/crossdex/internal/logger"
	"github.com/kailas-cloud/crossdex/internal/registry"
	openaiTransport "github.com/kailas-cloud/crossdex/internal/transport/openai"
	reportuc "github.com/kailas-cloud/crossdex/internal/usecase/report"
	requestuc "github.com/kailas-cloud/crossdex/internal/usecase/request"
	workeruc "github.com/kailas-cloud/crossdex/internal/usecase/worker"
)

// core is the composition root shared by the serve and ask commands.
type core struct {
	cfg      config.Config
	logger   *zap.Logger
	registry *registry.Registry
	index    *index.Index
	builder  *index.Builder
	requests *requestuc.Service
}

func loadEnv() string {
	if envName != "" {
		return envName
	}
	return config.GetEnv()
}

// buildCore loads configuration and assembles the query pipeline: capability
// registry, classifier, resolution index, domain worker, and coordinator.
func buildCore() (*core, error) {
	env := loadEnv()

	cfg, err := config.Load(env)
	if err != nil {
		return nil, err
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return nil, err
	}

	reg, err := registry.New(cfg.Registry.DefaultDomain, registry.DefaultCapabilities()...)
	if err != nil {
		return nil, err
	}

	partitions := make([]index.Partition, 0, len(cfg.Index.Partitions))
	for _, p := range cfg.Index.Partitions {
		partitions = append(partitions, index.Partition{Domain: p.Domain, Root: p.Root})
	}

	idx := index.New()
	builder := index.NewBuilder(partitions, logger)

	worker := workeruc.New(idx, extractor.NewText(), cfg.Index.MaxCandidates).WithRegistry(reg)

	requests := requestuc.New(
		newClassifier(cfg.Classifier, reg, logger),
		worker,
		reportuc.New(),
		time.Duration(cfg.Coordinator.DomainTimeoutSec)*time.Second,
	).WithParallel(cfg.Coordinator.Parallel)

	return &core{
		cfg:      cfg,
		logger:   logger,
		registry: reg,
		index:    idx,
		builder:  builder,
		requests: requests,
	}, nil
}

// newClassifier picks the LLM-backed classifier when an API key is
// configured and the deterministic registry classifier otherwise.
func newClassifier(cfg config.ClassifierConfig, reg *registry.Registry, logger *zap.Logger) requestuc.Classifier {
	if cfg.APIKey == "" {
		return &registryClassifier{registry: reg}
	}
	return openaiTransport.NewClassifier(&openaiTransport.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Logger:  logger,
	}, reg)
}

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
