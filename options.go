package crossdex

import (
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/crossdex/internal/index"
)

// Option configures the Client.
type Option func(*clientConfig)

type clientConfig struct {
	partitions    []index.Partition
	snapshotPath  string
	defaultDomain string
	timeout       time.Duration
	parallel      bool
	maxCandidates int
	openAIKey     string
	openAIBaseURL string
	openAIModel   string
	logger        *zap.Logger
}

// WithPartition registers one domain partition root. Repeatable.
func WithPartition(domain, root string) Option {
	return func(c *clientConfig) {
		c.partitions = append(c.partitions, index.Partition{Domain: domain, Root: root})
	}
}

// WithSnapshotFile enables snapshot persistence at the given path.
func WithSnapshotFile(path string) Option {
	return func(c *clientConfig) {
		c.snapshotPath = path
	}
}

// WithDefaultDomain sets the fallback domain for unclassifiable queries.
// Default is "dms".
func WithDefaultDomain(domain string) Option {
	return func(c *clientConfig) {
		c.defaultDomain = domain
	}
}

// WithDomainTimeout bounds each domain task. Default is 30s.
func WithDomainTimeout(d time.Duration) Option {
	return func(c *clientConfig) {
		c.timeout = d
	}
}

// WithParallel dispatches independent domain tasks concurrently.
func WithParallel() Option {
	return func(c *clientConfig) {
		c.parallel = true
	}
}

// WithMaxCandidates caps how many index hits a domain worker extracts from.
// Default is 50.
func WithMaxCandidates(n int) Option {
	return func(c *clientConfig) {
		c.maxCandidates = n
	}
}

// WithOpenAI enables LLM-backed classification. Without it the deterministic
// keyword classifier is used alone.
func WithOpenAI(apiKey, baseURL, model string) Option {
	return func(c *clientConfig) {
		c.openAIKey = apiKey
		c.openAIBaseURL = baseURL
		c.openAIModel = model
	}
}

// WithLogger sets the logger. Default is a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *clientConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}
