package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the crossdex configuration.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	Database    DatabaseConfig    `yaml:"database"`
	Index       IndexConfig       `yaml:"index"`
	Coordinator CoordinatorConfig `yaml:"coordinator"`
	Registry    RegistryConfig    `yaml:"registry"`
	Classifier  ClassifierConfig  `yaml:"classifier"`
	Auth        AuthConfig        `yaml:"auth"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds database connection settings. The database persists
// the index snapshot and per-request coordinator state; the `crossdex ask`
// CLI path can run without it (file snapshot, in-memory state).
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// PartitionConfig maps one domain id to its source location root.
type PartitionConfig struct {
	Domain string `yaml:"domain"`
	Root   string `yaml:"root"`
}

// IndexConfig holds document resolution index settings.
type IndexConfig struct {
	Partitions    []PartitionConfig `yaml:"partitions"`
	SnapshotPath  string            `yaml:"snapshot_path"` // file snapshot (CLI)
	KeyPrefix     string            `yaml:"key_prefix"`    // store snapshot (server)
	MaxCandidates int               `yaml:"max_candidates"`
}

// CoordinatorConfig holds orchestration settings.
type CoordinatorConfig struct {
	DomainTimeoutSec int  `yaml:"domain_timeout_sec"`
	Parallel         bool `yaml:"parallel"`
}

// RegistryConfig holds capability registry settings.
type RegistryConfig struct {
	DefaultDomain string `yaml:"default_domain"`
}

// ClassifierConfig holds the optional LLM classifier settings. When APIKey is
// empty the deterministic keyword classifier is used alone.
type ClassifierConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		// Reports wait on per-domain extraction; keep this above the domain timeout.
		c.HTTP.WriteTimeoutSec = 120
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Index.KeyPrefix == "" {
		c.Index.KeyPrefix = "crossdex:"
	}
	if c.Index.SnapshotPath == "" {
		c.Index.SnapshotPath = "crossdex-index.json"
	}
	if c.Index.MaxCandidates <= 0 {
		c.Index.MaxCandidates = 50
	}
	if c.Coordinator.DomainTimeoutSec <= 0 {
		// Generous: one domain may extract from several documents.
		c.Coordinator.DomainTimeoutSec = 30
	}
	if c.Registry.DefaultDomain == "" {
		c.Registry.DefaultDomain = "dms"
	}
	if c.Classifier.Model == "" {
		c.Classifier.Model = "gpt-4o-mini"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port != 0 && (c.HTTP.Port <= 0 || c.HTTP.Port > 65535) {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	seen := make(map[string]struct{}, len(c.Index.Partitions))
	for _, p := range c.Index.Partitions {
		if p.Domain == "" || p.Root == "" {
			return fmt.Errorf("index.partitions entries require both domain and root")
		}
		if _, dup := seen[p.Domain]; dup {
			return fmt.Errorf("index.partitions has duplicate domain %q", p.Domain)
		}
		seen[p.Domain] = struct{}{}
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
