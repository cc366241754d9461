package model

import "time"

// Config holds all runtime configuration.
//
// Hierarchy (highest to lowest priority):
//  1. CLI flags
//  2. Environment variables (DENIALGUARD_*, OPENAI_API_KEY, ...)
//  3. Config file (~/.denialguard/config.yaml)
//  4. Defaults
type Config struct {
	Database    DatabaseConfig    `yaml:"database" mapstructure:"database"`
	PolicyIndex PolicyIndexConfig `yaml:"policy_index" mapstructure:"policy_index"`
	Embedding   EmbeddingConfig   `yaml:"embedding" mapstructure:"embedding"`
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit" mapstructure:"rate_limit"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
}

// DatabaseConfig configures the rules database (NCCI alerts, NCD tracking,
// ICD crosswalk master).
type DatabaseConfig struct {
	DSN      string `yaml:"dsn" mapstructure:"dsn"`
	MaxConns int32  `yaml:"max_conns" mapstructure:"max_conns"`
}

// PolicyIndexConfig configures the policy excerpt vector index.
type PolicyIndexConfig struct {
	Path       string `yaml:"path" mapstructure:"path"` // sqlite database file
	Dimensions int    `yaml:"dimensions" mapstructure:"dimensions"`
	TopK       int    `yaml:"top_k" mapstructure:"top_k"` // per-collection hits
	MaxResults int    `yaml:"max_results" mapstructure:"max_results"`
}

// EmbeddingConfig configures the query embedding model.
type EmbeddingConfig struct {
	Model   string `yaml:"model" mapstructure:"model"`
	APIKey  string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"` // OpenAI-compatible endpoint
}

// LLMConfig configures the generative model used for denial reasoning and
// correction synthesis.
type LLMConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"` // seconds per generation call
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// ConcurrencyConfig bounds parallelism at each fan-out point.
type ConcurrencyConfig struct {
	IssueWorkers  int `yaml:"issue_workers" mapstructure:"issue_workers"`   // issues within a claim
	ClaimWorkers  int `yaml:"claim_workers" mapstructure:"claim_workers"`   // claims in a batch run
	SearchWorkers int `yaml:"search_workers" mapstructure:"search_workers"` // collections per retrieval
}

// RateLimitConfig caps request rates against the external model runtimes.
type RateLimitConfig struct {
	GeneratePerSecond float64 `yaml:"generate_per_second" mapstructure:"generate_per_second"`
	EmbedPerSecond    float64 `yaml:"embed_per_second" mapstructure:"embed_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
}

// CacheConfig configures crosswalk and embedding caches.
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"` // disk layer for embeddings
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Format string `yaml:"format" mapstructure:"format"` // "text" or "json"
	Level  string `yaml:"level" mapstructure:"level"`
}

// OutputConfig controls result rendering.
type OutputConfig struct {
	JSONPath string `yaml:"json_path" mapstructure:"json_path"`
	Verbose  bool   `yaml:"verbose" mapstructure:"verbose"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:      "", // DATABASE_URL or config file
			MaxConns: 4,
		},
		PolicyIndex: PolicyIndexConfig{
			Path:       "policy_index.db",
			Dimensions: 768,
			TopK:       3,
			MaxResults: 6,
		},
		Embedding: EmbeddingConfig{
			Model: "nomic-embed-text",
		},
		LLM: LLMConfig{
			Provider:  "",
			Model:     "",
			Timeout:   60, // per generation call; no retries
			MaxTokens: 2000,
		},
		Concurrency: ConcurrencyConfig{
			IssueWorkers:  2,
			ClaimWorkers:  2,
			SearchWorkers: 4,
		},
		RateLimit: RateLimitConfig{
			GeneratePerSecond: 1,
			EmbedPerSecond:    5,
			Burst:             2,
		},
		Cache: CacheConfig{
			Enabled:   true,
			MemoryTTL: 30 * time.Minute,
			DiskTTL:   7 * 24 * time.Hour,
		},
		Log: LogConfig{
			Format: "text",
			Level:  "info",
		},
		Output: OutputConfig{
			JSONPath: "corrections.json",
		},
	}
}
