package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

// Index drivers.
const (
	DriverMemory = "memory"
	DriverValkey = "valkey"
	DriverRedis  = "redis"
)

// Config holds the ragdex server configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Index     IndexConfig     `yaml:"index"`
	Registry  RegistryConfig  `yaml:"registry"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
	RAG       RAGConfig       `yaml:"rag"`
	Session   SessionConfig   `yaml:"session"`
	Upload    UploadConfig    `yaml:"upload"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// IndexConfig selects and tunes the vector index backend.
type IndexConfig struct {
	Driver           string   `yaml:"driver"` // memory (default), valkey, redis
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	Standalone       bool     `yaml:"standalone"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	KeyPrefix        string   `yaml:"key_prefix"`
	HNSWM            int      `yaml:"hnsw_m"`
	HNSWEFConstruct  int      `yaml:"hnsw_ef_construction"`
}

// Remote reports whether the index lives in Redis or Valkey.
func (c IndexConfig) Remote() bool {
	return c.Driver == DriverValkey || c.Driver == DriverRedis
}

// RegistryConfig holds the SQLite document registry settings.
type RegistryConfig struct {
	DSN string `yaml:"dsn"` // file path or ":memory:"
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider            string       `yaml:"provider"`
	APIKey              string       `yaml:"api_key"`
	BaseURL             string       `yaml:"base_url"`
	Model               string       `yaml:"model"`
	Dimensions          int          `yaml:"dimensions"`
	DocumentInstruction string       `yaml:"document_instruction"`
	QueryInstruction    string       `yaml:"query_instruction"`
	TimeoutSec          int          `yaml:"timeout_sec"`
	Rate                float64      `yaml:"rate"` // requests per second, 0 = unlimited
	Burst               int          `yaml:"burst"`
	MaxBatchSize        int          `yaml:"max_batch_size"`
	Cache               CacheConfig  `yaml:"cache"`
	Budget              BudgetConfig `yaml:"budget"`
}

// CacheConfig holds the embedding cache settings. The cache needs a remote index.
type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
	TTLSec  int  `yaml:"ttl_sec"` // 0 = no expiry
}

// BudgetConfig holds token budget settings.
type BudgetConfig struct {
	DailyTokenLimit   int64  `yaml:"daily_token_limit"`   // 0 = unlimited
	MonthlyTokenLimit int64  `yaml:"monthly_token_limit"` // 0 = unlimited
	Action            string `yaml:"action"`              // "reject" | "warn" (default)
}

// LLMConfig holds chat completion provider settings.
type LLMConfig struct {
	Provider    string  `yaml:"provider"`
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	Temperature float32 `yaml:"temperature"`
	TimeoutSec  int     `yaml:"timeout_sec"`
	Rate        float64 `yaml:"rate"`
	Burst       int     `yaml:"burst"`
}

// RAGConfig holds the pipeline tunables.
type RAGConfig struct {
	ChunkSize       int   `yaml:"chunk_size"`
	ChunkOverlap    int   `yaml:"chunk_overlap"`
	TopK            int   `yaml:"top_k"`
	MaxContextChars int   `yaml:"max_context_chars"`
	MaxHistory      int   `yaml:"max_history"`
	Rewrite         *bool `yaml:"rewrite"` // nil = enabled
}

// RewriteEnabled reports whether queries are rewritten before retrieval.
func (c RAGConfig) RewriteEnabled() bool {
	return c.Rewrite == nil || *c.Rewrite
}

// SessionConfig holds idle scope reclamation settings.
type SessionConfig struct {
	TTLSec          int `yaml:"ttl_sec"` // 0 = never reclaim
	ReapIntervalSec int `yaml:"reap_interval_sec"`
}

// UploadConfig holds upload limits.
type UploadConfig struct {
	MaxBytes int64 `yaml:"max_bytes"`
}

// Pipeline converts the rag section into the domain tunables.
func (c *Config) Pipeline() domain.PipelineConfig {
	return domain.PipelineConfig{
		ChunkSize:       c.RAG.ChunkSize,
		ChunkOverlap:    c.RAG.ChunkOverlap,
		TopK:            c.RAG.TopK,
		MaxContextChars: c.RAG.MaxContextChars,
		MaxHistory:      c.RAG.MaxHistory,
		Temperature:     c.LLM.Temperature,
		ProviderTimeout: time.Duration(c.LLM.TimeoutSec) * time.Second,
	}
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
// A .env file in the working directory is loaded first when present.
func Load(env string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse expands env variables, decodes YAML, applies defaults and validates.
func Parse(data []byte) (Config, error) {
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

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 30
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 180 // a chat turn is two provider calls
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}

	if c.Index.Driver == "" {
		c.Index.Driver = DriverMemory
	}
	if c.Index.ReadinessTimeout <= 0 {
		c.Index.ReadinessTimeout = 10
	}
	if c.Index.KeyPrefix == "" {
		c.Index.KeyPrefix = "ragdex:"
	}
	if c.Index.HNSWM <= 0 {
		c.Index.HNSWM = 16
	}
	if c.Index.HNSWEFConstruct <= 0 {
		c.Index.HNSWEFConstruct = 200
	}

	if c.Registry.DSN == "" {
		c.Registry.DSN = ":memory:"
	}

	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}
	if c.Embedding.TimeoutSec <= 0 {
		c.Embedding.TimeoutSec = 60
	}
	if c.Embedding.MaxBatchSize <= 0 {
		c.Embedding.MaxBatchSize = 256
	}

	if c.LLM.Provider == "" {
		c.LLM.Provider = "openrouter"
	}
	if c.LLM.TimeoutSec <= 0 {
		c.LLM.TimeoutSec = 60
	}

	d := domain.DefaultPipelineConfig()
	if c.LLM.Temperature <= 0 {
		c.LLM.Temperature = d.Temperature
	}
	if c.RAG.ChunkSize == 0 {
		c.RAG.ChunkSize = d.ChunkSize
	}
	if c.RAG.ChunkOverlap == 0 {
		c.RAG.ChunkOverlap = d.ChunkOverlap
	}
	if c.RAG.TopK == 0 {
		c.RAG.TopK = d.TopK
	}
	if c.RAG.MaxContextChars == 0 {
		c.RAG.MaxContextChars = d.MaxContextChars
	}
	if c.RAG.MaxHistory == 0 {
		c.RAG.MaxHistory = d.MaxHistory
	}

	if c.Session.ReapIntervalSec <= 0 {
		c.Session.ReapIntervalSec = 60
	}
	if c.Upload.MaxBytes <= 0 {
		c.Upload.MaxBytes = 32 << 20
	}
}

// Validate checks the configuration for correctness. Errors wrap domain.ErrConfiguration.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("%w: http.port must be between 1 and 65535, got %d",
			domain.ErrConfiguration, c.HTTP.Port)
	}

	switch c.Index.Driver {
	case DriverMemory:
	case DriverValkey, DriverRedis:
		if len(c.Index.Addrs) == 0 {
			return fmt.Errorf("%w: index.addrs is required for driver %q", domain.ErrConfiguration, c.Index.Driver)
		}
	default:
		return fmt.Errorf("%w: unknown index.driver %q", domain.ErrConfiguration, c.Index.Driver)
	}

	if c.Embedding.APIKey == "" {
		return fmt.Errorf("%w: embedding.api_key is required", domain.ErrConfiguration)
	}
	if c.Embedding.Dimensions < 0 {
		return fmt.Errorf("%w: embedding.dimensions must not be negative", domain.ErrConfiguration)
	}
	if c.Embedding.Cache.Enabled && !c.Index.Remote() {
		return fmt.Errorf("%w: embedding.cache requires a valkey or redis index", domain.ErrConfiguration)
	}
	switch c.Embedding.Budget.Action {
	case "", "warn", "reject":
	default:
		return fmt.Errorf("%w: embedding.budget.action must be \"warn\" or \"reject\", got %q",
			domain.ErrConfiguration, c.Embedding.Budget.Action)
	}

	if c.LLM.APIKey == "" {
		return fmt.Errorf("%w: llm.api_key is required", domain.ErrConfiguration)
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("%w: llm.model is required", domain.ErrConfiguration)
	}

	if c.RAG.ChunkSize <= 0 {
		return fmt.Errorf("%w: rag.chunk_size must be positive, got %d", domain.ErrConfiguration, c.RAG.ChunkSize)
	}
	if c.RAG.ChunkOverlap < 0 || c.RAG.ChunkOverlap >= c.RAG.ChunkSize {
		return fmt.Errorf("%w: rag.chunk_overlap must be in [0, chunk_size), got %d",
			domain.ErrConfiguration, c.RAG.ChunkOverlap)
	}
	if c.RAG.TopK < 0 || c.RAG.MaxContextChars < 0 || c.RAG.MaxHistory < 0 {
		return fmt.Errorf("%w: rag limits must not be negative", domain.ErrConfiguration)
	}
	if c.Session.TTLSec < 0 {
		return fmt.Errorf("%w: session.ttl_sec must not be negative", domain.ErrConfiguration)
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
