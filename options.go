package ragdex

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver     string // "memory", "valkey" or "redis"
	addrs      []string
	password   string
	standalone bool
	keyPrefix  string

	hnswM           int
	hnswEFConstruct int

	registryDSN string

	apiKey         string
	baseURL        string
	embeddingModel string
	dimensions     int
	chatModel      string

	embedder  Embedder
	completer Completer

	chunkSize       int
	chunkOverlap    int
	topK            int
	maxContextChars int
	maxHistory      int
	temperature     float32
	rewrite         bool

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithValkey stores vectors in a Valkey instance with the search module.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "valkey"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithRedis stores vectors in a Redis Stack instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithStandalone disables cluster topology discovery.
func WithStandalone() Option {
	return optionFunc(func(c *clientConfig) {
		c.standalone = true
	})
}

// WithKeyPrefix sets the key prefix of the remote index. Default: "ragdex:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithHNSW configures HNSW parameters of the remote index.
func WithHNSW(m, efConstruct int) Option {
	return optionFunc(func(c *clientConfig) {
		c.hnswM = m
		c.hnswEFConstruct = efConstruct
	})
}

// WithRegistry keeps the document registry and chat history in a SQLite
// file instead of memory.
func WithRegistry(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.registryDSN = path
	})
}

// WithOpenAI uses an OpenAI-compatible API for embeddings and answers.
// An empty baseURL means api.openai.com.
func WithOpenAI(apiKey, baseURL string) Option {
	return optionFunc(func(c *clientConfig) {
		c.apiKey = apiKey
		c.baseURL = baseURL
	})
}

// WithEmbeddingModel sets the embedding model and its output dimensions.
// dims <= 0 uses the model default. Default model: text-embedding-3-small.
func WithEmbeddingModel(model string, dims int) Option {
	return optionFunc(func(c *clientConfig) {
		c.embeddingModel = model
		c.dimensions = dims
	})
}

// WithChatModel sets the language model. Required with WithOpenAI
// unless WithCompleter is given.
func WithChatModel(model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.chatModel = model
	})
}

// WithEmbedder replaces the OpenAI embedder.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithCompleter replaces the OpenAI language model.
func WithCompleter(l Completer) Option {
	return optionFunc(func(c *clientConfig) {
		c.completer = l
	})
}

// WithChunking sets chunk size and overlap in characters. Defaults: 1000 and 200.
func WithChunking(size, overlap int) Option {
	return optionFunc(func(c *clientConfig) {
		c.chunkSize = size
		c.chunkOverlap = overlap
	})
}

// WithTopK sets how many chunks are retrieved per question. Default: 5.
func WithTopK(k int) Option {
	return optionFunc(func(c *clientConfig) {
		c.topK = k
	})
}

// WithMaxContextChars bounds the retrieved context handed to the model. Default: 3000.
func WithMaxContextChars(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxContextChars = n
	})
}

// WithMaxHistory sets how many past turns the model sees. Default: 10.
func WithMaxHistory(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxHistory = n
	})
}

// WithTemperature sets the sampling temperature of rewrite and answer calls.
func WithTemperature(t float32) Option {
	return optionFunc(func(c *clientConfig) {
		c.temperature = t
	})
}

// WithoutRewrite searches with the raw question instead of a rewritten query.
func WithoutRewrite() Option {
	return optionFunc(func(c *clientConfig) {
		c.rewrite = false
	})
}

// WithLogger enables structured logging for client operations.
// Pass nil to disable (default).
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers client metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
