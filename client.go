package ragdex

import (
	"context"
	"errors"
	"fmt"
	"time"

	dbRedis "github.com/kailas-cloud/ragdex/internal/db/redis"
	"github.com/kailas-cloud/ragdex/internal/db/sqlite"
	"github.com/kailas-cloud/ragdex/internal/domain"
	dombatch "github.com/kailas-cloud/ragdex/internal/domain/batch"
	"github.com/kailas-cloud/ragdex/internal/domain/conversation"
	domdoc "github.com/kailas-cloud/ragdex/internal/domain/document"
	"github.com/kailas-cloud/ragdex/internal/extract"
	documentrepo "github.com/kailas-cloud/ragdex/internal/repository/document"
	historyrepo "github.com/kailas-cloud/ragdex/internal/repository/history"
	memindex "github.com/kailas-cloud/ragdex/internal/repository/vectorindex/memory"
	redisindex "github.com/kailas-cloud/ragdex/internal/repository/vectorindex/redis"
	openaiTransport "github.com/kailas-cloud/ragdex/internal/transport/openai"
	answeruc "github.com/kailas-cloud/ragdex/internal/usecase/answer"
	chatuc "github.com/kailas-cloud/ragdex/internal/usecase/chat"
	healthuc "github.com/kailas-cloud/ragdex/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/ragdex/internal/usecase/ingest"
	retrievaluc "github.com/kailas-cloud/ragdex/internal/usecase/retrieval"
	rewriteuc "github.com/kailas-cloud/ragdex/internal/usecase/rewrite"
	sessionuc "github.com/kailas-cloud/ragdex/internal/usecase/session"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultEmbeddingModel   = "text-embedding-3-small"
	defaultKeyPrefix        = "ragdex:"
	defaultHistoryLimit     = 50
)

// Internal interfaces, swapped out in tests.
type ingestUseCase interface {
	Upload(ctx context.Context, scope string, files []ingestuc.File) []dombatch.Result
}

type sessionUseCase interface {
	Stats(ctx context.Context, scope string) (sessionuc.Stats, error)
	Documents(ctx context.Context, scope string) ([]domdoc.Document, error)
	Clear(ctx context.Context, scope string) (int, error)
	DeleteDocument(ctx context.Context, scope, docID string) (int, error)
	History(ctx context.Context, scope string, limit int) ([]conversation.Turn, error)
	ClearHistory(ctx context.Context, scope string) (int, error)
}

type chatUseCase interface {
	Ask(ctx context.Context, scope, message string) (chatuc.Reply, error)
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

type vectorIndex interface {
	ingestuc.Index
	retrievaluc.Index
	sessionuc.Index
	Ping(ctx context.Context) error
}

// Client is the ragdex entry point. It is safe for concurrent use.
type Client struct {
	store    *dbRedis.Store
	registry *sqlite.DB

	ingest   ingestUseCase
	sessions sessionUseCase
	chat     chatUseCase
	health   healthUseCase
	obs      *observer
}

// New wires the pipeline. The context bounds the readiness wait of a
// remote index and the registry setup.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	pc := domain.DefaultPipelineConfig()
	cfg := &clientConfig{
		driver:          "memory",
		keyPrefix:       defaultKeyPrefix,
		registryDSN:     sqlite.MemoryPath,
		embeddingModel:  defaultEmbeddingModel,
		chunkSize:       pc.ChunkSize,
		chunkOverlap:    pc.ChunkOverlap,
		topK:            pc.TopK,
		maxContextChars: pc.MaxContextChars,
		maxHistory:      pc.MaxHistory,
		temperature:     pc.Temperature,
		rewrite:         true,
	}
	for _, o := range opts {
		o.apply(cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	c := &Client{obs: obs}
	index, err := c.openIndex(ctx, cfg)
	if err != nil {
		c.Close()
		return nil, err
	}
	registry, err := sqlite.Open(ctx, cfg.registryDSN)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("ragdex: open registry: %w", err)
	}
	c.registry = registry

	c.wire(cfg, index)
	return c, nil
}

func (cfg *clientConfig) validate() error {
	switch {
	case cfg.chunkSize <= 0:
		return fmt.Errorf("ragdex: %w: chunk size must be positive", domain.ErrConfiguration)
	case cfg.chunkOverlap < 0 || cfg.chunkOverlap >= cfg.chunkSize:
		return fmt.Errorf("ragdex: %w: chunk overlap must be in [0, chunk size)", domain.ErrConfiguration)
	case cfg.topK <= 0:
		return fmt.Errorf("ragdex: %w: top-k must be positive", domain.ErrConfiguration)
	case cfg.maxContextChars < 0 || cfg.maxHistory < 0:
		return fmt.Errorf("ragdex: %w: limits must not be negative", domain.ErrConfiguration)
	case cfg.embedder == nil && cfg.apiKey == "":
		return fmt.Errorf("ragdex: %w: embedder required (use WithOpenAI or WithEmbedder)", domain.ErrConfiguration)
	case cfg.completer == nil && (cfg.apiKey == "" || cfg.chatModel == ""):
		return fmt.Errorf(
			"ragdex: %w: language model required (use WithOpenAI and WithChatModel, or WithCompleter)",
			domain.ErrConfiguration,
		)
	}
	return nil
}

func (c *Client) openIndex(ctx context.Context, cfg *clientConfig) (vectorIndex, error) {
	switch cfg.driver {
	case "memory":
		return memindex.New(), nil
	case "valkey", "redis":
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:      cfg.addrs,
			Password:   cfg.password,
			Standalone: cfg.standalone,
		})
		if err != nil {
			return nil, fmt.Errorf("ragdex: create %s store: %w", cfg.driver, err)
		}
		c.store = store
		if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
			return nil, fmt.Errorf("ragdex: %s not ready: %w", cfg.driver, err)
		}
		idx := redisindex.New(store, cfg.keyPrefix)
		if cfg.hnswM > 0 || cfg.hnswEFConstruct > 0 {
			idx = idx.WithHNSW(redisindex.HNSWConfig{M: cfg.hnswM, EFConstruct: cfg.hnswEFConstruct})
		}
		return idx, nil
	default:
		return nil, fmt.Errorf("ragdex: unknown driver %q", cfg.driver)
	}
}

func (c *Client) wire(cfg *clientConfig, index vectorIndex) {
	var emb domain.Embedder
	if cfg.embedder != nil {
		emb = adaptEmbedder(cfg.embedder)
	} else {
		emb = openaiTransport.NewEmbedder(&openaiTransport.Config{
			APIKey:     cfg.apiKey,
			BaseURL:    cfg.baseURL,
			Model:      cfg.embeddingModel,
			Dimensions: cfg.dimensions,
			Provider:   "openai",
		})
	}
	guard := domain.NewDimensionGuard(emb, cfg.dimensions)

	var llm domain.Completer
	if cfg.completer != nil {
		llm = &completerAdapter{inner: cfg.completer}
	} else {
		llm = openaiTransport.NewCompleter(&openaiTransport.Config{
			APIKey:   cfg.apiKey,
			BaseURL:  cfg.baseURL,
			Model:    cfg.chatModel,
			Provider: "openai",
		})
	}
	// Pass nil interface (not typed nil pointer!) when the model cannot be probed.
	var llmCheck healthuc.ProviderChecker
	if hc, ok := llm.(healthuc.ProviderChecker); ok {
		llmCheck = hc
	}

	pc := domain.PipelineConfig{
		ChunkSize:       cfg.chunkSize,
		ChunkOverlap:    cfg.chunkOverlap,
		TopK:            cfg.topK,
		MaxContextChars: cfg.maxContextChars,
		MaxHistory:      cfg.maxHistory,
		Temperature:     cfg.temperature,
	}
	docs := documentrepo.New(c.registry)
	history := historyrepo.New(c.registry)

	c.ingest = ingestuc.New(extract.NewRegistry(), guard, index, docs, pc, nil)
	c.sessions = sessionuc.New(index, docs, history, nil)
	c.chat = chatuc.New(
		retrievaluc.New(guard, index, nil),
		rewriteuc.New(llm, pc.Temperature, nil),
		answeruc.New(llm, pc.Temperature, nil),
		history,
		chatuc.ConfigFrom(pc, cfg.rewrite),
		nil,
	)
	c.health = healthuc.New(index, docs, guard, llmCheck)
}

// Close releases all resources.
func (c *Client) Close() {
	if c.registry != nil {
		_ = c.registry.Close()
	}
	if c.store != nil {
		c.store.Close()
	}
}

// Index extracts, chunks, embeds and stores files under session.
// Files are independent: one failure does not stop the others.
func (c *Client) Index(ctx context.Context, session string, files ...File) []IndexResult {
	start := time.Now()

	in := make([]ingestuc.File, len(files))
	for i, f := range files {
		in[i] = ingestuc.File{Name: f.Name, Data: f.Data}
	}

	results := c.ingest.Upload(ctx, session, in)
	out := make([]IndexResult, len(results))
	var errs []error
	for i, r := range results {
		out[i] = IndexResult{
			ID:         r.ID(),
			SourceName: r.SourceName(),
			Chunks:     r.Chunks(),
			Err:        r.Err(),
		}
		if r.Err() != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.SourceName(), r.Err()))
		}
	}

	c.obs.files(out)
	c.obs.observe("index", session, start, errors.Join(errs...))
	return out
}

// Ask answers question from the documents indexed under session and
// the session's conversation so far.
func (c *Client) Ask(ctx context.Context, session, question string) (_ Answer, err error) {
	start := time.Now()
	defer func() { c.obs.observe("ask", session, start, err) }()

	reply, err := c.chat.Ask(ctx, session, question)
	if err != nil {
		return Answer{}, fmt.Errorf("ask: %w", err)
	}

	sources := make([]Source, len(reply.Hits))
	for i, h := range reply.Hits {
		sources[i] = Source{
			ChunkID:    h.ChunkID(),
			DocID:      h.DocID(),
			SourceName: h.SourceName(),
			ChunkIndex: h.ChunkIndex(),
			Score:      h.Score(),
			Text:       h.Text(),
		}
	}
	return Answer{
		Text:     reply.Answer,
		Path:     string(reply.Path),
		Query:    reply.Query,
		RAGUsed:  reply.RAGUsed,
		Degraded: reply.Degraded,
		Sources:  sources,
	}, nil
}

// Documents lists the documents indexed under session.
func (c *Client) Documents(ctx context.Context, session string) (_ []DocumentInfo, err error) {
	start := time.Now()
	defer func() { c.obs.observe("documents", session, start, err) }()

	docs, err := c.sessions.Documents(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("documents: %w", err)
	}
	out := make([]DocumentInfo, len(docs))
	for i, d := range docs {
		out[i] = DocumentInfo{
			ID:         d.ID(),
			SourceName: d.SourceName(),
			Chunks:     d.ChunkCount(),
			ByteSize:   d.ByteSize(),
			UploadedAt: d.UploadedAt(),
		}
	}
	return out, nil
}

// DeleteDocument removes one document and its chunks. Returns ErrNotFound
// when session has no such document.
func (c *Client) DeleteDocument(ctx context.Context, session, docID string) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("delete_document", session, start, err) }()

	if _, err = c.sessions.DeleteDocument(ctx, session, docID); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// Clear removes every chunk and document of session and returns the number
// of documents removed. The conversation history is kept.
func (c *Client) Clear(ctx context.Context, session string) (_ int, err error) {
	start := time.Now()
	defer func() { c.obs.observe("clear", session, start, err) }()

	n, err := c.sessions.Clear(ctx, session)
	if err != nil {
		return 0, fmt.Errorf("clear: %w", err)
	}
	return n, nil
}

// Stats reports chunk, document and dimension counts of session.
func (c *Client) Stats(ctx context.Context, session string) (_ Stats, err error) {
	start := time.Now()
	defer func() { c.obs.observe("stats", session, start, err) }()

	st, err := c.sessions.Stats(ctx, session)
	if err != nil {
		return Stats{}, fmt.Errorf("stats: %w", err)
	}
	return Stats{
		Session:    st.Scope,
		Chunks:     st.ChunkCount,
		Dimensions: st.Dimensions,
		Documents:  st.DocumentCount,
	}, nil
}

// History returns up to limit most recent turns of session, oldest first.
// limit <= 0 means 50.
func (c *Client) History(ctx context.Context, session string, limit int) (_ []Turn, err error) {
	start := time.Now()
	defer func() { c.obs.observe("history", session, start, err) }()

	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	turns, err := c.sessions.History(ctx, session, limit)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	out := make([]Turn, len(turns))
	for i, t := range turns {
		out[i] = Turn{Role: t.Role(), Content: t.Content()}
	}
	return out, nil
}

// ClearHistory forgets the conversation of session but keeps its documents.
func (c *Client) ClearHistory(ctx context.Context, session string) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("clear_history", session, start, err) }()

	if _, err = c.sessions.ClearHistory(ctx, session); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

// Health checks the index, the registry and the providers.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.health.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{Status: string(report.Status), Checks: checks}
}
