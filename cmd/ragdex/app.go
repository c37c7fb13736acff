package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/config"
	dbRedis "github.com/kailas-cloud/ragdex/internal/db/redis"
	"github.com/kailas-cloud/ragdex/internal/db/sqlite"
	"github.com/kailas-cloud/ragdex/internal/domain"
	"github.com/kailas-cloud/ragdex/internal/extract"
	"github.com/kailas-cloud/ragdex/internal/metrics"
	budgetrepo "github.com/kailas-cloud/ragdex/internal/repository/budget"
	documentrepo "github.com/kailas-cloud/ragdex/internal/repository/document"
	"github.com/kailas-cloud/ragdex/internal/repository/embcache"
	historyrepo "github.com/kailas-cloud/ragdex/internal/repository/history"
	memindex "github.com/kailas-cloud/ragdex/internal/repository/vectorindex/memory"
	redisindex "github.com/kailas-cloud/ragdex/internal/repository/vectorindex/redis"
	openaiTransport "github.com/kailas-cloud/ragdex/internal/transport/openai"
	answeruc "github.com/kailas-cloud/ragdex/internal/usecase/answer"
	chatuc "github.com/kailas-cloud/ragdex/internal/usecase/chat"
	embeddinguc "github.com/kailas-cloud/ragdex/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/ragdex/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/ragdex/internal/usecase/ingest"
	retrievaluc "github.com/kailas-cloud/ragdex/internal/usecase/retrieval"
	rewriteuc "github.com/kailas-cloud/ragdex/internal/usecase/rewrite"
	sessionuc "github.com/kailas-cloud/ragdex/internal/usecase/session"
	usageuc "github.com/kailas-cloud/ragdex/internal/usecase/usage"
)

// vectorIndex is what the composition root needs from either backend.
type vectorIndex interface {
	ingestuc.Index
	retrievaluc.Index
	sessionuc.Index
	Ping(ctx context.Context) error
}

// app is the composition root shared by serve and ask.
type app struct {
	cfg    config.Config
	logger *zap.Logger

	store    *dbRedis.Store // nil with the memory index
	registry *sqlite.DB
	index    vectorIndex

	ingest   *ingestuc.Service
	sessions *sessionuc.Service
	chat     *chatuc.Service
	health   *healthuc.Service
	usage    *usageuc.Service
}

func newApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app, error) {
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterLLMMetrics()
	metrics.RegisterRAGMetrics()

	a := &app{cfg: cfg, logger: logger}
	if err := a.openStorage(ctx); err != nil {
		a.Close()
		return nil, err
	}

	budget := a.buildBudget(ctx)

	// Pass nil interface (not typed nil pointer!) if budget is not configured.
	var budgetChecker embeddinguc.BudgetChecker
	var budgetReader usageuc.BudgetReader
	if budget != nil {
		budgetChecker = budget
		budgetReader = budget
	}

	embedder := a.buildEmbedder(budgetChecker)
	docEmbedder := withInstruction(embedder, cfg.Embedding.DocumentInstruction)
	queryEmbedder := withInstruction(embedder, cfg.Embedding.QueryInstruction)

	llm := openaiTransport.NewCompleter(&openaiTransport.Config{
		APIKey:   cfg.LLM.APIKey,
		BaseURL:  cfg.LLM.BaseURL,
		Model:    cfg.LLM.Model,
		Provider: cfg.LLM.Provider,
		Timeout:  time.Duration(cfg.LLM.TimeoutSec) * time.Second,
		Rate:     cfg.LLM.Rate,
		Burst:    cfg.LLM.Burst,
		Logger:   logger,
	})
	logger.Info("Providers configured",
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("llm_model", cfg.LLM.Model),
	)

	pc := cfg.Pipeline()
	docs := documentrepo.New(a.registry)
	history := historyrepo.New(a.registry)

	a.ingest = ingestuc.New(extract.NewRegistry(), docEmbedder, a.index, docs, pc, logger)
	a.sessions = sessionuc.New(a.index, docs, history, logger)
	a.chat = chatuc.New(
		retrievaluc.New(queryEmbedder, a.index, logger),
		rewriteuc.New(llm, pc.Temperature, logger),
		answeruc.New(llm, pc.Temperature, logger),
		history,
		chatuc.ConfigFrom(pc, cfg.RAG.RewriteEnabled()),
		logger,
	)
	a.health = healthuc.New(a.index, docs, embedder, llm)
	a.usage = usageuc.New(budgetReader)
	return a, nil
}

func (a *app) openStorage(ctx context.Context) error {
	cfg := a.cfg

	if cfg.Index.Remote() {
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:      cfg.Index.Addrs,
			Password:   cfg.Index.Password,
			Standalone: cfg.Index.Standalone,
		})
		if err != nil {
			return fmt.Errorf("create %s store: %w", cfg.Index.Driver, err)
		}
		a.store = store

		timeout := time.Duration(cfg.Index.ReadinessTimeout) * time.Second
		if err := store.WaitForReady(ctx, timeout); err != nil {
			return fmt.Errorf("%s not ready: %w", cfg.Index.Driver, err)
		}
		a.index = redisindex.New(store, cfg.Index.KeyPrefix).WithHNSW(redisindex.HNSWConfig{
			M:           cfg.Index.HNSWM,
			EFConstruct: cfg.Index.HNSWEFConstruct,
		})
		a.logger.Info("Connected to vector store",
			zap.String("driver", cfg.Index.Driver),
			zap.Strings("addrs", cfg.Index.Addrs),
		)
	} else {
		a.index = memindex.New()
		a.logger.Info("Using in-memory vector index")
	}

	registry, err := sqlite.Open(ctx, cfg.Registry.DSN)
	if err != nil {
		return fmt.Errorf("open registry: %w", err)
	}
	a.registry = registry
	return nil
}

// buildBudget returns nil when no limit is configured.
func (a *app) buildBudget(ctx context.Context) *embeddinguc.BudgetTracker {
	bc := a.cfg.Embedding.Budget
	if bc.DailyTokenLimit <= 0 && bc.MonthlyTokenLimit <= 0 {
		return nil
	}

	action := embeddinguc.BudgetActionWarn
	if bc.Action == string(embeddinguc.BudgetActionReject) {
		action = embeddinguc.BudgetActionReject
	}
	budget := embeddinguc.NewBudgetTracker(
		a.cfg.Embedding.Provider, bc.DailyTokenLimit, bc.MonthlyTokenLimit, action, a.logger,
	).WithKeyPrefix(a.cfg.Index.KeyPrefix)

	// counters survive restarts only with a remote store
	if a.store != nil {
		budget.WithStore(ctx, budgetrepo.New(a.store, 0, 0))
	}
	return budget
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented -> DimensionGuard.
// Instructions wrap the result so the cache key includes them.
func (a *app) buildEmbedder(budget embeddinguc.BudgetChecker) *domain.DimensionGuard {
	ec := a.cfg.Embedding

	var embedder domain.Embedder = openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     ec.APIKey,
		BaseURL:    ec.BaseURL,
		Model:      ec.Model,
		Dimensions: ec.Dimensions,
		Provider:   ec.Provider,
		Timeout:    time.Duration(ec.TimeoutSec) * time.Second,
		Rate:       ec.Rate,
		Burst:      ec.Burst,
		Logger:     a.logger,
	})

	if ec.Cache.Enabled && a.store != nil {
		namespace := fmt.Sprintf("%s%s:%d:", a.cfg.Index.KeyPrefix, ec.Model, ec.Dimensions)
		embedder = embcache.New(embedder, a.store, namespace, metrics.EmbeddingCacheTotal, a.logger).
			WithTTL(time.Duration(ec.Cache.TTLSec) * time.Second)
	}

	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, ec.Provider, ec.Model, budget, a.logger).
		WithMaxBatchSize(ec.MaxBatchSize)

	return domain.NewDimensionGuard(embedder, ec.Dimensions)
}

func withInstruction(e domain.Embedder, instruction string) domain.Embedder {
	if instruction == "" {
		return e
	}
	return domain.NewInstructionEmbedder(e, instruction)
}

// reaper reclaims idle scopes every reap interval.
func (a *app) reaper() *sessionuc.Reaper {
	return sessionuc.NewReaper(
		a.sessions,
		time.Duration(a.cfg.Session.TTLSec)*time.Second,
		time.Duration(a.cfg.Session.ReapIntervalSec)*time.Second,
		a.logger,
	)
}

// Close releases storage handles.
func (a *app) Close() {
	if a.registry != nil {
		if err := a.registry.Close(); err != nil {
			a.logger.Warn("Failed to close registry", zap.Error(err))
		}
	}
	if a.store != nil {
		a.store.Close()
	}
}
