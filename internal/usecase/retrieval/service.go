// Package retrieval embeds a query and searches the vector index.
package retrieval

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/domain/search/hit"
	"github.com/kailas-cloud/ragdex/internal/metrics"
)

// Result holds ranked hits, or an empty set plus the reason retrieval degraded.
type Result struct {
	Hits []hit.Hit
	Err  error
}

// Degraded reports whether retrieval failed and the caller has no grounding.
func (r Result) Degraded() bool { return r.Err != nil }

// Service is the Retriever.
type Service struct {
	embed  Embedder
	index  Index
	logger *zap.Logger
}

// New creates a retrieval service.
func New(embed Embedder, index Index, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{embed: embed, index: index, logger: logger}
}

// Retrieve returns up to topK hits for query in scope. It never returns
// hits together with an error: on any failure Hits is empty and Err says why.
func (s *Service) Retrieve(ctx context.Context, query, scope string, topK int) Result {
	if topK <= 0 {
		return Result{}
	}

	emb, err := s.embed.Embed(ctx, query)
	if err != nil {
		return s.degrade("embed", scope, fmt.Errorf("vectorize query: %w", err))
	}

	hits, err := s.index.Search(ctx, scope, emb.Embedding, topK)
	if err != nil {
		return s.degrade("search", scope, fmt.Errorf("search index: %w", err))
	}

	metrics.RetrievalHits.Observe(float64(len(hits)))
	return Result{Hits: hits}
}

func (s *Service) degrade(stage, scope string, err error) Result {
	metrics.RetrievalDegradedTotal.WithLabelValues(stage).Inc()
	s.logger.Warn("Retrieval degraded",
		zap.String("stage", stage),
		zap.String("scope", scope),
		zap.Error(err),
	)
	return Result{Err: err}
}
