// Package chat runs the read path: history, rewrite, retrieve, assemble, answer.
package chat

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/domain"
	"github.com/kailas-cloud/ragdex/internal/domain/conversation"
	"github.com/kailas-cloud/ragdex/internal/domain/scope"
	"github.com/kailas-cloud/ragdex/internal/domain/search/excerpt"
	"github.com/kailas-cloud/ragdex/internal/domain/search/hit"
	"github.com/kailas-cloud/ragdex/internal/metrics"
	"github.com/kailas-cloud/ragdex/internal/usecase/answer"
)

// Config holds the read path tunables.
type Config struct {
	TopK            int
	MaxContextChars int
	MaxHistory      int
	Rewrite         bool
}

// ConfigFrom takes the read path settings from the pipeline config.
func ConfigFrom(pc domain.PipelineConfig, rewrite bool) Config {
	return Config{
		TopK:            pc.TopK,
		MaxContextChars: pc.MaxContextChars,
		MaxHistory:      pc.MaxHistory,
		Rewrite:         rewrite,
	}
}

// Reply is the outcome of one chat turn.
type Reply struct {
	Answer string
	Path   answer.Path
	// Query is what was searched: the rewritten query or the raw message.
	Query string
	Hits  []hit.Hit
	// RAGUsed is true when the answer was built from a non-empty context.
	RAGUsed bool
	// Degraded is true when retrieval failed and the answer had no grounding.
	Degraded bool
}

// Service orchestrates one chat turn.
type Service struct {
	retriever Retriever
	rewriter  Rewriter
	answerer  Answerer
	history   History
	cfg       Config
	logger    *zap.Logger
}

// New creates a chat service. rewriter may be nil.
func New(
	retriever Retriever, rewriter Rewriter, answerer Answerer, history History,
	cfg Config, logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		retriever: retriever,
		rewriter:  rewriter,
		answerer:  answerer,
		history:   history,
		cfg:       cfg,
		logger:    logger,
	}
}

// Ask answers message within scope. Only invalid input fails; provider and
// storage failures degrade into the reply.
func (s *Service) Ask(ctx context.Context, scopeName, message string) (Reply, error) {
	sc, err := scope.Normalize(scopeName)
	if err != nil {
		return Reply{}, err
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return Reply{}, fmt.Errorf("%w: message is required", domain.ErrInvalidTurn)
	}
	log := s.logger.With(zap.String("scope", sc))

	history, err := s.history.History(ctx, sc, s.cfg.MaxHistory)
	if err != nil {
		log.Warn("History unavailable, continuing without it", zap.Error(err))
		history = nil
	}

	query := message
	if s.cfg.Rewrite && s.rewriter != nil {
		query = s.rewriter.Rewrite(ctx, message, history, s.cfg.MaxHistory).Query
	} else {
		metrics.RewritesTotal.WithLabelValues("skipped").Inc()
	}

	ret := s.retriever.Retrieve(ctx, query, sc, s.cfg.TopK)
	contextText := excerpt.Assemble(ret.Hits, s.cfg.MaxContextChars)

	ans := s.answerer.Answer(ctx, message, contextText)

	reply := Reply{
		Answer:   ans.Text,
		Path:     ans.Path,
		Query:    query,
		Hits:     ret.Hits,
		RAGUsed:  contextText != "",
		Degraded: ret.Degraded(),
	}
	if reply.Hits == nil {
		reply.Hits = []hit.Hit{}
	}

	s.remember(ctx, log, sc, message, ans)

	log.Info("Chat turn answered",
		zap.String("path", string(ans.Path)),
		zap.Int("hits", len(ret.Hits)),
		zap.Bool("rag_used", reply.RAGUsed),
		zap.Bool("degraded", reply.Degraded),
	)
	return reply, nil
}

// remember appends the turn pair. A failed answer stores only the question
// so error text never feeds later rewrites.
func (s *Service) remember(ctx context.Context, log *zap.Logger, sc, message string, ans answer.Result) {
	turns := []conversation.Turn{conversation.Reconstruct(domain.RoleUser, message)}
	if ans.Path != answer.PathFailed {
		turns = append(turns, conversation.Reconstruct(domain.RoleAssistant, ans.Text))
	}
	if err := s.history.Append(ctx, sc, turns...); err != nil {
		log.Warn("Conversation turn not stored", zap.Error(err))
	}
}
