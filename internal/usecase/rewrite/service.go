// Package rewrite turns a chat message into a keyword-dense search query.
package rewrite

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/domain"
	"github.com/kailas-cloud/ragdex/internal/domain/conversation"
	"github.com/kailas-cloud/ragdex/internal/metrics"
)

// DefaultMaxHistory is the number of turns shown to the model.
const DefaultMaxHistory = 10

// ErrEmptyOutput is reported when the model produced no usable query.
var ErrEmptyOutput = errors.New("model returned an empty query")

const promptTemplate = `Rewrite the latest user message into a short, keyword-rich search query
for finding relevant passages in the user's documents.
Use the conversation history to resolve references such as "it" or "that section".
Reply with a single line of 3 to 12 words and nothing else.

Conversation history:
%s

Latest user message:
%s

Search query:`

// Result is the query to search with. On fallback Query is the raw
// message, Rewritten is false and Err says why.
type Result struct {
	Query     string
	Rewritten bool
	Err       error
}

// Service is the QueryRewriter.
type Service struct {
	llm         domain.Completer
	temperature float32
	logger      *zap.Logger
}

// New creates a query rewriter.
func New(llm domain.Completer, temperature float32, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{llm: llm, temperature: temperature, logger: logger}
}

// Prompt renders the rewrite prompt for the last maxHistory turns.
func Prompt(message string, history []conversation.Turn, maxHistory int) string {
	if maxHistory <= 0 {
		maxHistory = DefaultMaxHistory
	}
	transcript := conversation.Format(conversation.Tail(history, maxHistory))
	if transcript == "" {
		transcript = "(none)"
	}
	return fmt.Sprintf(promptTemplate, transcript, message)
}

// Rewrite asks the model for a search query. Rewriting is best effort:
// any failure falls back to the raw message.
func (s *Service) Rewrite(
	ctx context.Context, message string, history []conversation.Turn, maxHistory int,
) Result {
	out, err := s.llm.Complete(ctx, []domain.Message{
		{Role: domain.RoleUser, Content: Prompt(message, history, maxHistory)},
	}, s.temperature)
	if err != nil {
		return s.fallback(message, fmt.Errorf("rewrite query: %w", err))
	}

	query := firstLine(out.Text)
	if query == "" {
		return s.fallback(message, ErrEmptyOutput)
	}

	metrics.RewritesTotal.WithLabelValues("rewritten").Inc()
	s.logger.Debug("Query rewritten", zap.String("query", query))
	return Result{Query: query, Rewritten: true}
}

func (s *Service) fallback(message string, err error) Result {
	metrics.RewritesTotal.WithLabelValues("fallback").Inc()
	s.logger.Warn("Query rewrite fell back to raw message", zap.Error(err))
	return Result{Query: message, Err: err}
}

// firstLine returns the first non-blank line without surrounding quotes.
func firstLine(text string) string {
	for line := range strings.Lines(text) {
		line = strings.TrimSpace(line)
		line = strings.TrimSpace(strings.Trim(line, "\"'`"))
		if line != "" {
			return line
		}
	}
	return ""
}
