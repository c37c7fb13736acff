// Package answer produces the final reply from a question and assembled context.
package answer

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/domain"
	"github.com/kailas-cloud/ragdex/internal/metrics"
)

// Path names how an answer was produced.
type Path string

const (
	// PathGrounded is an answer from the document context.
	PathGrounded Path = "grounded"
	// PathGroundedRetry is an answer from the short retry prompt after an empty grounded answer.
	PathGroundedRetry Path = "grounded_retry"
	// PathApology means the model returned nothing usable.
	PathApology Path = "apology"
	// PathGeneral is an answer from general knowledge, no context available.
	PathGeneral Path = "general"
	// PathFailed means the model call failed.
	PathFailed Path = "failed"
)

// User-visible texts for terminal outcomes.
const (
	Apology        = "I couldn't generate an answer."
	FailureMessage = "Sorry, I couldn't reach the language model. Please try again in a moment."
)

// Result is the reply shown to the user. Text is never empty.
type Result struct {
	Text string
	Path Path
	Err  error
}

// Service is the AnswerGenerator.
type Service struct {
	llm          domain.Completer
	temperature  float32
	systemPrompt string
	logger       *zap.Logger
}

// New creates an answer generator.
func New(llm domain.Completer, temperature float32, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{llm: llm, temperature: temperature, systemPrompt: SystemPrompt, logger: logger}
}

// WithSystemPrompt overrides the system prompt. Empty disables it.
func (s *Service) WithSystemPrompt(p string) *Service {
	s.systemPrompt = p
	return s
}

// Answer picks the grounded path for non-empty context and the general
// path otherwise. Model failures become a readable message with Path=failed.
func (s *Service) Answer(ctx context.Context, question, contextText string) Result {
	res := s.answer(ctx, question, contextText)
	metrics.AnswersTotal.WithLabelValues(string(res.Path)).Inc()
	if res.Err != nil {
		s.logger.Error("Answer generation failed", zap.String("path", string(res.Path)), zap.Error(res.Err))
	}
	return res
}

func (s *Service) answer(ctx context.Context, question, contextText string) Result {
	if strings.TrimSpace(contextText) == "" {
		text, err := s.complete(ctx, GeneralPrompt(question))
		if err != nil {
			return failed(err)
		}
		if text == "" {
			return Result{Text: Apology, Path: PathApology}
		}
		return Result{Text: text, Path: PathGeneral}
	}

	text, err := s.complete(ctx, GroundedPrompt(question, contextText))
	if err != nil {
		return failed(err)
	}
	if text != "" {
		return Result{Text: text, Path: PathGrounded}
	}

	s.logger.Debug("Empty grounded answer, retrying with short prompt")
	text, err = s.complete(ctx, RetryPrompt(question))
	if err != nil {
		return failed(err)
	}
	if text == "" {
		return Result{Text: Apology, Path: PathApology}
	}
	return Result{Text: text, Path: PathGroundedRetry}
}

func (s *Service) complete(ctx context.Context, prompt string) (string, error) {
	msgs := make([]domain.Message, 0, 2)
	if s.systemPrompt != "" {
		msgs = append(msgs, domain.Message{Role: domain.RoleSystem, Content: s.systemPrompt})
	}
	msgs = append(msgs, domain.Message{Role: domain.RoleUser, Content: prompt})

	out, err := s.llm.Complete(ctx, msgs, s.temperature)
	if err != nil {
		return "", fmt.Errorf("complete: %w", err)
	}
	return strings.TrimSpace(out.Text), nil
}

func failed(err error) Result {
	return Result{Text: FailureMessage, Path: PathFailed, Err: err}
}
