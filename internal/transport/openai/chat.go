package openai

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/ragdex/internal/domain"
	"github.com/kailas-cloud/ragdex/internal/metrics"
)

// Completer is a chat completion provider using the OpenAI-compatible API.
type Completer struct {
	client   *openai.Client
	limiter  *rate.Limiter
	model    string
	user     string
	provider string
	logger   *zap.Logger
}

// NewCompleter creates a chat completion provider. Dimensions is ignored.
func NewCompleter(cfg *Config) *Completer {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Completer{
		client:   newClient(cfg.APIKey, cfg.BaseURL, cfg.Timeout),
		limiter:  newLimiter(cfg.Rate, cfg.Burst),
		model:    cfg.Model,
		user:     cfg.User,
		provider: cfg.Provider,
		logger:   logger,
	}
}

// Complete implements domain.Completer. A response without choices yields empty text.
func (c *Completer) Complete(
	ctx context.Context, messages []domain.Message, temperature float32,
) (domain.Completion, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    make([]openai.ChatCompletionMessage, 0, len(messages)),
		Temperature: temperature,
		User:        c.user,
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	start := time.Now()
	resp, err := callWithRetry(ctx, c.limiter, domain.ErrProviderError,
		func(err error) {
			metrics.LLMRetriesTotal.WithLabelValues(c.provider, c.model).Inc()
			c.logger.Warn("Retrying chat completion",
				zap.String("provider", c.provider),
				zap.String("model", c.model),
				zap.Error(err),
			)
		},
		func(ctx context.Context) (openai.ChatCompletionResponse, error) {
			return c.client.CreateChatCompletion(ctx, req)
		},
	)
	duration := time.Since(start)

	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues(c.provider, c.model, "error").Inc()
		c.logger.Error("Chat completion failed",
			zap.String("provider", c.provider),
			zap.String("model", c.model),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domain.Completion{}, fmt.Errorf("chat completion: %w", err)
	}

	metrics.LLMRequestsTotal.WithLabelValues(c.provider, c.model, "success").Inc()
	metrics.LLMRequestDuration.WithLabelValues(c.provider, c.model).Observe(duration.Seconds())
	metrics.LLMTokensTotal.WithLabelValues(c.provider, c.model, "prompt").Add(float64(resp.Usage.PromptTokens))
	metrics.LLMTokensTotal.WithLabelValues(c.provider, c.model, "completion").Add(float64(resp.Usage.CompletionTokens))
	domain.UsageFromContext(ctx).AddCompletion(resp.Usage.TotalTokens)

	out := domain.Completion{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}
	if len(resp.Choices) > 0 {
		out.Text = resp.Choices[0].Message.Content
	}
	return out, nil
}

// HealthCheck verifies API availability via ListModels.
func (c *Completer) HealthCheck(ctx context.Context) error {
	if _, err := c.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", parseAPIError(domain.ErrProviderError, err))
	}
	return nil
}
