package domain

import "context"

type tokenUsageKey struct{}

// TokenUsage collects provider token usage for a single request.
// The HTTP handler puts a pointer into the context, the embedding and
// completion layers add to it, the handler reports it in the response.
type TokenUsage struct {
	EmbeddingTokens  int
	CompletionTokens int
}

// NewContextWithUsage returns a context carrying a fresh usage collector.
func NewContextWithUsage(ctx context.Context) (context.Context, *TokenUsage) {
	u := &TokenUsage{}
	return context.WithValue(ctx, tokenUsageKey{}, u), u
}

// UsageFromContext returns the collector or nil.
func UsageFromContext(ctx context.Context) *TokenUsage {
	u, _ := ctx.Value(tokenUsageKey{}).(*TokenUsage)
	return u
}

// AddEmbedding records embedding tokens. Safe on a nil receiver.
func (u *TokenUsage) AddEmbedding(n int) {
	if u != nil {
		u.EmbeddingTokens += n
	}
}

// AddCompletion records chat completion tokens. Safe on a nil receiver.
func (u *TokenUsage) AddCompletion(n int) {
	if u != nil {
		u.CompletionTokens += n
	}
}
