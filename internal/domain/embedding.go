package domain

import (
	"context"
	"fmt"
	"sync"
)

// Embedder maps text to a fixed-dimension vector.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// BatchEmbedder vectorizes many texts in one provider call.
// Output order and length match the input.
type BatchEmbedder interface {
	BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error)
}

// HealthChecker verifies provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries one vector and its token usage through the decorator chain.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// BatchEmbeddingResult carries vectors in input order and aggregate token usage.
type BatchEmbeddingResult struct {
	Embeddings   [][]float32
	PromptTokens int
	TotalTokens  int
}

// EmbedAll vectorizes texts with BatchEmbed when e supports it,
// otherwise one Embed call per text.
func EmbedAll(ctx context.Context, e Embedder, texts []string) (BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return BatchEmbeddingResult{}, nil
	}
	if be, ok := e.(BatchEmbedder); ok {
		res, err := be.BatchEmbed(ctx, texts)
		if err != nil {
			return BatchEmbeddingResult{}, err
		}
		if len(res.Embeddings) != len(texts) {
			return BatchEmbeddingResult{}, fmt.Errorf(
				"%w: batch returned %d vectors for %d texts",
				ErrEmbeddingProviderError, len(res.Embeddings), len(texts),
			)
		}
		return res, nil
	}
	return BatchFallback(ctx, e, texts)
}

// BatchFallback calls Embed for each text in order.
func BatchFallback(ctx context.Context, e Embedder, texts []string) (BatchEmbeddingResult, error) {
	out := BatchEmbeddingResult{Embeddings: make([][]float32, len(texts))}
	for i, text := range texts {
		res, err := e.Embed(ctx, text)
		if err != nil {
			return BatchEmbeddingResult{}, fmt.Errorf("fallback embed [%d]: %w", i, err)
		}
		out.Embeddings[i] = res.Embedding
		out.PromptTokens += res.PromptTokens
		out.TotalTokens += res.TotalTokens
	}
	return out, nil
}

// InstructionEmbedder prepends a fixed instruction (document or query side) before embedding.
type InstructionEmbedder struct {
	inner       Embedder
	instruction string
}

// NewInstructionEmbedder wraps inner with an instruction prefix.
func NewInstructionEmbedder(inner Embedder, instruction string) *InstructionEmbedder {
	return &InstructionEmbedder{inner: inner, instruction: instruction}
}

// Embed embeds instruction+text.
func (e *InstructionEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	res, err := e.inner.Embed(ctx, e.instruction+text)
	if err != nil {
		return EmbeddingResult{}, fmt.Errorf("instruction embed: %w", err)
	}
	return res, nil
}

// BatchEmbed embeds instruction+text for every text.
func (e *InstructionEmbedder) BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error) {
	prefixed := make([]string, len(texts))
	for i, t := range texts {
		prefixed[i] = e.instruction + t
	}
	res, err := EmbedAll(ctx, e.inner, prefixed)
	if err != nil {
		return BatchEmbeddingResult{}, fmt.Errorf("instruction batch embed: %w", err)
	}
	return res, nil
}

// DimensionGuard pins the vector length of an embedder. With a zero
// configured dimension the first vector it sees fixes the length.
// Any later vector of another length fails with ErrDimensionMismatch.
type DimensionGuard struct {
	inner Embedder

	mu  sync.Mutex
	dim int
}

// NewDimensionGuard wraps inner. dim <= 0 means "learn from the first vector".
func NewDimensionGuard(inner Embedder, dim int) *DimensionGuard {
	if dim < 0 {
		dim = 0
	}
	return &DimensionGuard{inner: inner, dim: dim}
}

// Dimensions returns the pinned dimension, 0 until known.
func (g *DimensionGuard) Dimensions() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.dim
}

// Embed delegates and checks the vector length.
func (g *DimensionGuard) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	res, err := g.inner.Embed(ctx, text)
	if err != nil {
		return EmbeddingResult{}, err
	}
	if err := g.check(res.Embedding); err != nil {
		return EmbeddingResult{}, err
	}
	return res, nil
}

// BatchEmbed delegates and checks every vector length.
func (g *DimensionGuard) BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error) {
	res, err := EmbedAll(ctx, g.inner, texts)
	if err != nil {
		return BatchEmbeddingResult{}, err
	}
	for i, v := range res.Embeddings {
		if err := g.check(v); err != nil {
			return BatchEmbeddingResult{}, fmt.Errorf("vector [%d]: %w", i, err)
		}
	}
	return res, nil
}

// HealthCheck forwards to inner when supported.
func (g *DimensionGuard) HealthCheck(ctx context.Context) error {
	if hc, ok := g.inner.(HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}

func (g *DimensionGuard) check(v []float32) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.dim == 0 {
		if len(v) == 0 {
			return fmt.Errorf("%w: empty vector", ErrDimensionMismatch)
		}
		g.dim = len(v)
		return nil
	}
	if len(v) != g.dim {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(v), g.dim)
	}
	return nil
}
