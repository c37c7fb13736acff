package domain

import (
	"context"
	"errors"
	"testing"
)

type stubEmbedder struct {
	result EmbeddingResult
	err    error
	got    []string
}

func (s *stubEmbedder) Embed(_ context.Context, text string) (EmbeddingResult, error) {
	s.got = append(s.got, text)
	return s.result, s.err
}

type stubBatchEmbedder struct {
	stubEmbedder
	batch BatchEmbeddingResult
	calls int
}

func (s *stubBatchEmbedder) BatchEmbed(_ context.Context, texts []string) (BatchEmbeddingResult, error) {
	s.calls++
	s.got = append(s.got, texts...)
	return s.batch, s.err
}

func TestInstructionEmbedder_PrependsInstruction(t *testing.T) {
	inner := &stubEmbedder{result: EmbeddingResult{Embedding: []float32{0.1, 0.2, 0.3}}}
	emb := NewInstructionEmbedder(inner, "search_document: ")

	result, err := emb.Embed(context.Background(), "hello world")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.got[0] != "search_document: hello world" {
		t.Errorf("expected prepended text, got %q", inner.got[0])
	}
	if len(result.Embedding) != 3 {
		t.Errorf("expected 3-element vector, got %d", len(result.Embedding))
	}
}

func TestInstructionEmbedder_ErrorPropagation(t *testing.T) {
	innerErr := errors.New("provider down")
	emb := NewInstructionEmbedder(&stubEmbedder{err: innerErr}, "q: ")

	_, err := emb.Embed(context.Background(), "hello")
	if !errors.Is(err, innerErr) {
		t.Errorf("expected wrapped inner error, got %v", err)
	}
}

func TestInstructionEmbedder_BatchUsesInnerBatch(t *testing.T) {
	inner := &stubBatchEmbedder{batch: BatchEmbeddingResult{Embeddings: [][]float32{{1}, {2}}}}
	emb := NewInstructionEmbedder(inner, "d: ")

	res, err := emb.BatchEmbed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("expected 1 batch call, got %d", inner.calls)
	}
	if inner.got[0] != "d: a" || inner.got[1] != "d: b" {
		t.Errorf("unexpected texts: %v", inner.got)
	}
	if len(res.Embeddings) != 2 {
		t.Errorf("expected 2 vectors, got %d", len(res.Embeddings))
	}
}

func TestEmbedAll_FallbackPreservesOrder(t *testing.T) {
	inner := &stubEmbedder{result: EmbeddingResult{Embedding: []float32{1, 2}, TotalTokens: 3}}

	res, err := EmbedAll(context.Background(), inner, []string{"x", "y", "z"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embeddings) != 3 {
		t.Fatalf("expected 3 vectors, got %d", len(res.Embeddings))
	}
	if res.TotalTokens != 9 {
		t.Errorf("TotalTokens = %d, want 9", res.TotalTokens)
	}
	if inner.got[0] != "x" || inner.got[2] != "z" {
		t.Errorf("order not preserved: %v", inner.got)
	}
}

func TestEmbedAll_CountMismatch(t *testing.T) {
	inner := &stubBatchEmbedder{batch: BatchEmbeddingResult{Embeddings: [][]float32{{1}}}}

	_, err := EmbedAll(context.Background(), inner, []string{"a", "b"})
	if !errors.Is(err, ErrEmbeddingProviderError) {
		t.Errorf("expected ErrEmbeddingProviderError, got %v", err)
	}
}

func TestEmbedAll_Empty(t *testing.T) {
	inner := &stubEmbedder{}
	res, err := EmbedAll(context.Background(), inner, nil)
	if err != nil || len(res.Embeddings) != 0 || len(inner.got) != 0 {
		t.Errorf("expected no calls and empty result, got %+v, %v", res, err)
	}
}

func TestDimensionGuard_LearnsFirstDimension(t *testing.T) {
	inner := &stubEmbedder{result: EmbeddingResult{Embedding: []float32{1, 2, 3}}}
	g := NewDimensionGuard(inner, 0)

	if _, err := g.Embed(context.Background(), "a"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.Dimensions() != 3 {
		t.Errorf("Dimensions() = %d, want 3", g.Dimensions())
	}

	inner.result.Embedding = []float32{1, 2}
	_, err := g.Embed(context.Background(), "b")
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestDimensionGuard_ConfiguredDimension(t *testing.T) {
	inner := &stubBatchEmbedder{batch: BatchEmbeddingResult{Embeddings: [][]float32{{1, 2}, {1, 2, 3}}}}
	g := NewDimensionGuard(inner, 2)

	_, err := g.BatchEmbed(context.Background(), []string{"a", "b"})
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestProviderError(t *testing.T) {
	tests := []struct {
		name        string
		err         *ProviderError
		transient   bool
		rateLimited bool
	}{
		{"no response", NewProviderError(ErrProviderError, 0, "dial tcp: timeout"), true, false},
		{"server error", NewProviderError(ErrProviderError, 503, "unavailable"), true, false},
		{"bad request", NewProviderError(ErrEmbeddingProviderError, 400, "bad"), false, false},
		{"rate limited", NewProviderError(ErrEmbeddingProviderError, 429, "slow down"), false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Transient() != tt.transient {
				t.Errorf("Transient() = %v, want %v", tt.err.Transient(), tt.transient)
			}
			if errors.Is(tt.err, ErrRateLimited) != tt.rateLimited {
				t.Errorf("errors.Is(ErrRateLimited) = %v, want %v", !tt.rateLimited, tt.rateLimited)
			}
			if !errors.Is(tt.err, tt.err.Kind) {
				t.Error("expected error to unwrap to its kind")
			}
		})
	}
}

func TestTokenUsage_NilSafe(t *testing.T) {
	var u *TokenUsage
	u.AddEmbedding(5)
	u.AddCompletion(5)

	ctx, usage := NewContextWithUsage(context.Background())
	UsageFromContext(ctx).AddEmbedding(7)
	UsageFromContext(ctx).AddCompletion(2)
	if usage.EmbeddingTokens != 7 || usage.CompletionTokens != 2 {
		t.Errorf("unexpected usage: %+v", usage)
	}
	if UsageFromContext(context.Background()) != nil {
		t.Error("expected nil usage on bare context")
	}
}
