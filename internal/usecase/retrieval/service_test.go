package retrieval

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/kailas-cloud/ragdex/internal/domain"
	"github.com/kailas-cloud/ragdex/internal/domain/chunk"
	"github.com/kailas-cloud/ragdex/internal/domain/search/hit"
	"github.com/kailas-cloud/ragdex/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterRAGMetrics()
	os.Exit(m.Run())
}

// --- Mocks ---

type mockEmbedder struct {
	vec      []float32
	err      error
	lastText string
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.lastText = text
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec}, nil
}

type mockIndex struct {
	hits      []hit.Hit
	err       error
	called    bool
	lastScope string
	lastTopK  int
}

func (m *mockIndex) Search(_ context.Context, scope string, _ []float32, topK int) ([]hit.Hit, error) {
	m.called = true
	m.lastScope = scope
	m.lastTopK = topK
	return m.hits, m.err
}

func rankedHits(n int) []hit.Hit {
	cands := make([]hit.Candidate, n)
	for i := range n {
		c := chunk.Reconstruct("text", []float32{1}, chunk.Metadata{
			DocID: "doc", SourceName: "a.txt", ChunkIndex: i, TotalChunks: n,
			UploadedAt: time.Unix(1, 0),
		})
		cands[i] = hit.Candidate{Chunk: c, Score: 1 - float64(i)*0.1, Seq: uint64(i)}
	}
	return hit.Rank(cands, n)
}

// --- Tests ---

func TestRetrieve_Success(t *testing.T) {
	emb := &mockEmbedder{vec: []float32{0.1, 0.2}}
	idx := &mockIndex{hits: rankedHits(3)}
	svc := New(emb, idx, nil)

	res := svc.Retrieve(context.Background(), "what is X", "s1", 5)
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if len(res.Hits) != 3 {
		t.Fatalf("expected 3 hits, got %d", len(res.Hits))
	}
	if emb.lastText != "what is X" {
		t.Errorf("embedded %q", emb.lastText)
	}
	if idx.lastScope != "s1" || idx.lastTopK != 5 {
		t.Errorf("unexpected search args: scope=%q topK=%d", idx.lastScope, idx.lastTopK)
	}
	if res.Degraded() {
		t.Error("expected not degraded")
	}
}

func TestRetrieve_EmbedFailureDegrades(t *testing.T) {
	cause := domain.NewProviderError(domain.ErrEmbeddingProviderError, 503, "down")
	idx := &mockIndex{hits: rankedHits(1)}
	svc := New(&mockEmbedder{err: cause}, idx, nil)

	res := svc.Retrieve(context.Background(), "q", "s1", 5)
	if len(res.Hits) != 0 {
		t.Fatalf("expected no hits, got %d", len(res.Hits))
	}
	if !errors.Is(res.Err, domain.ErrEmbeddingProviderError) {
		t.Errorf("expected embedding provider error, got %v", res.Err)
	}
	if idx.called {
		t.Error("index must not be searched when embedding fails")
	}
}

func TestRetrieve_SearchFailureDegrades(t *testing.T) {
	idx := &mockIndex{hits: rankedHits(2), err: errors.New("connection reset")}
	svc := New(&mockEmbedder{vec: []float32{1}}, idx, nil)

	res := svc.Retrieve(context.Background(), "q", "s1", 5)
	if res.Hits != nil {
		t.Fatalf("expected nil hits alongside an error, got %d", len(res.Hits))
	}
	if res.Err == nil || !res.Degraded() {
		t.Fatal("expected degraded result")
	}
}

func TestRetrieve_NonPositiveTopK(t *testing.T) {
	emb := &mockEmbedder{vec: []float32{1}}
	idx := &mockIndex{hits: rankedHits(2)}
	svc := New(emb, idx, nil)

	res := svc.Retrieve(context.Background(), "q", "s1", 0)
	if len(res.Hits) != 0 || res.Err != nil {
		t.Fatalf("expected empty result, got %+v", res)
	}
	if idx.called {
		t.Error("index must not be searched for topK <= 0")
	}
}

func TestRetrieve_EmptyScope(t *testing.T) {
	svc := New(&mockEmbedder{vec: []float32{1}}, &mockIndex{}, nil)

	res := svc.Retrieve(context.Background(), "q", "empty", 5)
	if len(res.Hits) != 0 || res.Err != nil {
		t.Fatalf("expected empty result without error, got %+v", res)
	}
}
