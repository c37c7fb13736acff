package ragdex

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

// --- Fakes ---

// letterEmbedder maps text to letter-frequency buckets. Deterministic and offline.
type letterEmbedder struct {
	mu    sync.Mutex
	calls int
}

func (e *letterEmbedder) Embed(_ context.Context, text string) (EmbeddingResult, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()

	v := make([]float32, 8)
	v[0] = 1
	for _, r := range strings.ToLower(text) {
		if r >= 'a' && r <= 'z' {
			v[1+int(r-'a')%7]++
		}
	}
	return EmbeddingResult{Embedding: v, PromptTokens: len(text) / 4, TotalTokens: len(text) / 4}, nil
}

type fixedCompleter struct {
	mu    sync.Mutex
	text  string
	err   error
	calls [][]Message
}

func (c *fixedCompleter) Complete(_ context.Context, messages []Message, _ float32) (Completion, error) {
	c.mu.Lock()
	c.calls = append(c.calls, messages)
	c.mu.Unlock()
	if c.err != nil {
		return Completion{}, c.err
	}
	return Completion{Text: c.text, CompletionTokens: 3}, nil
}

func newTestClient(t *testing.T, llm Completer, opts ...Option) *Client {
	t.Helper()
	base := []Option{WithEmbedder(&letterEmbedder{}), WithCompleter(llm), WithoutRewrite()}
	c, err := New(context.Background(), append(base, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

// --- Tests ---

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
	}{
		{"no embedder", []Option{WithCompleter(&fixedCompleter{})}},
		{"no language model", []Option{WithEmbedder(&letterEmbedder{})}},
		{"openai without chat model", []Option{WithOpenAI("sk-test", "")}},
		{
			"overlap not below size",
			[]Option{WithEmbedder(&letterEmbedder{}), WithCompleter(&fixedCompleter{}), WithChunking(100, 100)},
		},
		{
			"zero chunk size",
			[]Option{WithEmbedder(&letterEmbedder{}), WithCompleter(&fixedCompleter{}), WithChunking(0, 0)},
		},
		{
			"zero top-k",
			[]Option{WithEmbedder(&letterEmbedder{}), WithCompleter(&fixedCompleter{}), WithTopK(0)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(context.Background(), tt.opts...)
			if !errors.Is(err, ErrConfiguration) {
				t.Fatalf("expected ErrConfiguration, got %v", err)
			}
		})
	}
}

func TestNew_UnknownDriver(t *testing.T) {
	c := &Client{}
	_, err := c.openIndex(context.Background(), &clientConfig{driver: "mongo"})
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestClient_IndexAndAsk(t *testing.T) {
	llm := &fixedCompleter{text: "Rayleigh scattering."}
	c := newTestClient(t, llm)
	ctx := context.Background()

	results := c.Index(ctx, "alice",
		File{Name: "sky.txt", Data: []byte("The sky is blue because of Rayleigh scattering.")},
		File{Name: "image.png", Data: []byte{0x89, 'P', 'N', 'G'}},
	)
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	if results[0].Err != nil || results[0].Chunks != 1 {
		t.Errorf("sky.txt: chunks=%d err=%v", results[0].Chunks, results[0].Err)
	}
	if !errors.Is(results[1].Err, ErrUnsupportedFormat) {
		t.Errorf("image.png: expected ErrUnsupportedFormat, got %v", results[1].Err)
	}

	st, err := c.Stats(ctx, "alice")
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.Chunks != 1 || st.Documents != 1 || st.Dimensions != 8 {
		t.Errorf("stats = %+v", st)
	}

	ans, err := c.Ask(ctx, "alice", "Why is the sky blue?")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if ans.Text != "Rayleigh scattering." {
		t.Errorf("Text = %q", ans.Text)
	}
	if !ans.RAGUsed || ans.Path != "grounded" {
		t.Errorf("RAGUsed=%v Path=%q", ans.RAGUsed, ans.Path)
	}
	if len(ans.Sources) != 1 || ans.Sources[0].SourceName != "sky.txt" {
		t.Fatalf("sources = %+v", ans.Sources)
	}
	if ans.Query != "Why is the sky blue?" {
		t.Errorf("Query = %q, want raw question without rewrite", ans.Query)
	}

	// grounded prompt carries the chunk text
	last := llm.calls[len(llm.calls)-1]
	if !strings.Contains(last[len(last)-1].Content, "Rayleigh scattering") {
		t.Error("prompt does not contain retrieved context")
	}

	turns, err := c.History(ctx, "alice", 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(turns) != 2 || turns[0].Role != RoleUser || turns[1].Role != RoleAssistant {
		t.Errorf("history = %+v", turns)
	}
}

func TestClient_SessionsAreIsolated(t *testing.T) {
	c := newTestClient(t, &fixedCompleter{text: "I know nothing."})
	ctx := context.Background()

	c.Index(ctx, "alice", File{Name: "a.txt", Data: []byte("alice secret text")})

	ans, err := c.Ask(ctx, "bob", "what is the secret?")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if ans.RAGUsed || len(ans.Sources) != 0 {
		t.Errorf("bob saw alice's documents: %+v", ans)
	}
	if ans.Path != "general" {
		t.Errorf("Path = %q, want general", ans.Path)
	}
}

func TestClient_DocumentsDeleteClear(t *testing.T) {
	c := newTestClient(t, &fixedCompleter{text: "ok"})
	ctx := context.Background()

	res := c.Index(ctx, "s1",
		File{Name: "a.txt", Data: []byte("first document")},
		File{Name: "b.md", Data: []byte("# second document")},
	)

	docs, err := c.Documents(ctx, "s1")
	if err != nil {
		t.Fatalf("Documents: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("documents = %d, want 2", len(docs))
	}

	if err := c.DeleteDocument(ctx, "s1", res[0].ID); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}
	if err := c.DeleteDocument(ctx, "s1", res[0].ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: expected ErrNotFound, got %v", err)
	}

	n, err := c.Clear(ctx, "s1")
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if n != 1 {
		t.Errorf("cleared %d documents, want 1", n)
	}
	st, _ := c.Stats(ctx, "s1")
	if st.Chunks != 0 || st.Documents != 0 {
		t.Errorf("stats after clear = %+v", st)
	}
}

func TestClient_InvalidSession(t *testing.T) {
	c := newTestClient(t, &fixedCompleter{text: "ok"})

	_, err := c.Ask(context.Background(), "   ", "hello")
	if !errors.Is(err, ErrInvalidSession) {
		t.Errorf("expected ErrInvalidSession, got %v", err)
	}
}

func TestClient_FailedAnswer(t *testing.T) {
	llm := &fixedCompleter{err: errors.New("boom")}
	c := newTestClient(t, llm)
	ctx := context.Background()

	ans, err := c.Ask(ctx, "alice", "hello")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if ans.Path != "failed" {
		t.Errorf("Path = %q, want failed", ans.Path)
	}

	turns, _ := c.History(ctx, "alice", 10)
	if len(turns) != 1 || turns[0].Role != RoleUser {
		t.Errorf("expected only the question in history, got %+v", turns)
	}
}

func TestCompleterAdapter_WrapsProviderError(t *testing.T) {
	a := &completerAdapter{inner: &fixedCompleter{err: errors.New("down")}}
	_, err := a.Complete(context.Background(), []domain.Message{{Role: domain.RoleUser, Content: "x"}}, 0)
	if !errors.Is(err, ErrProviderError) {
		t.Errorf("expected ErrProviderError, got %v", err)
	}
}

func TestClient_Health(t *testing.T) {
	c := newTestClient(t, &fixedCompleter{text: "ok"})

	h := c.Health(context.Background())
	if h.Status != "ok" {
		t.Errorf("Status = %q, want ok (checks %v)", h.Status, h.Checks)
	}
	if h.Checks["index"] != "ok" || h.Checks["registry"] != "ok" {
		t.Errorf("checks = %v", h.Checks)
	}
	if _, ok := h.Checks["llm"]; ok {
		t.Error("custom completer cannot be probed, llm check should be absent")
	}
}

func TestClient_Prometheus(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := newTestClient(t, &fixedCompleter{text: "ok"}, WithPrometheus(reg))
	ctx := context.Background()

	c.Index(ctx, "m", File{Name: "a.txt", Data: []byte("metrics")}, File{Name: "b.exe", Data: []byte("x")})
	_, _ = c.Stats(ctx, "m")

	m := c.obs.metrics
	if got := testutil.ToFloat64(m.files.WithLabelValues("ok")); got != 1 {
		t.Errorf("indexed ok = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.files.WithLabelValues("error")); got != 1 {
		t.Errorf("indexed error = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.operations.WithLabelValues("index", "error")); got != 1 {
		t.Errorf("index errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.operations.WithLabelValues("stats", "ok")); got != 1 {
		t.Errorf("stats ok = %v, want 1", got)
	}

	// a second client on the same registry reuses the collectors
	c2 := newTestClient(t, &fixedCompleter{text: "ok"}, WithPrometheus(reg))
	if c2.obs.metrics.operations != m.operations {
		t.Error("expected collectors to be reused")
	}
}

func TestFileFromPath(t *testing.T) {
	_, err := FileFromPath(t.TempDir() + "/missing.txt")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}
