package answer

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/kailas-cloud/ragdex/internal/domain"
	"github.com/kailas-cloud/ragdex/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterRAGMetrics()
	os.Exit(m.Run())
}

// --- Mocks ---

type reply struct {
	text string
	err  error
}

// scriptedCompleter returns replies in order and records every request.
type scriptedCompleter struct {
	replies  []reply
	requests [][]domain.Message
	temps    []float32
}

func (m *scriptedCompleter) Complete(
	_ context.Context, messages []domain.Message, temperature float32,
) (domain.Completion, error) {
	m.requests = append(m.requests, messages)
	m.temps = append(m.temps, temperature)
	if len(m.replies) == 0 {
		return domain.Completion{}, nil
	}
	r := m.replies[0]
	m.replies = m.replies[1:]
	return domain.Completion{Text: r.text}, r.err
}

func (m *scriptedCompleter) userPrompt(i int) string {
	msgs := m.requests[i]
	return msgs[len(msgs)-1].Content
}

// --- Tests ---

func TestAnswer_Grounded(t *testing.T) {
	llm := &scriptedCompleter{replies: []reply{{text: "  The budget is 5M.  "}}}
	svc := New(llm, 0.2, nil)

	res := svc.Answer(context.Background(), "What is the budget?", "[plan.pdf, chunk 0]\nBudget: 5M")
	if res.Path != PathGrounded || res.Text != "The budget is 5M." || res.Err != nil {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(llm.requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(llm.requests))
	}
	msgs := llm.requests[0]
	if msgs[0].Role != domain.RoleSystem || msgs[0].Content != SystemPrompt {
		t.Error("expected system prompt first")
	}
	if p := llm.userPrompt(0); !strings.Contains(p, "ONLY the document excerpts") || !strings.Contains(p, "Budget: 5M") {
		t.Errorf("expected grounded prompt, got:\n%s", p)
	}
	if llm.temps[0] != 0.2 {
		t.Errorf("temperature = %v", llm.temps[0])
	}
}

func TestAnswer_EmptyContextTakesGeneralPath(t *testing.T) {
	llm := &scriptedCompleter{replies: []reply{{text: "Paris."}}}
	svc := New(llm, 0.2, nil)

	res := svc.Answer(context.Background(), "Capital of France?", "  \n")
	if res.Path != PathGeneral || res.Text != "Paris." {
		t.Fatalf("unexpected result: %+v", res)
	}
	if p := llm.userPrompt(0); !strings.Contains(p, "No relevant documents were found") {
		t.Errorf("expected general prompt, got:\n%s", p)
	}
}

func TestAnswer_ModelFailure(t *testing.T) {
	cause := domain.NewProviderError(domain.ErrProviderError, 401, "invalid key")
	svc := New(&scriptedCompleter{replies: []reply{{err: cause}}}, 0.2, nil)

	res := svc.Answer(context.Background(), "q", "ctx")
	if res.Path != PathFailed || res.Text != FailureMessage {
		t.Fatalf("unexpected result: %+v", res)
	}
	if !errors.Is(res.Err, domain.ErrProviderError) {
		t.Errorf("expected provider error, got %v", res.Err)
	}
}

func TestAnswer_EmptyGroundedRetriesOnce(t *testing.T) {
	llm := &scriptedCompleter{replies: []reply{{text: "   "}, {text: "Short answer."}}}
	svc := New(llm, 0.2, nil)

	res := svc.Answer(context.Background(), "Why?", "ctx")
	if res.Path != PathGroundedRetry || res.Text != "Short answer." {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(llm.requests) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(llm.requests))
	}
	if p := llm.userPrompt(1); p != "Provide a short answer to: Why?" {
		t.Errorf("retry prompt = %q", p)
	}
}

func TestAnswer_EmptyRetryApologizes(t *testing.T) {
	llm := &scriptedCompleter{replies: []reply{{text: ""}, {text: "\n"}}}
	svc := New(llm, 0.2, nil)

	res := svc.Answer(context.Background(), "Why?", "ctx")
	if res.Path != PathApology || res.Text != Apology || res.Err != nil {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(llm.requests) != 2 {
		t.Errorf("expected exactly one retry, got %d requests", len(llm.requests))
	}
}

func TestAnswer_RetryFailure(t *testing.T) {
	llm := &scriptedCompleter{replies: []reply{{text: ""}, {err: errors.New("timeout")}}}
	res := New(llm, 0.2, nil).Answer(context.Background(), "Why?", "ctx")
	if res.Path != PathFailed || res.Err == nil {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestAnswer_EmptyGeneralApologizes(t *testing.T) {
	llm := &scriptedCompleter{replies: []reply{{text: ""}}}
	res := New(llm, 0.2, nil).Answer(context.Background(), "q", "")
	if res.Path != PathApology || res.Text != Apology {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(llm.requests) != 1 {
		t.Errorf("general path must not retry, got %d requests", len(llm.requests))
	}
}

func TestAnswer_WithoutSystemPrompt(t *testing.T) {
	llm := &scriptedCompleter{replies: []reply{{text: "ok"}}}
	New(llm, 0.2, nil).WithSystemPrompt("").Answer(context.Background(), "q", "ctx")
	if len(llm.requests[0]) != 1 || llm.requests[0][0].Role != domain.RoleUser {
		t.Errorf("expected a single user message, got %+v", llm.requests[0])
	}
}
