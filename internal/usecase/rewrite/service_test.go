package rewrite

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/kailas-cloud/ragdex/internal/domain"
	"github.com/kailas-cloud/ragdex/internal/domain/conversation"
	"github.com/kailas-cloud/ragdex/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterRAGMetrics()
	os.Exit(m.Run())
}

// --- Mocks ---

type mockCompleter struct {
	text     string
	err      error
	messages []domain.Message
	temp     float32
}

func (m *mockCompleter) Complete(
	_ context.Context, messages []domain.Message, temperature float32,
) (domain.Completion, error) {
	m.messages = messages
	m.temp = temperature
	if m.err != nil {
		return domain.Completion{}, m.err
	}
	return domain.Completion{Text: m.text}, nil
}

func turns(n int) []conversation.Turn {
	out := make([]conversation.Turn, 0, n)
	for i := range n {
		role := domain.RoleUser
		if i%2 == 1 {
			role = domain.RoleAssistant
		}
		out = append(out, conversation.Reconstruct(role, "turn-"+string(rune('a'+i))))
	}
	return out
}

// --- Tests ---

func TestRewrite_UsesFirstNonEmptyLine(t *testing.T) {
	llm := &mockCompleter{text: "\n  \"budget forecast 2024 revenue\"  \nexplanation line"}
	svc := New(llm, 0.2, nil)

	res := svc.Rewrite(context.Background(), "what about revenue?", nil, 0)
	if res.Query != "budget forecast 2024 revenue" {
		t.Errorf("Query = %q", res.Query)
	}
	if !res.Rewritten || res.Err != nil {
		t.Errorf("expected rewritten without error, got %+v", res)
	}
	if llm.temp != 0.2 {
		t.Errorf("temperature = %v", llm.temp)
	}
	if len(llm.messages) != 1 || llm.messages[0].Role != domain.RoleUser {
		t.Errorf("unexpected messages: %+v", llm.messages)
	}
}

func TestRewrite_ModelErrorFallsBack(t *testing.T) {
	cause := domain.NewProviderError(domain.ErrProviderError, 500, "boom")
	svc := New(&mockCompleter{err: cause}, 0.2, nil)

	res := svc.Rewrite(context.Background(), "raw question", nil, 10)
	if res.Query != "raw question" || res.Rewritten {
		t.Errorf("expected fallback to raw message, got %+v", res)
	}
	if !errors.Is(res.Err, domain.ErrProviderError) {
		t.Errorf("expected provider error, got %v", res.Err)
	}
}

func TestRewrite_EmptyOutputFallsBack(t *testing.T) {
	svc := New(&mockCompleter{text: " \n \"\" \n"}, 0.2, nil)

	res := svc.Rewrite(context.Background(), "raw question", nil, 10)
	if res.Query != "raw question" || res.Rewritten {
		t.Errorf("expected fallback, got %+v", res)
	}
	if !errors.Is(res.Err, ErrEmptyOutput) {
		t.Errorf("expected ErrEmptyOutput, got %v", res.Err)
	}
}

func TestPrompt_FormatsLastTurnsOldestFirst(t *testing.T) {
	p := Prompt("latest", turns(5), 2)

	if strings.Contains(p, "turn-a") || strings.Contains(p, "turn-c") {
		t.Errorf("prompt contains turns outside the window:\n%s", p)
	}
	iD := strings.Index(p, "assistant: turn-d")
	iE := strings.Index(p, "user: turn-e")
	if iD < 0 || iE < 0 || iD > iE {
		t.Errorf("expected last two turns oldest first:\n%s", p)
	}
	if !strings.Contains(p, "latest") {
		t.Error("prompt must contain the latest message")
	}
}

func TestPrompt_DefaultHistoryWindow(t *testing.T) {
	p := Prompt("q", turns(12), 0)

	if strings.Contains(p, "turn-a") || strings.Contains(p, "turn-b") {
		t.Error("expected only the last 10 turns")
	}
	if !strings.Contains(p, "turn-c") || !strings.Contains(p, "turn-l") {
		t.Error("expected turns c..l in the prompt")
	}
}

func TestPrompt_NoHistory(t *testing.T) {
	if p := Prompt("q", nil, 10); !strings.Contains(p, "(none)") {
		t.Errorf("expected placeholder for empty history:\n%s", p)
	}
}
