package chi

import (
	"context"
	"errors"

	"github.com/kailas-cloud/ragdex/internal/domain/batch"
	"github.com/kailas-cloud/ragdex/internal/domain/conversation"
	domdoc "github.com/kailas-cloud/ragdex/internal/domain/document"
	chatuc "github.com/kailas-cloud/ragdex/internal/usecase/chat"
	healthuc "github.com/kailas-cloud/ragdex/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/ragdex/internal/usecase/ingest"
	sessionuc "github.com/kailas-cloud/ragdex/internal/usecase/session"
	usageuc "github.com/kailas-cloud/ragdex/internal/usecase/usage"
)

var errBoom = errors.New("boom")

// --- Mocks ---

type mockIngester struct {
	uploadFn func(ctx context.Context, scope string, files []ingestuc.File) []batch.Result
}

func (m *mockIngester) Upload(ctx context.Context, scope string, files []ingestuc.File) []batch.Result {
	return m.uploadFn(ctx, scope, files)
}

type mockSessions struct {
	statsFn          func(ctx context.Context, scope string) (sessionuc.Stats, error)
	documentsFn      func(ctx context.Context, scope string) ([]domdoc.Document, error)
	clearFn          func(ctx context.Context, scope string) (int, error)
	deleteDocumentFn func(ctx context.Context, scope, docID string) (int, error)
	historyFn        func(ctx context.Context, scope string, limit int) ([]conversation.Turn, error)
	clearHistoryFn   func(ctx context.Context, scope string) (int, error)
}

func (m *mockSessions) Stats(ctx context.Context, scope string) (sessionuc.Stats, error) {
	return m.statsFn(ctx, scope)
}

func (m *mockSessions) Documents(ctx context.Context, scope string) ([]domdoc.Document, error) {
	return m.documentsFn(ctx, scope)
}

func (m *mockSessions) Clear(ctx context.Context, scope string) (int, error) {
	return m.clearFn(ctx, scope)
}

func (m *mockSessions) DeleteDocument(ctx context.Context, scope, docID string) (int, error) {
	return m.deleteDocumentFn(ctx, scope, docID)
}

func (m *mockSessions) History(ctx context.Context, scope string, limit int) ([]conversation.Turn, error) {
	return m.historyFn(ctx, scope, limit)
}

func (m *mockSessions) ClearHistory(ctx context.Context, scope string) (int, error) {
	return m.clearHistoryFn(ctx, scope)
}

type mockChatter struct {
	askFn func(ctx context.Context, scope, message string) (chatuc.Reply, error)
}

func (m *mockChatter) Ask(ctx context.Context, scope, message string) (chatuc.Reply, error) {
	return m.askFn(ctx, scope, message)
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(context.Context) healthuc.Report { return m.report }

type mockUsage struct {
	reportFn func(ctx context.Context, period usageuc.Period) usageuc.Report
}

func (m *mockUsage) Report(ctx context.Context, period usageuc.Period) usageuc.Report {
	return m.reportFn(ctx, period)
}

type deps struct {
	ingest   *mockIngester
	sessions *mockSessions
	chat     *mockChatter
	health   *mockHealth
	usage    *mockUsage
}

func newDeps() *deps {
	return &deps{
		ingest:   &mockIngester{},
		sessions: &mockSessions{},
		chat:     &mockChatter{},
		health:   &mockHealth{report: healthuc.Report{Status: healthuc.Healthy}},
		usage:    &mockUsage{},
	}
}

func (d *deps) server() *Server {
	return NewServer(d.ingest, d.sessions, d.chat, d.health, d.usage, nil)
}
