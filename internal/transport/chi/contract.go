package chi

import (
	"context"

	"github.com/kailas-cloud/ragdex/internal/domain/batch"
	"github.com/kailas-cloud/ragdex/internal/domain/conversation"
	domdoc "github.com/kailas-cloud/ragdex/internal/domain/document"
	chatuc "github.com/kailas-cloud/ragdex/internal/usecase/chat"
	healthuc "github.com/kailas-cloud/ragdex/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/ragdex/internal/usecase/ingest"
	sessionuc "github.com/kailas-cloud/ragdex/internal/usecase/session"
	usageuc "github.com/kailas-cloud/ragdex/internal/usecase/usage"
)

// Ingester indexes uploaded files.
type Ingester interface {
	Upload(ctx context.Context, scope string, files []ingestuc.File) []batch.Result
}

// Sessions manages per-scope state.
type Sessions interface {
	Stats(ctx context.Context, scope string) (sessionuc.Stats, error)
	Documents(ctx context.Context, scope string) ([]domdoc.Document, error)
	Clear(ctx context.Context, scope string) (int, error)
	DeleteDocument(ctx context.Context, scope, docID string) (int, error)
	History(ctx context.Context, scope string, limit int) ([]conversation.Turn, error)
	ClearHistory(ctx context.Context, scope string) (int, error)
}

// Chatter answers one chat turn.
type Chatter interface {
	Ask(ctx context.Context, scope, message string) (chatuc.Reply, error)
}

// HealthChecker reports dependency health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// UsageReporter reports embedding token consumption.
type UsageReporter interface {
	Report(ctx context.Context, period usageuc.Period) usageuc.Report
}
