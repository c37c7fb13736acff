package session

import (
	"context"
	"time"

	"github.com/kailas-cloud/ragdex/internal/domain"
	"github.com/kailas-cloud/ragdex/internal/domain/conversation"
	domdoc "github.com/kailas-cloud/ragdex/internal/domain/document"
)

// Index is the scope-level part of the VectorIndex.
type Index interface {
	Clear(ctx context.Context, scope string) error
	DeleteDocument(ctx context.Context, scope, docID string) (int, error)
	Stats(ctx context.Context, scope string) (domain.IndexStats, error)
	Reclaim(ctx context.Context, ttl time.Duration, onReclaim domain.ReclaimHook) ([]string, error)
}

// Registry lists and removes registered documents.
type Registry interface {
	List(ctx context.Context, scope string) ([]domdoc.Document, error)
	Delete(ctx context.Context, scope, id string) error
	DeleteScope(ctx context.Context, scope string) (int, error)
}

// History reads and clears conversation turns.
type History interface {
	History(ctx context.Context, session string, limit int) ([]conversation.Turn, error)
	Clear(ctx context.Context, session string) (int, error)
}
