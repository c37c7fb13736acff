package ingest

import (
	"context"

	"github.com/kailas-cloud/ragdex/internal/domain/chunk"
	domdoc "github.com/kailas-cloud/ragdex/internal/domain/document"
)

// Extractor turns file bytes into text, choosing the format by file name.
type Extractor interface {
	Extract(name string, data []byte) (string, error)
}

// Index stores chunk vectors per scope.
type Index interface {
	Upsert(ctx context.Context, scope string, chunks []chunk.Chunk) error
}

// Registry records indexed documents.
type Registry interface {
	Put(ctx context.Context, doc domdoc.Document) error
}
