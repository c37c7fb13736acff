package retrieval

import (
	"context"

	"github.com/kailas-cloud/ragdex/internal/domain"
	"github.com/kailas-cloud/ragdex/internal/domain/search/hit"
)

// Embedder vectorizes the query.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Index runs nearest-neighbor search inside one scope.
type Index interface {
	Search(ctx context.Context, scope string, vector []float32, topK int) ([]hit.Hit, error)
}
