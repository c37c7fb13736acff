// Package memory keeps chunk vectors in process memory, partitioned by scope.
package memory

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/kailas-cloud/ragdex/internal/domain"
	"github.com/kailas-cloud/ragdex/internal/domain/chunk"
	"github.com/kailas-cloud/ragdex/internal/domain/search/hit"
	"github.com/kailas-cloud/ragdex/internal/repository/vectorindex/scopes"
)

type stored struct {
	chunk chunk.Chunk
	seq   uint64
	norm  float64
}

type bucket struct {
	dim     int
	nextSeq uint64
	chunks  map[string]stored
}

func newBucket() *bucket {
	return &bucket{chunks: make(map[string]stored)}
}

func (b *bucket) reset() {
	b.dim = 0
	b.chunks = make(map[string]stored)
}

// Index is an in-process VectorIndex with cosine similarity.
type Index struct {
	scopes *scopes.Table[*bucket]
}

// New creates an empty index.
func New() *Index {
	return &Index{scopes: scopes.New(newBucket)}
}

// WithClock replaces the time source used for idle tracking.
func (ix *Index) WithClock(now func() time.Time) *Index {
	ix.scopes.WithClock(now)
	return ix
}

// Upsert stores chunks, replacing chunks with the same id. A replaced chunk
// keeps its insertion sequence. The batch is validated as a whole first:
// on a dimension mismatch nothing is written.
func (ix *Index) Upsert(_ context.Context, scope string, chunks []chunk.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	return ix.scopes.Write(scope, func(b *bucket) error {
		dim := b.dim
		if len(b.chunks) == 0 {
			dim = len(chunks[0].Vector())
		}
		for _, c := range chunks {
			if len(c.Vector()) == 0 {
				return fmt.Errorf("%w: chunk %s has no vector", domain.ErrInvalidChunk, c.ID())
			}
			if len(c.Vector()) != dim {
				return fmt.Errorf("%w: chunk %s has %d dimensions, scope %s has %d",
					domain.ErrDimensionMismatch, c.ID(), len(c.Vector()), scope, dim)
			}
		}

		b.dim = dim
		for _, c := range chunks {
			s := stored{chunk: c, norm: norm(c.Vector())}
			if prev, ok := b.chunks[c.ID()]; ok {
				s.seq = prev.seq
			} else {
				s.seq = b.nextSeq
				b.nextSeq++
			}
			b.chunks[c.ID()] = s
		}
		return nil
	})
}

// Search ranks the scope's chunks by cosine similarity to vector.
func (ix *Index) Search(_ context.Context, scope string, vector []float32, topK int) ([]hit.Hit, error) {
	if topK <= 0 {
		return []hit.Hit{}, nil
	}
	var hits []hit.Hit
	err := ix.scopes.Read(scope, func(b *bucket) error {
		if len(b.chunks) == 0 {
			return nil
		}
		if len(vector) != b.dim {
			return fmt.Errorf("%w: query has %d dimensions, scope %s has %d",
				domain.ErrDimensionMismatch, len(vector), scope, b.dim)
		}

		qn := norm(vector)
		cands := make([]hit.Candidate, 0, len(b.chunks))
		for _, s := range b.chunks {
			cands = append(cands, hit.Candidate{
				Chunk: s.chunk,
				Score: cosine(vector, qn, s.chunk.Vector(), s.norm),
				Seq:   s.seq,
			})
		}
		hits = hit.Rank(cands, topK)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if hits == nil {
		hits = []hit.Hit{}
	}
	return hits, nil
}

// Clear removes every chunk of the scope. Clearing an unknown scope is a no-op.
func (ix *Index) Clear(_ context.Context, scope string) error {
	return ix.scopes.Write(scope, func(b *bucket) error {
		b.reset()
		return nil
	})
}

// DeleteDocument removes the chunks of one document and returns how many were removed.
func (ix *Index) DeleteDocument(_ context.Context, scope, docID string) (int, error) {
	removed := 0
	err := ix.scopes.Write(scope, func(b *bucket) error {
		for id, s := range b.chunks {
			if s.chunk.Metadata().DocID == docID {
				delete(b.chunks, id)
				removed++
			}
		}
		if len(b.chunks) == 0 {
			b.reset()
		}
		return nil
	})
	return removed, err
}

// Stats reports the chunk count of the scope.
func (ix *Index) Stats(_ context.Context, scope string) (domain.IndexStats, error) {
	var st domain.IndexStats
	err := ix.scopes.Read(scope, func(b *bucket) error {
		st = domain.IndexStats{ChunkCount: len(b.chunks), Dimensions: b.dim}
		return nil
	})
	return st, err
}

// Reclaim drops scopes idle longer than ttl. onReclaim, if set, runs under
// the scope lock; when it fails the scope keeps its chunks.
func (ix *Index) Reclaim(ctx context.Context, ttl time.Duration, onReclaim domain.ReclaimHook) ([]string, error) {
	return ix.scopes.Reclaim(ctx, ttl, func(scope string, b *bucket) error {
		if onReclaim != nil {
			if err := onReclaim(ctx, scope); err != nil {
				return err
			}
		}
		b.reset()
		return nil
	})
}

// Ping always succeeds.
func (ix *Index) Ping(context.Context) error { return nil }

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// cosine returns 0 when either vector has zero length.
func cosine(a []float32, an float64, b []float32, bn float64) float64 {
	if an == 0 || bn == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (an * bn)
}
