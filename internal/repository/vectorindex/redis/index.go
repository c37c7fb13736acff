// Package redis stores chunk vectors in Redis 8 or Valkey with the search
// module. Each scope owns a key prefix and an HNSW/COSINE FT index.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/kailas-cloud/ragdex/internal/db"
	"github.com/kailas-cloud/ragdex/internal/domain"
	"github.com/kailas-cloud/ragdex/internal/domain/chunk"
	"github.com/kailas-cloud/ragdex/internal/domain/search/hit"
	"github.com/kailas-cloud/ragdex/internal/repository/vectorindex/scopes"
)

// DefaultKeyPrefix namespaces every key written by the index.
const DefaultKeyPrefix = "ragdex:"

// store is the consumer interface for the remote index (ISP).
//
//nolint:interfacebloat // hash + kv + index lifecycle + search
type store interface {
	Ping(ctx context.Context) error
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetMulti(ctx context.Context, keys []string, field string) ([]string, error)
	DelMulti(ctx context.Context, keys []string) (int, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	IncrBy(ctx context.Context, key string, val int64) (int64, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}

// HNSWConfig HNSW index parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// scopeState caches what this process already knows about a scope.
// Zero means "ask the store".
type scopeState struct {
	dim int
}

// Index is a VectorIndex backed by a Redis-protocol store.
type Index struct {
	store  store
	prefix string
	hnsw   HNSWConfig
	scopes *scopes.Table[*scopeState]
}

// New creates a remote index. An empty prefix selects DefaultKeyPrefix.
func New(s store, prefix string) *Index {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Index{
		store:  s,
		prefix: prefix,
		hnsw:   HNSWConfig{M: 16, EFConstruct: 200},
		scopes: scopes.New(func() *scopeState { return &scopeState{} }),
	}
}

// WithHNSW configures HNSW index parameters.
func (ix *Index) WithHNSW(cfg HNSWConfig) *Index {
	if cfg.M > 0 {
		ix.hnsw.M = cfg.M
	}
	if cfg.EFConstruct > 0 {
		ix.hnsw.EFConstruct = cfg.EFConstruct
	}
	return ix
}

// Ping checks the store connection.
func (ix *Index) Ping(ctx context.Context) error {
	return ix.store.Ping(ctx)
}

// Upsert writes chunks as hashes, replacing chunks with the same id.
// A replaced chunk keeps its insertion sequence. The HSETs are pipelined,
// so a failure part way can leave a subset of the batch written.
func (ix *Index) Upsert(ctx context.Context, scope string, chunks []chunk.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	dim := len(chunks[0].Vector())
	for _, c := range chunks {
		if len(c.Vector()) == 0 {
			return fmt.Errorf("%w: chunk %s has no vector", domain.ErrInvalidChunk, c.ID())
		}
		if len(c.Vector()) != dim {
			return fmt.Errorf("%w: chunk %s has %d dimensions, batch has %d",
				domain.ErrDimensionMismatch, c.ID(), len(c.Vector()), dim)
		}
	}

	return ix.scopes.Write(scope, func(st *scopeState) error {
		if err := ix.ensureIndex(ctx, scope, st, dim); err != nil {
			return err
		}

		keys := make([]string, len(chunks))
		for i, c := range chunks {
			keys[i] = ix.chunkKey(scope, c.ID())
		}
		seqs, err := ix.assignSeqs(ctx, scope, keys)
		if err != nil {
			return err
		}

		items := make([]db.HashSetItem, len(chunks))
		for i, c := range chunks {
			items[i] = db.HashSetItem{Key: keys[i], Fields: chunkToHash(c, seqs[i])}
		}
		if err := ix.store.HSetMulti(ctx, items); err != nil {
			return fmt.Errorf("write chunks %s: %w", scope, err)
		}
		return nil
	})
}

// Search runs a KNN query in the scope's index. Unknown scopes return no hits.
func (ix *Index) Search(ctx context.Context, scope string, vector []float32, topK int) ([]hit.Hit, error) {
	if topK <= 0 {
		return []hit.Hit{}, nil
	}
	var hits []hit.Hit
	err := ix.scopes.Read(scope, func(st *scopeState) error {
		dim, err := ix.loadDim(ctx, scope, st)
		if err != nil {
			return err
		}
		if dim == 0 {
			return nil
		}
		if len(vector) != dim {
			return fmt.Errorf("%w: query has %d dimensions, scope %s has %d",
				domain.ErrDimensionMismatch, len(vector), scope, dim)
		}

		sr, err := ix.store.SearchKNN(ctx, &db.KNNQuery{
			IndexName:    ix.indexName(scope),
			VectorField:  vectorAlias,
			Vector:       vector,
			K:            topK,
			ReturnFields: returnFields,
		})
		if errors.Is(err, db.ErrIndexNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("search %s: %w", scope, err)
		}

		cands := make([]hit.Candidate, 0, len(sr.Entries))
		for _, e := range sr.Entries {
			c, seq, err := hashToChunk(e.Fields)
			if err != nil {
				return fmt.Errorf("decode %s: %w", e.Key, err)
			}
			cands = append(cands, hit.Candidate{
				Chunk: c,
				Score: db.DistanceCosine.Similarity(e.Score),
				Seq:   seq,
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

// Clear deletes every chunk, the FT index and the scope counters.
// Clearing an unknown scope is a no-op.
func (ix *Index) Clear(ctx context.Context, scope string) error {
	return ix.scopes.Write(scope, func(st *scopeState) error {
		return ix.clear(ctx, scope, st)
	})
}

// DeleteDocument removes the chunks of one document and returns how many were removed.
func (ix *Index) DeleteDocument(ctx context.Context, scope, docID string) (int, error) {
	removed := 0
	err := ix.scopes.Write(scope, func(*scopeState) error {
		keys, err := ix.store.Scan(ctx, ix.chunkKey(scope, docID+"_*"))
		if err != nil {
			return fmt.Errorf("scan document %s: %w", docID, err)
		}
		removed, err = ix.store.DelMulti(ctx, keys)
		if err != nil {
			return fmt.Errorf("delete document %s: %w", docID, err)
		}
		return nil
	})
	return removed, err
}

// Stats counts the scope's indexed chunks.
func (ix *Index) Stats(ctx context.Context, scope string) (domain.IndexStats, error) {
	var out domain.IndexStats
	err := ix.scopes.Read(scope, func(st *scopeState) error {
		dim, err := ix.loadDim(ctx, scope, st)
		if err != nil {
			return err
		}
		if dim == 0 {
			return nil
		}
		n, err := ix.store.SearchCount(ctx, ix.indexName(scope), "*")
		if errors.Is(err, db.ErrIndexNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("count %s: %w", scope, err)
		}
		out = domain.IndexStats{ChunkCount: n, Dimensions: dim}
		return nil
	})
	return out, err
}

// Reclaim clears scopes this process has not touched for longer than ttl.
// onReclaim, if set, runs under the scope lock after the keys are gone.
func (ix *Index) Reclaim(ctx context.Context, ttl time.Duration, onReclaim domain.ReclaimHook) ([]string, error) {
	return ix.scopes.Reclaim(ctx, ttl, func(scope string, st *scopeState) error {
		if err := ix.clear(ctx, scope, st); err != nil {
			return err
		}
		if onReclaim != nil {
			return onReclaim(ctx, scope)
		}
		return nil
	})
}

func (ix *Index) clear(ctx context.Context, scope string, st *scopeState) error {
	keys, err := ix.store.Scan(ctx, ix.chunkPrefix(scope)+"*")
	if err != nil {
		return fmt.Errorf("scan %s: %w", scope, err)
	}
	keys = append(keys, ix.dimKey(scope), ix.seqKey(scope))
	if _, err := ix.store.DelMulti(ctx, keys); err != nil {
		return fmt.Errorf("delete %s: %w", scope, err)
	}
	if err := ix.store.DropIndex(ctx, ix.indexName(scope)); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
		return fmt.Errorf("drop index %s: %w", scope, err)
	}
	st.dim = 0
	return nil
}

// loadDim returns the pinned dimension, 0 for a scope that holds nothing.
func (ix *Index) loadDim(ctx context.Context, scope string, st *scopeState) (int, error) {
	if st.dim > 0 {
		return st.dim, nil
	}
	raw, err := ix.store.Get(ctx, ix.dimKey(scope))
	if errors.Is(err, db.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("load dimension %s: %w", scope, err)
	}
	dim, err := strconv.Atoi(string(raw))
	if err != nil {
		return 0, fmt.Errorf("parse dimension %s: %w", scope, err)
	}
	return dim, nil
}

// ensureIndex pins the scope dimension and creates the FT index on first write.
// The dim cache is only filled by writers, which hold the exclusive lock.
func (ix *Index) ensureIndex(ctx context.Context, scope string, st *scopeState, dim int) error {
	pinned, err := ix.loadDim(ctx, scope, st)
	if err != nil {
		return err
	}
	if pinned != 0 {
		if pinned != dim {
			return fmt.Errorf("%w: batch has %d dimensions, scope %s has %d",
				domain.ErrDimensionMismatch, dim, scope, pinned)
		}
		st.dim = pinned
		return nil
	}

	def, err := db.NewIndex(ix.indexName(scope)).
		Prefix(ix.chunkPrefix(scope)).
		Tag(fieldDocID).
		Numeric(fieldSeq).
		VectorHNSW(fieldVector, vectorAlias, dim, db.DistanceCosine, ix.hnsw.M, ix.hnsw.EFConstruct).
		Build()
	if err != nil {
		return fmt.Errorf("build index %s: %w", scope, err)
	}
	if err := ix.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index %s: %w", scope, err)
	}
	if err := ix.store.Set(ctx, ix.dimKey(scope), []byte(strconv.Itoa(dim))); err != nil {
		return fmt.Errorf("pin dimension %s: %w", scope, err)
	}
	st.dim = dim
	return nil
}

// assignSeqs keeps the seq of existing chunks and draws new ones from the scope counter.
func (ix *Index) assignSeqs(ctx context.Context, scope string, keys []string) ([]uint64, error) {
	existing, err := ix.store.HGetMulti(ctx, keys, fieldSeq)
	if err != nil {
		return nil, fmt.Errorf("read sequences %s: %w", scope, err)
	}

	seqs := make([]uint64, len(keys))
	fresh := make([]int, 0, len(keys))
	for i, raw := range existing {
		if raw == "" {
			fresh = append(fresh, i)
			continue
		}
		seq, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse sequence of %s: %w", keys[i], err)
		}
		seqs[i] = seq
	}
	if len(fresh) == 0 {
		return seqs, nil
	}

	last, err := ix.store.IncrBy(ctx, ix.seqKey(scope), int64(len(fresh)))
	if err != nil {
		return nil, fmt.Errorf("allocate sequences %s: %w", scope, err)
	}
	next := uint64(last) - uint64(len(fresh))
	for _, i := range fresh {
		seqs[i] = next
		next++
	}
	return seqs, nil
}
