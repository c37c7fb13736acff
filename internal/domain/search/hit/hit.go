package hit

import (
	"cmp"
	"slices"

	"github.com/kailas-cloud/ragdex/internal/domain/chunk"
)

// Hit is a ranked search result (derived, never stored).
type Hit struct {
	chunkID    string
	text       string
	sourceName string
	docID      string
	chunkIndex int
	score      float64
	rank       int
}

// ChunkID returns "{doc_id}_{chunk_index}".
func (h Hit) ChunkID() string { return h.chunkID }

// Text returns the chunk text.
func (h Hit) Text() string { return h.text }

// SourceName returns the file the chunk came from.
func (h Hit) SourceName() string { return h.sourceName }

// DocID returns the owning document id.
func (h Hit) DocID() string { return h.docID }

// ChunkIndex returns the 0-based position of the chunk in its document.
func (h Hit) ChunkIndex() int { return h.chunkIndex }

// Score returns the cosine similarity to the query.
func (h Hit) Score() float64 { return h.score }

// Rank returns the 1-based position in the result list.
func (h Hit) Rank() int { return h.rank }

// Candidate is a scored chunk before ranking. Seq is the insertion sequence
// of the chunk in its scope and breaks score ties.
type Candidate struct {
	Chunk chunk.Chunk
	Score float64
	Seq   uint64
}

// Rank orders candidates by descending score, then ascending Seq, keeps
// the first topK and assigns ranks starting at 1. topK <= 0 returns nil.
func Rank(cands []Candidate, topK int) []Hit {
	if topK <= 0 || len(cands) == 0 {
		return nil
	}
	sorted := slices.Clone(cands)
	slices.SortStableFunc(sorted, func(a, b Candidate) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Seq, b.Seq)
	})
	if len(sorted) > topK {
		sorted = sorted[:topK]
	}

	hits := make([]Hit, len(sorted))
	for i, c := range sorted {
		m := c.Chunk.Metadata()
		hits[i] = Hit{
			chunkID:    c.Chunk.ID(),
			text:       c.Chunk.Text(),
			sourceName: m.SourceName,
			docID:      m.DocID,
			chunkIndex: m.ChunkIndex,
			score:      c.Score,
			rank:       i + 1,
		}
	}
	return hits
}
