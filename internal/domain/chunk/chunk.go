package chunk

import (
	"fmt"
	"strconv"
	"time"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

// Metadata is the typed record stored next to every chunk vector.
type Metadata struct {
	DocID       string
	SourceName  string
	ChunkIndex  int
	TotalChunks int
	ByteSize    int64
	UploadedAt  time.Time
}

// Validate rejects metadata with missing or inconsistent fields.
func (m Metadata) Validate() error {
	switch {
	case m.DocID == "":
		return fmt.Errorf("%w: doc id is required", domain.ErrInvalidChunk)
	case m.SourceName == "":
		return fmt.Errorf("%w: source name is required", domain.ErrInvalidChunk)
	case m.TotalChunks <= 0:
		return fmt.Errorf("%w: total chunks must be positive, got %d", domain.ErrInvalidChunk, m.TotalChunks)
	case m.ChunkIndex < 0 || m.ChunkIndex >= m.TotalChunks:
		return fmt.Errorf(
			"%w: chunk index %d out of range [0, %d)", domain.ErrInvalidChunk, m.ChunkIndex, m.TotalChunks,
		)
	case m.ByteSize < 0:
		return fmt.Errorf("%w: byte size must not be negative", domain.ErrInvalidChunk)
	case m.UploadedAt.IsZero():
		return fmt.Errorf("%w: upload time is required", domain.ErrInvalidChunk)
	}
	return nil
}

// Chunk is an embedded segment of a document (immutable value object).
type Chunk struct {
	id     string
	text   string
	vector []float32
	meta   Metadata
}

// ID derives the chunk identifier "{doc_id}_{chunk_index}".
func ID(docID string, index int) string {
	return docID + "_" + strconv.Itoa(index)
}

// New validates metadata and vector and creates a Chunk.
func New(text string, vector []float32, meta Metadata) (Chunk, error) {
	if err := meta.Validate(); err != nil {
		return Chunk{}, err
	}
	if len(vector) == 0 {
		return Chunk{}, fmt.Errorf("%w: vector is required", domain.ErrInvalidChunk)
	}
	return Chunk{
		id:     ID(meta.DocID, meta.ChunkIndex),
		text:   text,
		vector: vector,
		meta:   meta,
	}, nil
}

// Reconstruct creates a Chunk without validation (storage hydration).
func Reconstruct(text string, vector []float32, meta Metadata) Chunk {
	return Chunk{id: ID(meta.DocID, meta.ChunkIndex), text: text, vector: vector, meta: meta}
}

// ID returns "{doc_id}_{chunk_index}".
func (c Chunk) ID() string { return c.id }

// Text returns the chunk text.
func (c Chunk) Text() string { return c.text }

// Vector returns the embedding vector.
func (c Chunk) Vector() []float32 { return c.vector }

// Metadata returns the chunk metadata record.
func (c Chunk) Metadata() Metadata { return c.meta }
