package redis

import (
	"fmt"
	"strconv"
	"time"

	"github.com/kailas-cloud/ragdex/internal/db"
	"github.com/kailas-cloud/ragdex/internal/domain/chunk"
)

func chunkToHash(c chunk.Chunk, seq uint64) map[string]string {
	m := c.Metadata()
	return map[string]string{
		fieldText:        c.Text(),
		fieldSourceName:  m.SourceName,
		fieldDocID:       m.DocID,
		fieldChunkIndex:  strconv.Itoa(m.ChunkIndex),
		fieldTotalChunks: strconv.Itoa(m.TotalChunks),
		fieldByteSize:    strconv.FormatInt(m.ByteSize, 10),
		fieldUploadedAt:  strconv.FormatInt(m.UploadedAt.UnixMilli(), 10),
		fieldSeq:         strconv.FormatUint(seq, 10),
		fieldVector:      string(db.EncodeVector(c.Vector())),
	}
}

// hashToChunk rebuilds a search result chunk. The vector is not returned by KNN queries.
func hashToChunk(f map[string]string) (chunk.Chunk, uint64, error) {
	idx, err := strconv.Atoi(f[fieldChunkIndex])
	if err != nil {
		return chunk.Chunk{}, 0, fmt.Errorf("chunk_index: %w", err)
	}
	total, err := strconv.Atoi(f[fieldTotalChunks])
	if err != nil {
		return chunk.Chunk{}, 0, fmt.Errorf("total_chunks: %w", err)
	}
	size, err := strconv.ParseInt(f[fieldByteSize], 10, 64)
	if err != nil {
		return chunk.Chunk{}, 0, fmt.Errorf("byte_size: %w", err)
	}
	uploadedMs, err := strconv.ParseInt(f[fieldUploadedAt], 10, 64)
	if err != nil {
		return chunk.Chunk{}, 0, fmt.Errorf("uploaded_at: %w", err)
	}
	seq, err := strconv.ParseUint(f[fieldSeq], 10, 64)
	if err != nil {
		return chunk.Chunk{}, 0, fmt.Errorf("seq: %w", err)
	}

	c := chunk.Reconstruct(f[fieldText], nil, chunk.Metadata{
		DocID:       f[fieldDocID],
		SourceName:  f[fieldSourceName],
		ChunkIndex:  idx,
		TotalChunks: total,
		ByteSize:    size,
		UploadedAt:  time.UnixMilli(uploadedMs).UTC(),
	})
	return c, seq, nil
}
