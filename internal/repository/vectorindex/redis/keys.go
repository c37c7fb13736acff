package redis

import "fmt"

// Hash fields of a stored chunk.
const (
	fieldText        = "text"
	fieldSourceName  = "source_name"
	fieldDocID       = "doc_id"
	fieldChunkIndex  = "chunk_index"
	fieldTotalChunks = "total_chunks"
	fieldByteSize    = "byte_size"
	fieldUploadedAt  = "uploaded_at"
	fieldSeq         = "seq"
	fieldVector      = "__vector"

	vectorAlias = "vector"
)

var returnFields = []string{
	fieldText, fieldSourceName, fieldDocID, fieldChunkIndex,
	fieldTotalChunks, fieldByteSize, fieldUploadedAt, fieldSeq,
}

func (ix *Index) scopePrefix(scope string) string {
	return fmt.Sprintf("%sscope:%s:", ix.prefix, scope)
}

func (ix *Index) chunkPrefix(scope string) string {
	return ix.scopePrefix(scope) + "chunk:"
}

func (ix *Index) chunkKey(scope, chunkID string) string {
	return ix.chunkPrefix(scope) + chunkID
}

func (ix *Index) indexName(scope string) string {
	return ix.scopePrefix(scope) + "idx"
}

// dimKey pins the vector dimension of a scope.
func (ix *Index) dimKey(scope string) string {
	return ix.scopePrefix(scope) + "dim"
}

// seqKey is the insertion counter of a scope.
func (ix *Index) seqKey(scope string) string {
	return ix.scopePrefix(scope) + "seq"
}
