package document

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/minio/highwayhash"
)

// idKey is the fixed HighwayHash key for content-derived document ids.
// Changing it changes every document id and breaks idempotent re-indexing.
var idKey = []byte("ragdex-document-id-hash-key-v1!!")

// IDLength is the number of hex characters in a document id.
const IDLength = 16

// Document is an uploaded file whose text has been indexed (immutable value object).
type Document struct {
	id         string
	scope      string
	sourceName string
	byteSize   int64
	uploadedAt time.Time
	chunkCount int
}

// IDFromContent derives a stable id from the raw file bytes.
// Identical uploads map to the same id and therefore to the same chunk ids.
func IDFromContent(data []byte) string {
	h, err := highwayhash.New64(idKey)
	if err != nil {
		// only fails on a key that is not 32 bytes
		panic(err)
	}
	_, _ = h.Write(data)
	return hex.EncodeToString(h.Sum(nil))[:IDLength]
}

// New validates and creates a Document.
func New(id, scope, sourceName string, byteSize int64, uploadedAt time.Time, chunkCount int) (Document, error) {
	if id == "" {
		return Document{}, fmt.Errorf("document id is required")
	}
	if scope == "" {
		return Document{}, fmt.Errorf("document scope is required")
	}
	if sourceName == "" {
		return Document{}, fmt.Errorf("source name is required")
	}
	if byteSize < 0 {
		return Document{}, fmt.Errorf("byte size must not be negative")
	}
	if chunkCount < 0 {
		return Document{}, fmt.Errorf("chunk count must not be negative")
	}
	return Document{
		id:         id,
		scope:      scope,
		sourceName: sourceName,
		byteSize:   byteSize,
		uploadedAt: uploadedAt.UTC(),
		chunkCount: chunkCount,
	}, nil
}

// Reconstruct creates a Document without validation (storage hydration).
func Reconstruct(id, scope, sourceName string, byteSize int64, uploadedAt time.Time, chunkCount int) Document {
	return Document{
		id: id, scope: scope, sourceName: sourceName,
		byteSize: byteSize, uploadedAt: uploadedAt, chunkCount: chunkCount,
	}
}

// ID returns the content-derived identifier.
func (d Document) ID() string { return d.id }

// Scope returns the session scope the document belongs to.
func (d Document) Scope() string { return d.scope }

// SourceName returns the original file name.
func (d Document) SourceName() string { return d.sourceName }

// ByteSize returns the uploaded file size.
func (d Document) ByteSize() int64 { return d.byteSize }

// UploadedAt returns the upload time in UTC.
func (d Document) UploadedAt() time.Time { return d.uploadedAt }

// ChunkCount returns the number of chunks indexed for the document.
func (d Document) ChunkCount() int { return d.chunkCount }
