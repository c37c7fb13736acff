package ragdex

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// File is one document to index. Name selects the extractor by extension.
type File struct {
	Name string
	Data []byte
}

// FileFromPath reads a local file. Name is the base name of path.
func FileFromPath(path string) (File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // caller-chosen path
	if err != nil {
		return File{}, fmt.Errorf("ragdex: read %s: %w", path, err)
	}
	return File{Name: filepath.Base(path), Data: data}, nil
}

// IndexResult is the outcome of indexing one file.
type IndexResult struct {
	ID         string
	SourceName string
	Chunks     int
	Err        error // nil on success
}

// Source is a retrieved chunk an answer was grounded on.
type Source struct {
	ChunkID    string
	DocID      string
	SourceName string
	ChunkIndex int
	Score      float64
	Text       string
}

// Answer is the reply to a question.
type Answer struct {
	Text string
	// Path names how the answer was produced: grounded, grounded_retry,
	// apology, general or failed.
	Path string
	// Query is what was searched: the rewritten query or the question.
	Query    string
	RAGUsed  bool
	Degraded bool
	Sources  []Source
}

// DocumentInfo describes an indexed document.
type DocumentInfo struct {
	ID         string
	SourceName string
	Chunks     int
	ByteSize   int64
	UploadedAt time.Time
}

// Stats summarizes a session.
type Stats struct {
	Session    string
	Chunks     int
	Dimensions int
	Documents  int
}

// Turn is one stored conversation message.
type Turn struct {
	Role    string
	Content string
}

// HealthStatus represents the aggregated health of the pipeline.
type HealthStatus struct {
	Status string            // "ok", "degraded", "error"
	Checks map[string]string // component → "ok"/"error"
}
