package batch

// ItemStatus is the processing outcome of a single batch item.
type ItemStatus string

// Batch item status values.
const (
	StatusOK    ItemStatus = "ok"
	StatusError ItemStatus = "error"
)

// Result is the outcome of indexing one uploaded file.
type Result struct {
	id         string
	sourceName string
	chunks     int
	status     ItemStatus
	err        error
}

// NewOK creates a successful result for a document indexed as chunks.
func NewOK(id, sourceName string, chunks int) Result {
	return Result{id: id, sourceName: sourceName, chunks: chunks, status: StatusOK}
}

// NewError creates a failed result. id is empty when the failure happened before hashing.
func NewError(id, sourceName string, err error) Result {
	return Result{id: id, sourceName: sourceName, status: StatusError, err: err}
}

// ID returns the document id.
func (r Result) ID() string { return r.id }

// SourceName returns the uploaded file name.
func (r Result) SourceName() string { return r.sourceName }

// Chunks returns the number of chunks written.
func (r Result) Chunks() int { return r.chunks }

// Status returns the processing outcome.
func (r Result) Status() ItemStatus { return r.status }

// Err returns the error, if any.
func (r Result) Err() error { return r.err }
