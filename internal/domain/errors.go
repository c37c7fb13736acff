package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrConfiguration signals invalid settings: bad chunk parameters, missing credentials.
	ErrConfiguration = errors.New("configuration error")
	// ErrDimensionMismatch signals vectors of different lengths in one index.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrInvalidChunk signals a chunk rejected at the write boundary.
	ErrInvalidChunk = errors.New("invalid chunk")
	// ErrInvalidScope signals a malformed session scope name.
	ErrInvalidScope = errors.New("invalid scope")
	// ErrInvalidTurn signals a malformed conversation turn.
	ErrInvalidTurn = errors.New("invalid conversation turn")
	// ErrInvalidArgument signals a malformed request parameter.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrEmbeddingQuotaExceeded signals an exhausted embedding token budget.
	ErrEmbeddingQuotaExceeded = errors.New("embedding token budget exceeded")
	// ErrProviderError signals a language model provider failure.
	ErrProviderError = errors.New("language model provider error")

	// ErrUnsupportedFormat signals a file type with no extractor.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrExtraction signals corrupt or unreadable file content.
	ErrExtraction = errors.New("extraction failed")
	// ErrEmptyDocument signals a document that yielded no text.
	ErrEmptyDocument = errors.New("document contains no text")
)

// ProviderError is a non-2xx or transport failure of a hosted provider.
// Kind is ErrEmbeddingProviderError or ErrProviderError. Status is 0 when
// the request never got a response.
type ProviderError struct {
	Kind   error
	Status int
	Body   string
}

// NewProviderError creates a provider error of the given kind.
func NewProviderError(kind error, status int, body string) *ProviderError {
	return &ProviderError{Kind: kind, Status: status, Body: body}
}

func (e *ProviderError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Body)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Kind.Error(), e.Status, e.Body)
}

// Unwrap exposes the kind sentinel, and ErrRateLimited for 429 responses.
func (e *ProviderError) Unwrap() []error {
	if e.Status == http.StatusTooManyRequests {
		return []error{e.Kind, ErrRateLimited}
	}
	return []error{e.Kind}
}

// Transient reports whether a single retry is allowed: no response or 5xx.
// 4xx responses, 429 included, are never retried.
func (e *ProviderError) Transient() bool {
	return e.Status == 0 || e.Status >= http.StatusInternalServerError
}

// IsTransient reports whether err carries a transient ProviderError.
func IsTransient(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Transient()
	}
	return false
}
