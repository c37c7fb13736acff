package ragdex

import "github.com/kailas-cloud/ragdex/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound               = domain.ErrNotFound
	ErrConfiguration          = domain.ErrConfiguration
	ErrInvalidSession         = domain.ErrInvalidScope
	ErrInvalidMessage         = domain.ErrInvalidTurn
	ErrDimensionMismatch      = domain.ErrDimensionMismatch
	ErrUnsupportedFormat      = domain.ErrUnsupportedFormat
	ErrExtraction             = domain.ErrExtraction
	ErrEmptyDocument          = domain.ErrEmptyDocument
	ErrRateLimited            = domain.ErrRateLimited
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
	ErrEmbeddingQuotaExceeded = domain.ErrEmbeddingQuotaExceeded
	ErrProviderError          = domain.ErrProviderError
)
