package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/domain"
	"github.com/kailas-cloud/ragdex/internal/logger"
)

// Error codes returned in the "code" field.
const (
	CodeBadRequest             = "bad_request"
	CodeInvalidSession         = "invalid_session"
	CodeInvalidMessage         = "invalid_message"
	CodeDimensionMismatch      = "dimension_mismatch"
	CodeInvalidConfiguration   = "invalid_configuration"
	CodeNotFound               = "not_found"
	CodeMethodNotAllowed       = "method_not_allowed"
	CodeUploadTooLarge         = "upload_too_large"
	CodeUnsupportedFormat      = "unsupported_format"
	CodeEmptyDocument          = "empty_document"
	CodeExtractionFailed       = "extraction_failed"
	CodeEmbeddingQuotaExceeded = "embedding_quota_exceeded"
	CodeRateLimited            = "rate_limited"
	CodeEmbeddingProviderError = "embedding_provider_error"
	CodeProviderError          = "provider_error"
	CodeInternalError          = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorRule maps a sentinel to a status. Order matters: the first match wins,
// so narrower sentinels come before the ones they are wrapped together with.
type errorRule struct {
	sentinel error
	status   int
	code     string
}

var errorRules = []errorRule{
	{domain.ErrInvalidScope, http.StatusBadRequest, CodeInvalidSession},
	{domain.ErrInvalidTurn, http.StatusBadRequest, CodeInvalidMessage},
	{domain.ErrInvalidArgument, http.StatusBadRequest, CodeBadRequest},
	{domain.ErrDimensionMismatch, http.StatusBadRequest, CodeDimensionMismatch},
	{domain.ErrConfiguration, http.StatusBadRequest, CodeInvalidConfiguration},
	{domain.ErrNotFound, http.StatusNotFound, CodeNotFound},
	{domain.ErrUnsupportedFormat, http.StatusUnsupportedMediaType, CodeUnsupportedFormat},
	{domain.ErrEmptyDocument, http.StatusUnprocessableEntity, CodeEmptyDocument},
	{domain.ErrExtraction, http.StatusUnprocessableEntity, CodeExtractionFailed},
	{domain.ErrEmbeddingQuotaExceeded, http.StatusTooManyRequests, CodeEmbeddingQuotaExceeded},
	{domain.ErrRateLimited, http.StatusTooManyRequests, CodeRateLimited},
	{domain.ErrEmbeddingProviderError, http.StatusBadGateway, CodeEmbeddingProviderError},
	{domain.ErrProviderError, http.StatusBadGateway, CodeProviderError},
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

func defaultErrorHandlers() []errorHandler {
	handlers := []errorHandler{uploadTooLargeHandler}
	for _, rule := range errorRules {
		handlers = append(handlers, sentinelHandler(rule))
	}
	return handlers
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(rule errorRule) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, rule.sentinel) {
			return false
		}
		writeError(w, rule.status, rule.code, rule.sentinel.Error())
		return true
	}
}

func uploadTooLargeHandler(w http.ResponseWriter, err error) bool {
	var mbe *http.MaxBytesError
	if !errors.As(err, &mbe) {
		return false
	}
	writeError(w, http.StatusRequestEntityTooLarge, CodeUploadTooLarge, "upload too large")
	return true
}

// errorCode classifies an error for per-item batch results.
func errorCode(err error) (code, message string) {
	for _, rule := range errorRules {
		if errors.Is(err, rule.sentinel) {
			return rule.code, rule.sentinel.Error()
		}
	}
	return CodeInternalError, "internal error"
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	for _, h := range s.errorHandlers {
		if h(w, err) {
			log.Warn("domain error", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}
