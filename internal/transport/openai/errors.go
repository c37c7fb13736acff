package openai

import (
	"encoding/json"
	"errors"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

// parseAPIError converts a go-openai failure into *domain.ProviderError of the given kind.
// Failures without an HTTP response get status 0.
func parseAPIError(kind, err error) error {
	var pe *domain.ProviderError
	if errors.As(err, &pe) {
		return err
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		body := extractDetail(reqErr.Body)
		if body == "" {
			body = string(reqErr.Body)
		}
		if body == "" && reqErr.Err != nil {
			body = reqErr.Err.Error()
		}
		return domain.NewProviderError(kind, reqErr.HTTPStatusCode, body)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return domain.NewProviderError(kind, apiErr.HTTPStatusCode, apiErr.Message)
	}

	return domain.NewProviderError(kind, 0, err.Error())
}

// extractDetail pulls "detail" (Nebius) or "error.message" out of a JSON error body.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
		Error  struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &parsed) != nil {
		return ""
	}
	if parsed.Detail != "" {
		return parsed.Detail
	}
	return parsed.Error.Message
}
