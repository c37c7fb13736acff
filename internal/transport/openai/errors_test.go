package openai

import (
	"errors"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

func TestParseAPIError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{
			name:   "request error with detail",
			err:    &openai.RequestError{HTTPStatusCode: 400, Body: []byte(`{"detail":"bad input"}`)},
			status: 400,
			body:   "bad input",
		},
		{
			name:   "request error raw body",
			err:    &openai.RequestError{HTTPStatusCode: 502, Body: []byte("bad gateway")},
			status: 502,
			body:   "bad gateway",
		},
		{
			name:   "api error",
			err:    &openai.APIError{HTTPStatusCode: 429, Message: "slow down"},
			status: 429,
			body:   "slow down",
		},
		{
			name:   "transport error",
			err:    errors.New("dial tcp: connection refused"),
			status: 0,
			body:   "dial tcp: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := parseAPIError(domain.ErrProviderError, tt.err)
			var pe *domain.ProviderError
			if !errors.As(err, &pe) {
				t.Fatalf("expected ProviderError, got %T", err)
			}
			if pe.Status != tt.status || pe.Body != tt.body {
				t.Errorf("got status=%d body=%q, want %d %q", pe.Status, pe.Body, tt.status, tt.body)
			}
			if !errors.Is(err, domain.ErrProviderError) {
				t.Error("expected kind sentinel")
			}
		})
	}
}

func TestParseAPIError_KeepsProviderError(t *testing.T) {
	orig := domain.NewProviderError(domain.ErrEmbeddingProviderError, 500, "x")
	if got := parseAPIError(domain.ErrProviderError, orig); got != error(orig) {
		t.Errorf("expected the original error back, got %v", got)
	}
}
