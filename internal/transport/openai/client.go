package openai

import (
	"context"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

// DefaultTimeout bounds a single provider HTTP call.
const DefaultTimeout = 60 * time.Second

const maxAttempts = 2

func newClient(apiKey, baseURL string, timeout time.Duration) *openai.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}
	return openai.NewClientWithConfig(cfg)
}

// newLimiter builds a token bucket. rps <= 0 disables throttling.
func newLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// callWithRetry waits on the limiter and runs fn. A transient failure
// (no response or 5xx) is retried once; 4xx never is.
func callWithRetry[T any](
	ctx context.Context, limiter *rate.Limiter, kind error,
	onRetry func(err error), fn func(ctx context.Context) (T, error),
) (T, error) {
	var zero T
	var lastErr error
	for attempt := range maxAttempts {
		if attempt > 0 {
			onRetry(lastErr)
		}
		if err := limiter.Wait(ctx); err != nil {
			return zero, fmt.Errorf("%w: rate limiter: %w", kind, err)
		}

		res, err := fn(ctx)
		if err == nil {
			return res, nil
		}
		lastErr = parseAPIError(kind, err)
		if ctx.Err() != nil || !domain.IsTransient(lastErr) {
			return zero, lastErr
		}
	}
	return zero, lastErr
}
