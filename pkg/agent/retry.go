package agent

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"irabuilder/pkg/logx"
)

// Retry bounds. Retries are bounded and short so a single orchestrator
// method never stalls behind an unbounded backoff loop; persistent failures
// surface to the caller, which owns the longer retry policy.
const (
	defaultRetryAttempts = 3
	initialRetryDelay    = 2 * time.Second
	maxRetryDelay        = 20 * time.Second
	backoffFactor        = 2.0
)

// RetryingClient wraps an LLMClient with bounded exponential backoff for
// retryable error classes.
type RetryingClient struct {
	inner    LLMClient
	attempts int
	logger   *logx.Logger
}

// WithRetry decorates a client with the default retry policy.
func WithRetry(inner LLMClient) *RetryingClient {
	return &RetryingClient{
		inner:    inner,
		attempts: defaultRetryAttempts,
		logger:   logx.NewLogger("llm-retry"),
	}
}

// Complete calls the wrapped client, retrying rate-limit and transient
// failures with jittered exponential backoff.
func (r *RetryingClient) Complete(ctx context.Context, in CompletionRequest) (CompletionResponse, error) {
	var lastErr error
	delay := initialRetryDelay

	for attempt := 1; attempt <= r.attempts; attempt++ {
		resp, err := r.inner.Complete(ctx, in)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		var llmErr *Error
		if !errors.As(err, &llmErr) || !llmErr.Type.Retryable() {
			return CompletionResponse{}, err
		}
		if attempt == r.attempts {
			break
		}

		// Jitter of up to 25% avoids synchronized retries.
		//nolint:gosec // non-cryptographic jitter
		wait := delay + time.Duration(rand.Int63n(int64(delay)/4+1))
		r.logger.Warn("LLM call failed (%s), retry %d/%d in %s", llmErr.Type, attempt, r.attempts-1, wait)

		select {
		case <-ctx.Done():
			return CompletionResponse{}, ctx.Err()
		case <-time.After(wait):
		}

		delay = time.Duration(float64(delay) * backoffFactor)
		if delay > maxRetryDelay {
			delay = maxRetryDelay
		}
	}

	return CompletionResponse{}, lastErr
}
