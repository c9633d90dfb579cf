package querycache

import (
	"context"
	"errors"
	"net/http"
	"time"

	"eduplatform-web/internal/domain"
)

const (
	MaxRetries     = 3
	BaseRetryDelay = time.Second
	MaxRetryDelay  = 30 * time.Second
)

// RetryDecision is the outcome of the retry policy for one failure
type RetryDecision struct {
	Retry bool
	Delay time.Duration
}

// Retry decides whether a read should be attempted again after its
// failures-th consecutive failure (1 for the first). Client errors other than
// 429, malformed replies and local validation failures are final. Anything
// else is retried up to MaxRetries times, waiting 1s, 2s, 4s... capped at
// MaxRetryDelay.
func Retry(failures int, err error) RetryDecision {
	if failures < 1 || failures > MaxRetries || err == nil {
		return RetryDecision{}
	}
	if errors.Is(err, context.Canceled) {
		return RetryDecision{}
	}

	status := domain.StatusOf(err)
	if status >= 400 && status < 500 && status != http.StatusTooManyRequests {
		return RetryDecision{}
	}
	if errors.Is(err, domain.ErrMalformedResponse) || errors.Is(err, domain.ErrInvalidInput) {
		return RetryDecision{}
	}

	return RetryDecision{Retry: true, Delay: RetryDelay(failures)}
}

// RetryDelay is the wait before retry n (1-based): min(1s·2^(n-1), 30s)
func RetryDelay(n int) time.Duration {
	if n < 1 {
		return 0
	}
	d := BaseRetryDelay
	for i := 1; i < n; i++ {
		d *= 2
		if d >= MaxRetryDelay {
			return MaxRetryDelay
		}
	}
	return d
}
