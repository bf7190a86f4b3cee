package github

import (
	"context"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
)

const (
	defaultMaxAttempts = 3
	defaultBaseDelay   = time.Second
)

// RetryPolicy bounds the retry loop around remote calls.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultRetryPolicy retries up to 3 attempts with exponential backoff
// starting at 1s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: defaultMaxAttempts, BaseDelay: defaultBaseDelay}
}

func (p RetryPolicy) backoff() retry.Backoff {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = defaultMaxAttempts
	}
	delay := p.BaseDelay
	if delay <= 0 {
		delay = defaultBaseDelay
	}
	return retry.WithMaxRetries(uint64(attempts-1), retry.NewExponential(delay))
}

// WithRetry runs fn under the policy's attempt budget with exponential
// backoff. 404 and 401 responses are surfaced immediately since retrying
// cannot change the outcome; every other error is retried until the budget
// is exhausted, then the last error propagates.
func WithRetry[T any](ctx context.Context, policy RetryPolicy, logger *slog.Logger, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T

	attempt := 0
	err := retry.Do(ctx, policy.backoff(), func(ctx context.Context) error {
		attempt++
		var err error
		result, err = fn(ctx)
		if err == nil {
			return nil
		}
		if IsNotFound(err) || IsUnauthorized(err) {
			return err
		}
		logger.Warn("remote call failed, will retry",
			"attempt", attempt,
			"max_attempts", policy.MaxAttempts,
			"error", err,
		)
		return retry.RetryableError(err)
	})

	return result, err
}
