package probe

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryChecker re-runs Inner with a constant backoff until it succeeds,
// Attempts is exhausted or ctx is done. The last result is returned
// unchanged apart from Attempts.
type RetryChecker struct {
	Inner    Checker
	Attempts int
	Backoff  time.Duration
}

// WithRetry wraps c when attempts > 1 and returns c otherwise.
func WithRetry(c Checker, attempts int, wait time.Duration) Checker {
	if attempts <= 1 {
		return c
	}
	return &RetryChecker{Inner: c, Attempts: attempts, Backoff: wait}
}

func (r *RetryChecker) Check(ctx context.Context, target string) CheckResult {
	attempts := r.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var (
		last CheckResult
		n    int
	)
	op := func() error {
		n++
		last = r.Inner.Check(ctx, target)
		if last.Success {
			return nil
		}
		return errors.New(last.Message)
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(r.Backoff), uint64(attempts-1)),
		ctx,
	)
	_ = backoff.Retry(op, b)

	last.Attempts = n
	return last
}
