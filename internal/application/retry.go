package application

import (
	"context"
	"fmt"
	"time"

	"github.com/bnema/drawloop/internal/domain"
)

type RetryPolicy struct {
	Attempts   int
	Backoff    time.Duration
	MaxBackoff time.Duration
	// Timeout bounds each attempt. Zero means no per-attempt deadline.
	Timeout time.Duration
	Sleep   func(ctx context.Context, d time.Duration) error
}

// Outcome is either a value or the error that ended the last attempt.
type Outcome[T any] struct {
	Value    T
	Attempts int
	Err      error
}

func (o Outcome[T]) OK() bool {
	return o.Err == nil
}

// Retry calls fn up to policy.Attempts times with exponential backoff between
// attempts. Cancellation of ctx stops immediately.
func Retry[T any](ctx context.Context, policy RetryPolicy, fn func(context.Context) (T, error)) Outcome[T] {
	attempts := policy.Attempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := policy.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var (
		zero    T
		lastErr error
	)
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return Outcome[T]{Attempts: attempt - 1, Err: err}
		}

		value, err := callWithTimeout(ctx, policy.Timeout, fn)
		if err == nil {
			return Outcome[T]{Value: value, Attempts: attempt}
		}
		lastErr = err

		if ctx.Err() != nil {
			return Outcome[T]{Attempts: attempt, Err: ctx.Err()}
		}
		if attempt == attempts {
			break
		}

		if err := sleep(ctx, backoffFor(policy, attempt)); err != nil {
			return Outcome[T]{Attempts: attempt, Err: err}
		}
	}

	return Outcome[T]{
		Value:    zero,
		Attempts: attempts,
		Err:      fmt.Errorf("%w after %d attempts: %w", domain.ErrConversionExhausted, attempts, lastErr),
	}
}

func callWithTimeout[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		return fn(ctx)
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(callCtx)
}

func backoffFor(policy RetryPolicy, attempt int) time.Duration {
	if policy.Backoff <= 0 {
		return 0
	}

	d := policy.Backoff << (attempt - 1)
	if d <= 0 || (policy.MaxBackoff > 0 && d > policy.MaxBackoff) {
		d = policy.MaxBackoff
	}

	return d
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
