package retry

import (
	"context"
	"fmt"
	"time"
)

// BackoffFunc returns the delay to wait after the given failed attempt (1-based).
type BackoffFunc func(attempt int, err error) time.Duration

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Policy bounds a retried operation.
type Policy struct {
	MaxAttempts int
	Backoff     BackoffFunc
	// Sleep defaults to a timer that honours ctx cancellation.
	Sleep SleepFunc
	// OnRetry is called before each wait.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// Result reports how many attempts an operation took.
type Result struct {
	Attempts int
}

// Do runs op until it succeeds or MaxAttempts is reached. The error of the last
// attempt is returned unchanged; there is no wait after the final attempt.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, Result, error) {
	var zero T

	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	sleep := p.Sleep
	if sleep == nil {
		sleep = Wait
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		value, err := op(ctx)
		if err == nil {
			return value, Result{Attempts: attempt}, nil
		}
		lastErr = err

		if attempt == maxAttempts {
			break
		}

		var delay time.Duration
		if p.Backoff != nil {
			delay = p.Backoff(attempt, err)
		}

		if p.OnRetry != nil {
			p.OnRetry(attempt, delay, err)
		}

		if err := sleep(ctx, delay); err != nil {
			return zero, Result{Attempts: attempt}, fmt.Errorf("retry cancelled: %w", err)
		}
	}

	return zero, Result{Attempts: maxAttempts}, lastErr
}

// Linear returns a backoff growing by step per attempt: step, 2*step, 3*step...
func Linear(step time.Duration) BackoffFunc {
	return func(attempt int, _ error) time.Duration {
		return time.Duration(attempt) * step
	}
}

// Constant returns a fixed backoff.
func Constant(d time.Duration) BackoffFunc {
	return func(int, error) time.Duration {
		return d
	}
}

// Wait blocks for d unless ctx is cancelled first.
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
