// Package backoff retries provider calls that fail with transient errors.
package backoff

import (
	"context"
	"time"
)

// Delay returns the wait before retry number attempt (0-based):
// 200ms doubled per attempt, capped at 5s.
func Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 5 {
		return 5 * time.Second
	}
	base := 200 * time.Millisecond
	d := base << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}

// Retry calls fn until it succeeds, returns a non-retryable error, or
// maxRetries retries have been spent. The last error is returned.
func Retry(ctx context.Context, maxRetries int, retryable func(error) bool, fn func() error) error {
	return retry(ctx, maxRetries, retryable, fn, Delay)
}

func retry(ctx context.Context, maxRetries int, retryable func(error) bool, fn func() error, delay func(int) time.Duration) error {
	var err error
	for attempt := 0; ; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt >= maxRetries || retryable == nil || !retryable(err) {
			return err
		}
		t := time.NewTimer(delay(attempt))
		select {
		case <-ctx.Done():
			t.Stop()
			return err
		case <-t.C:
		}
	}
}
