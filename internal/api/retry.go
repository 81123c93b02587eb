package api

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"time"
)

const (
	defaultMaxAttempts = 3

	baseDelay = 500 * time.Millisecond
	maxDelay  = 5 * time.Second
)

// Retry calls fn up to maxAttempts times with jittered exponential backoff.
// A 4xx [*StatusError] is permanent and ends the loop at once; every other
// error is retried. The last error is wrapped when attempts run out.
func Retry(ctx context.Context, maxAttempts int, fn func() error) error {
	var lastErr error
	for attempt := range maxAttempts {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("retry cancelled: %w", err)
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if permanent(lastErr) {
			return lastErr
		}

		if attempt < maxAttempts-1 {
			t := time.NewTimer(backoffDelay(attempt))
			select {
			case <-ctx.Done():
				t.Stop()
				return fmt.Errorf("retry cancelled: %w", ctx.Err())
			case <-t.C:
			}
		}
	}
	return fmt.Errorf("all %d attempts failed: %w", maxAttempts, lastErr)
}

func permanent(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	return se.StatusCode >= http.StatusBadRequest && se.StatusCode < http.StatusInternalServerError
}

// backoffDelay doubles per attempt up to maxDelay and returns a value in
// [delay/2, delay).
func backoffDelay(attempt int) time.Duration {
	delay := baseDelay << attempt
	if delay > maxDelay || delay <= 0 {
		delay = maxDelay
	}
	return delay/2 + rand.N(delay/2) //nolint:gosec // jitter does not need crypto/rand
}
