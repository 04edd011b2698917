package gmaps

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"
)

const maxAttempts = 4

// baseBackoff is the first retry delay; it doubles on each attempt.
var baseBackoff = 200 * time.Millisecond

// withRetry retries transient failures (network errors, quota and unknown
// server statuses) using exponential backoff while respecting context cancellation.
func withRetry[T any](ctx context.Context, call func() (T, error)) (T, error) {
	var zero T
	backoff := baseBackoff

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		res, err := call()
		if err == nil {
			return res, nil
		}
		lastErr = err

		if !isTransient(err) || attempt == maxAttempts {
			return zero, lastErr
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}

		backoff *= 2
	}

	return zero, lastErr
}

func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	msg := err.Error()
	return strings.Contains(msg, "OVER_QUERY_LIMIT") || strings.Contains(msg, "UNKNOWN_ERROR")
}
