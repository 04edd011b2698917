package gmaps

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestWithRetryRecoversFromTransientStatus(t *testing.T) {
	baseBackoff = time.Millisecond
	t.Cleanup(func() { baseBackoff = 200 * time.Millisecond })

	calls := 0
	got, err := withRetry(context.Background(), func() (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("maps: OVER_QUERY_LIMIT - You have exceeded your rate-limit")
		}
		return 42, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 42 || calls != 3 {
		t.Fatalf("got %d after %d calls, want 42 after 3", got, calls)
	}
}

func TestWithRetryStopsOnPermanentError(t *testing.T) {
	baseBackoff = time.Millisecond
	t.Cleanup(func() { baseBackoff = 200 * time.Millisecond })

	calls := 0
	_, err := withRetry(context.Background(), func() (int, error) {
		calls++
		return 0, errors.New("maps: REQUEST_DENIED - The provided API key is invalid")
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if calls != 1 {
		t.Fatalf("permanent error retried: calls = %d", calls)
	}
}

func TestWithRetryGivesUpAfterMaxAttempts(t *testing.T) {
	baseBackoff = time.Millisecond
	t.Cleanup(func() { baseBackoff = 200 * time.Millisecond })

	calls := 0
	_, err := withRetry(context.Background(), func() (int, error) {
		calls++
		return 0, errors.New("maps: UNKNOWN_ERROR - ")
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if calls != maxAttempts {
		t.Fatalf("calls = %d, want %d", calls, maxAttempts)
	}
}

func TestWithRetryHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := withRetry(ctx, func() (int, error) {
		calls++
		return 0, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if calls != 0 {
		t.Fatalf("call made on cancelled context")
	}
}
