// Package retry runs startup dial operations with capped exponential backoff.
package retry

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const maxBackoff = 16 * time.Second

// Op is one attempt. It is called with the attempt number starting at 1.
type Op func(ctx context.Context, attempt int) error

// Do calls op up to attempts times, sleeping 1s, 2s, 4s ... (capped at 16s)
// between failures. It returns nil on the first success, the context error
// if ctx ends while waiting, or the last op error.
func Do(ctx context.Context, what string, attempts int, op Op) error {
	return do(ctx, what, attempts, op, sleep)
}

func do(ctx context.Context, what string, attempts int, op Op, wait func(context.Context, time.Duration) bool) error {
	attempts = max(attempts, 1)

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = op(ctx, attempt); err == nil {
			return nil
		}
		if attempt == attempts {
			break
		}

		backoff := Backoff(attempt)
		slog.Warn(what+" failed, retrying",
			"attempt", attempt,
			"max_attempts", attempts,
			"backoff", backoff,
			"error", err,
		)
		if !wait(ctx, backoff) {
			return fmt.Errorf("%s cancelled: %w", what, ctx.Err())
		}
	}

	return fmt.Errorf("%s after %d attempts: %w", what, attempts, err)
}

// Backoff returns the wait after the given failed attempt.
func Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 5 {
		return maxBackoff
	}
	return min(time.Duration(1<<(attempt-1))*time.Second, maxBackoff)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
