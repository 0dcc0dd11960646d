package notifications

import (
	"errors"
	"time"
)

// Queue errors.
var (
	ErrQueueFull     = errors.New("notification queue is full")
	ErrWorkerStopped = errors.New("notification worker is stopped")
)

// ErrNoSender is returned when no sender is registered for a channel type.
var ErrNoSender = errors.New("no sender for channel type")

type retryable interface {
	IsRetryable() bool
}

type retryAfter interface {
	RetryAfterHint() time.Duration
}

// isRetryable reports whether a send error may succeed on a later attempt.
// Errors that do not classify themselves are treated as transient.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNoSender) {
		return false
	}
	var r retryable
	if errors.As(err, &r) {
		return r.IsRetryable()
	}
	return true
}

// retryAfterHint returns the delay a sender asked for, or zero.
func retryAfterHint(err error) time.Duration {
	var r retryAfter
	if errors.As(err, &r) {
		return r.RetryAfterHint()
	}
	return 0
}
