package cache

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrUnconfigured is returned by every operation when no Redis endpoint was configured.
	ErrUnconfigured = errors.New("cache: not configured")
	// ErrUnavailable wraps failures after retries, fail-fast errors and backoff short-circuits.
	ErrUnavailable = errors.New("cache: unavailable")
)

var nonRetryablePrefixes = []string{
	"NOAUTH",
	"WRONGPASS",
	"NOPERM",
	"READONLY",
	"MOVED",
	"ASK",
}

// retryable reports whether err is worth another attempt. parent is the
// caller's context; its cancellation is never retried.
func retryable(parent context.Context, err error) bool {
	if parent.Err() != nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	msg := err.Error()
	for _, prefix := range nonRetryablePrefixes {
		if strings.HasPrefix(msg, prefix+" ") || msg == prefix {
			return false
		}
	}
	return true
}
