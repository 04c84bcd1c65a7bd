// Package cache wraps the Redis client used for sessions with connection-state
// tracking, bounded retries and a failure backoff.
//
// # States
//
//	Unconfigured  no Redis URL was supplied; every call returns ErrUnconfigured
//	Connecting    configured, no command has succeeded yet (or probing after backoff)
//	Connected     the last command succeeded
//	Degraded      retries were exhausted; calls short-circuit until the backoff ends
//
// The state is checked once at the start of every operation.
//
// # Retry policy
//
// Each attempt runs under its own command timeout. Transient failures are
// retried up to MaxAttempts with RetryInterval between attempts. Authentication,
// permission, read-only replica and cluster redirect errors fail fast, as does
// cancellation of the caller's context.
//
// # What this package must NOT do
//
//   - Encode or interpret values; callers own serialization.
//   - Log keys, since session keys embed the session id.
package cache
