package rate

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/MrEthical07/authcore/internal/cache"
)

const signInNamespace = "asi"

// Config holds sign-in throttling parameters.
type Config struct {
	Enabled          bool
	MaxSignInFailure int
	Cooldown         time.Duration
}

// Limiter throttles failed sign-ins per identifier using counters in the
// cache, so every call is subject to the client's retry and backoff policy.
// A nil *Limiter or an unconfigured client allows everything.
type Limiter struct {
	ns     cache.Namespace
	config Config
}

// New creates a [Limiter] on client.
func New(client *cache.Client, cfg Config) *Limiter {
	return &Limiter{
		ns:     client.Namespace(signInNamespace),
		config: cfg,
	}
}

func (l *Limiter) active() bool {
	return l != nil && l.config.Enabled && l.ns.Client().Configured()
}

// CheckSignIn returns ErrRateLimited when identifier has exhausted its budget.
func (l *Limiter) CheckSignIn(ctx context.Context, identifier string) error {
	if !l.active() {
		return nil
	}

	raw, found, err := l.ns.Get(ctx, signInKey(identifier))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRedisUnavailable, err)
	}
	if !found {
		return nil
	}

	count, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return fmt.Errorf("%w: corrupt counter: %v", ErrRedisUnavailable, err)
	}
	if count >= int64(l.config.MaxSignInFailure) {
		return ErrRateLimited
	}
	return nil
}

// RecordFailure counts one failed sign-in for identifier.
func (l *Limiter) RecordFailure(ctx context.Context, identifier string) error {
	if !l.active() {
		return nil
	}

	key := signInKey(identifier)
	count, err := l.ns.Incr(ctx, key)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRedisUnavailable, err)
	}

	// Fixed window: the TTL is set by the first hit only.
	if count == 1 {
		if _, err := l.ns.Expire(ctx, key, l.config.Cooldown); err != nil {
			return fmt.Errorf("%w: %w", ErrRedisUnavailable, err)
		}
	}
	return nil
}

// Reset clears the failure counter after a successful sign-in.
func (l *Limiter) Reset(ctx context.Context, identifier string) error {
	if !l.active() {
		return nil
	}

	if _, err := l.ns.Delete(ctx, signInKey(identifier)); err != nil {
		return fmt.Errorf("%w: %w", ErrRedisUnavailable, err)
	}
	return nil
}

func signInKey(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}
