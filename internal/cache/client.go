package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Config tunes retries, timeouts and backoff.
type Config struct {
	MaxAttempts         int
	RetryInterval       time.Duration
	CommandTimeout      time.Duration
	ConnectTimeout      time.Duration
	FailureBackoff      time.Duration
	UnhealthyErrorCount int
}

// DefaultConfig mirrors the limits used in production: 3 attempts one second
// apart, 5s per command, 10s to connect and a 30s backoff after exhaustion.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:         3,
		RetryInterval:       time.Second,
		CommandTimeout:      5 * time.Second,
		ConnectTimeout:      10 * time.Second,
		FailureBackoff:      30 * time.Second,
		UnhealthyErrorCount: 5,
	}
}

// StateChangeFunc observes state transitions.
type StateChangeFunc func(from, to State)

// Client is a resilient wrapper around a redis.UniversalClient. The zero
// value is not usable; construct with [New] or [Open].
type Client struct {
	rdb    redis.UniversalClient
	cfg    Config
	logger *zap.Logger
	notify StateChangeFunc

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	mu            sync.Mutex
	state         State
	errorCount    int
	lastError     error
	degradedUntil time.Time
}

// Option customizes a [Client].
type Option func(*Client)

// WithLogger sets the logger used for state transitions.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithStateChange registers fn to be called on every state transition.
func WithStateChange(fn StateChangeFunc) Option {
	return func(c *Client) {
		c.notify = fn
	}
}

// New wraps rdb. A nil rdb yields a client in StateUnconfigured.
func New(rdb redis.UniversalClient, cfg Config, opts ...Option) *Client {
	c := &Client{
		rdb:    rdb,
		cfg:    withDefaults(cfg),
		logger: zap.NewNop(),
		now:    time.Now,
		sleep:  sleepContext,
		state:  StateConnecting,
	}
	if rdb == nil {
		c.state = StateUnconfigured
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Open parses url and dials lazily. An empty url yields an unconfigured
// client. password, when set, overrides any password in url.
func Open(url, password string, cfg Config, opts ...Option) (*Client, error) {
	if url == "" {
		return New(nil, cfg, opts...), nil
	}

	cfg = withDefaults(cfg)
	redisOpts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("cache: parse url: %w", err)
	}
	if password != "" {
		redisOpts.Password = password
	}
	redisOpts.DialTimeout = cfg.ConnectTimeout
	redisOpts.ReadTimeout = cfg.CommandTimeout
	redisOpts.WriteTimeout = cfg.CommandTimeout
	// Retries are owned by Client.do.
	redisOpts.MaxRetries = -1

	return New(redis.NewClient(redisOpts), cfg, opts...), nil
}

func withDefaults(cfg Config) Config {
	def := DefaultConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.RetryInterval < 0 {
		cfg.RetryInterval = 0
	}
	if cfg.CommandTimeout <= 0 {
		cfg.CommandTimeout = def.CommandTimeout
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = def.ConnectTimeout
	}
	if cfg.FailureBackoff <= 0 {
		cfg.FailureBackoff = def.FailureBackoff
	}
	if cfg.UnhealthyErrorCount <= 0 {
		cfg.UnhealthyErrorCount = def.UnhealthyErrorCount
	}
	return cfg
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Configured reports whether a Redis endpoint was supplied.
func (c *Client) Configured() bool {
	return c != nil && c.rdb != nil
}

// Close releases the underlying connection pool.
func (c *Client) Close() error {
	if !c.Configured() {
		return nil
	}
	return c.rdb.Close()
}

// do runs fn under the retry policy. redis.Nil is passed through as success
// from the connection's point of view.
func (c *Client) do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	if !c.Configured() {
		return ErrUnconfigured
	}
	if err := c.admit(); err != nil {
		return err
	}

	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.CommandTimeout)
		err := fn(attemptCtx)
		cancel()

		if err == nil || errors.Is(err, redis.Nil) {
			c.recordSuccess()
			return err
		}
		lastErr = err

		if !retryable(ctx, err) {
			c.recordFailure(err, false)
			return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
		}
		if attempt < c.cfg.MaxAttempts {
			if err := c.sleep(ctx, c.cfg.RetryInterval); err != nil {
				c.recordFailure(lastErr, false)
				return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, lastErr)
			}
		}
	}

	c.recordFailure(lastErr, true)
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, lastErr)
}

// admit short-circuits while degraded and moves to Connecting once the
// backoff has elapsed.
func (c *Client) admit() error {
	c.mu.Lock()
	if c.state != StateDegraded {
		c.mu.Unlock()
		return nil
	}
	if c.now().Before(c.degradedUntil) {
		c.mu.Unlock()
		return fmt.Errorf("%w: backing off after repeated failures", ErrUnavailable)
	}
	from := c.setStateLocked(StateConnecting)
	c.mu.Unlock()

	c.emit(from, StateConnecting)
	return nil
}

func (c *Client) recordSuccess() {
	c.mu.Lock()
	c.errorCount = 0
	c.lastError = nil
	from := c.setStateLocked(StateConnected)
	c.mu.Unlock()

	c.emit(from, StateConnected)
}

func (c *Client) recordFailure(err error, exhausted bool) {
	c.mu.Lock()
	c.errorCount++
	c.lastError = err
	from := c.state
	if exhausted {
		c.degradedUntil = c.now().Add(c.cfg.FailureBackoff)
		from = c.setStateLocked(StateDegraded)
	}
	c.mu.Unlock()

	if exhausted {
		c.emit(from, StateDegraded)
	}
}

func (c *Client) setStateLocked(to State) State {
	from := c.state
	c.state = to
	return from
}

func (c *Client) emit(from, to State) {
	if from == to {
		return
	}
	if to == StateDegraded {
		c.logger.Warn("cache degraded", zap.Stringer("from", from), zap.Duration("backoff", c.cfg.FailureBackoff))
	} else {
		c.logger.Info("cache state changed", zap.Stringer("from", from), zap.Stringer("to", to))
	}
	if c.notify != nil {
		c.notify(from, to)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
