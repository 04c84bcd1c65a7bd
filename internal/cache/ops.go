package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Ping round-trips PING and returns its latency.
func (c *Client) Ping(ctx context.Context) (time.Duration, error) {
	var latency time.Duration
	err := c.do(ctx, "ping", func(ctx context.Context) error {
		start := time.Now()
		if err := c.rdb.Ping(ctx).Err(); err != nil {
			return err
		}
		latency = time.Since(start)
		return nil
	})
	return latency, err
}

// Get returns the value at key. found is false on a miss.
func (c *Client) Get(ctx context.Context, key string) (value []byte, found bool, err error) {
	err = c.do(ctx, "get", func(ctx context.Context) error {
		b, err := c.rdb.Get(ctx, key).Bytes()
		if err != nil {
			return err
		}
		value = b
		return nil
	})
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// Set stores value at key with ttl in a single SET ... PX.
func (c *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.do(ctx, "set", func(ctx context.Context) error {
		return c.rdb.Set(ctx, key, value, ttl).Err()
	})
}

// SetExisting overwrites key only if it still exists (SET ... XX). It
// reports whether the write happened.
func (c *Client) SetExisting(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	var ok bool
	err := c.do(ctx, "set xx", func(ctx context.Context) error {
		var err error
		ok, err = c.rdb.SetXX(ctx, key, value, ttl).Result()
		return err
	})
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	return ok, err
}

// Incr increments the integer at key, creating it at 1.
func (c *Client) Incr(ctx context.Context, key string) (int64, error) {
	var n int64
	err := c.do(ctx, "incr", func(ctx context.Context) error {
		var err error
		n, err = c.rdb.Incr(ctx, key).Result()
		return err
	})
	return n, err
}

// Delete removes keys and returns how many existed.
func (c *Client) Delete(ctx context.Context, keys ...string) (int64, error) {
	var n int64
	err := c.do(ctx, "del", func(ctx context.Context) error {
		var err error
		n, err = c.rdb.Del(ctx, keys...).Result()
		return err
	})
	return n, err
}

// Exists reports whether key is present.
func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	var n int64
	err := c.do(ctx, "exists", func(ctx context.Context) error {
		var err error
		n, err = c.rdb.Exists(ctx, key).Result()
		return err
	})
	return n > 0, err
}

// Expire resets the TTL of key. It returns false if key does not exist.
func (c *Client) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	var ok bool
	err := c.do(ctx, "expire", func(ctx context.Context) error {
		var err error
		ok, err = c.rdb.Expire(ctx, key, ttl).Result()
		return err
	})
	return ok, err
}

// TTL returns the remaining lifetime of key. Redis reports -2 for a missing
// key and -1 for a key without expiry; both are returned as-is in seconds.
func (c *Client) TTL(ctx context.Context, key string) (time.Duration, error) {
	var ttl time.Duration
	err := c.do(ctx, "ttl", func(ctx context.Context) error {
		var err error
		ttl, err = c.rdb.TTL(ctx, key).Result()
		return err
	})
	return ttl, err
}

// Health is a point-in-time view of the connection.
type Health struct {
	Healthy    bool          `json:"healthy"`
	State      string        `json:"state"`
	Latency    time.Duration `json:"latency_ns"`
	ErrorCount int           `json:"error_count"`
	LastError  string        `json:"last_error,omitempty"`
}

// Health pings the server and reports the resulting state. The client is
// healthy when connected and its consecutive error count is below the
// configured threshold.
func (c *Client) Health(ctx context.Context) Health {
	if !c.Configured() {
		return Health{State: StateUnconfigured.String(), LastError: ErrUnconfigured.Error()}
	}

	latency, pingErr := c.Ping(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	h := Health{
		Healthy:    c.state == StateConnected && c.errorCount < c.cfg.UnhealthyErrorCount,
		State:      c.state.String(),
		Latency:    latency,
		ErrorCount: c.errorCount,
	}
	if pingErr != nil {
		h.Healthy = false
		h.LastError = pingErr.Error()
	} else if c.lastError != nil {
		h.LastError = c.lastError.Error()
	}
	return h
}

// Namespace scopes keys under a fixed prefix, rendering "<prefix>:<key>".
type Namespace struct {
	client *Client
	prefix string
}

// Namespace returns a view of c whose keys are prefixed with prefix.
func (c *Client) Namespace(prefix string) Namespace {
	return Namespace{client: c, prefix: prefix}
}

// Key renders the full Redis key for key.
func (n Namespace) Key(key string) string {
	return n.prefix + ":" + key
}

// Client returns the underlying client.
func (n Namespace) Client() *Client { return n.client }

// Get reads key. found is false on a miss.
func (n Namespace) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return n.client.Get(ctx, n.Key(key))
}

// Set writes key with ttl.
func (n Namespace) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return n.client.Set(ctx, n.Key(key), value, ttl)
}

// SetExisting writes key with ttl only if it is still present.
func (n Namespace) SetExisting(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	return n.client.SetExisting(ctx, n.Key(key), value, ttl)
}

// Incr increments the counter at key.
func (n Namespace) Incr(ctx context.Context, key string) (int64, error) {
	return n.client.Incr(ctx, n.Key(key))
}

// Delete removes key and reports whether it existed.
func (n Namespace) Delete(ctx context.Context, key string) (bool, error) {
	count, err := n.client.Delete(ctx, n.Key(key))
	return count > 0, err
}

// Exists reports whether key is present.
func (n Namespace) Exists(ctx context.Context, key string) (bool, error) {
	return n.client.Exists(ctx, n.Key(key))
}

// Expire resets the TTL of key.
func (n Namespace) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return n.client.Expire(ctx, n.Key(key), ttl)
}

// TTL returns the remaining lifetime of key.
func (n Namespace) TTL(ctx context.Context, key string) (time.Duration, error) {
	return n.client.TTL(ctx, n.Key(key))
}
