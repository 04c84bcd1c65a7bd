package session

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/MrEthical07/authcore/internal/cache"
	"github.com/MrEthical07/authcore/token"
)

const (
	// DefaultTTL is the lifetime of a session.
	DefaultTTL = 7 * 24 * time.Hour
	// DefaultTouchInterval is the minimum spacing between refresh writes.
	DefaultTouchInterval = 5 * time.Minute

	namespace     = "session"
	healthProbeID = "health-check-test"
)

var (
	// ErrSessionUnavailable is returned by Create when the cache cannot store the session.
	ErrSessionUnavailable = errors.New("session store unavailable")
	// ErrInvalidPayload is returned by Create for payloads without a user id or with an unknown role.
	ErrInvalidPayload = errors.New("invalid session payload")
)

// Event identifies an observable store outcome.
type Event int

const (
	EventCreated Event = iota
	EventTouchSkipped
	EventTouchWritten
	EventCorruptDeleted
	EventStaleDeleted
	EventDeleted
	EventCacheError
)

// Observer receives store events, typically to feed metrics.
type Observer interface {
	SessionEvent(Event)
}

// Config tunes session lifetime and refresh throttling.
type Config struct {
	TTL           time.Duration
	TouchInterval time.Duration
}

// Store persists sessions through a cache client. All methods are safe for
// concurrent use.
type Store struct {
	ns            cache.Namespace
	ttl           time.Duration
	touchInterval time.Duration
	logger        *zap.Logger
	observer      Observer
	now           func() time.Time
}

// NewStore returns a Store on client. Zero config values select defaults.
func NewStore(client *cache.Client, cfg Config, logger *zap.Logger, observer Observer) *Store {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.TouchInterval <= 0 {
		cfg.TouchInterval = DefaultTouchInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Store{
		ns:            client.Namespace(namespace),
		ttl:           cfg.TTL,
		touchInterval: cfg.TouchInterval,
		logger:        logger,
		observer:      observer,
		now:           time.Now,
	}
}

// TTL returns the configured session lifetime.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Create stores a new session for p and returns its id. Unlike the read
// paths, cache failures surface as ErrSessionUnavailable.
func (s *Store) Create(ctx context.Context, p Payload) (string, error) {
	if p.UserID == "" || !validRole(p.Role) {
		return "", ErrInvalidPayload
	}
	if !s.ns.Client().Configured() {
		return "", fmt.Errorf("%w: %v", ErrSessionUnavailable, cache.ErrUnconfigured)
	}

	id, err := token.NewSessionID()
	if err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}

	now := s.now()
	data, err := Encode(&Session{
		ID:           id,
		UserID:       p.UserID,
		Role:         p.Role,
		CreatedAt:    now,
		LastAccessed: now,
	})
	if err != nil {
		return "", err
	}

	if err := s.ns.Set(ctx, id, data, s.ttl); err != nil {
		s.emit(EventCacheError)
		return "", fmt.Errorf("%w: %v", ErrSessionUnavailable, err)
	}

	s.emit(EventCreated)
	return id, nil
}

// Get returns the session for id, or nil if it does not exist, cannot be
// read, or is corrupt. Corrupt records are deleted.
func (s *Store) Get(ctx context.Context, id string) *Session {
	if !validID(id) {
		return nil
	}

	data, found, err := s.ns.Get(ctx, id)
	if err != nil {
		s.cacheError("get", id, err)
		return nil
	}
	if !found {
		return nil
	}

	sess, err := Decode(id, data)
	if err != nil {
		s.logger.Warn("deleting corrupt session", zap.String("session", redact(id)), zap.Error(err))
		if _, delErr := s.ns.Delete(ctx, id); delErr != nil {
			s.cacheError("delete corrupt", id, delErr)
		}
		s.emit(EventCorruptDeleted)
		return nil
	}
	return sess
}

// Touch refreshes the session's last-access time and TTL. lastTouch is the
// caller's record of its previous refresh; when it lies within the touch
// interval Touch returns true without any cache I/O. It returns false if the
// session no longer exists, including when it is deleted concurrently, or
// the refresh could not be written.
func (s *Store) Touch(ctx context.Context, id string, lastTouch *time.Time) bool {
	now := s.now()
	if lastTouch != nil && !lastTouch.After(now) && now.Sub(*lastTouch) < s.touchInterval {
		s.emit(EventTouchSkipped)
		return true
	}

	sess := s.Get(ctx, id)
	if sess == nil {
		return false
	}

	sess.LastAccessed = now
	data, err := Encode(sess)
	if err != nil {
		return false
	}
	// XX: a session deleted after the read above stays deleted.
	written, err := s.ns.SetExisting(ctx, id, data, s.ttl)
	if err != nil {
		s.cacheError("touch", id, err)
		return false
	}
	if !written {
		return false
	}

	s.emit(EventTouchWritten)
	return true
}

// Delete removes the session. It reports whether a record was removed.
func (s *Store) Delete(ctx context.Context, id string) bool {
	if !validID(id) {
		return false
	}

	deleted, err := s.ns.Delete(ctx, id)
	if err != nil {
		s.cacheError("delete", id, err)
		return false
	}
	if deleted {
		s.emit(EventDeleted)
	}
	return deleted
}

// Validate is Get plus an idle check: sessions not refreshed within the TTL
// are deleted and reported as absent even if the cache still holds them.
// Touch keeps an active session alive past TTL from creation.
func (s *Store) Validate(ctx context.Context, id string) *Session {
	sess := s.Get(ctx, id)
	if sess == nil {
		return nil
	}

	if sess.Idle(s.now()) > s.ttl {
		s.logger.Info("deleting stale session", zap.String("session", redact(id)))
		if _, err := s.ns.Delete(ctx, id); err != nil {
			s.cacheError("delete stale", id, err)
		}
		s.emit(EventStaleDeleted)
		return nil
	}
	return sess
}

// HealthStatus reports cache connectivity for sessions.
type HealthStatus struct {
	Healthy bool         `json:"healthy"`
	Cache   cache.Health `json:"cache"`
	Probe   string       `json:"probe"`
}

// Health pings the cache and round-trips a probe key.
func (s *Store) Health(ctx context.Context) HealthStatus {
	status := HealthStatus{Cache: s.ns.Client().Health(ctx), Probe: "skipped"}
	if !status.Cache.Healthy {
		return status
	}

	if err := s.ns.Set(ctx, healthProbeID, []byte("ok"), 10*time.Second); err != nil {
		status.Probe = "write failed"
		return status
	}
	if _, err := s.ns.Delete(ctx, healthProbeID); err != nil {
		status.Probe = "delete failed"
		return status
	}

	status.Probe = "ok"
	status.Healthy = true
	return status
}

func (s *Store) cacheError(op, id string, err error) {
	s.emit(EventCacheError)
	if errors.Is(err, cache.ErrUnconfigured) {
		return
	}
	s.logger.Warn("session cache operation failed",
		zap.String("op", op),
		zap.String("session", redact(id)),
		zap.Error(err),
	)
}

func (s *Store) emit(e Event) {
	if s.observer != nil {
		s.observer.SessionEvent(e)
	}
}

func validID(id string) bool {
	if len(id) != token.RawSize*2 {
		return false
	}
	_, err := hex.DecodeString(id)
	return err == nil
}

// redact keeps enough of a session id to correlate log lines.
func redact(id string) string {
	if len(id) <= 8 {
		return "***"
	}
	return id[:8] + "..."
}
