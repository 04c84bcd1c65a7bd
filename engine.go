package authcore

import (
	"context"
	"database/sql"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/MrEthical07/authcore/internal/audit"
	"github.com/MrEthical07/authcore/internal/cache"
	"github.com/MrEthical07/authcore/internal/flows"
	"github.com/MrEthical07/authcore/internal/notify"
	"github.com/MrEthical07/authcore/internal/rate"
	"github.com/MrEthical07/authcore/internal/stores"
	"github.com/MrEthical07/authcore/session"
)

// Session is an authenticated server-side session.
type Session = session.Session

// SignUpInput is the sign-up form.
type SignUpInput = flows.SignUpInput

// Engine runs the authentication flows against Postgres and Redis.
//
// Engine methods are safe for concurrent use once [Builder.Build] returns.
type Engine struct {
	config Config
	logger *zap.Logger
	now    func() time.Time

	db           *sql.DB
	cache        *cache.Client
	ownsCache    bool
	sessions     *session.Store
	verification *stores.EmailVerificationStore
	reset        *stores.PasswordResetStore
	limiter      *rate.Limiter
	flows        flows.Service

	audit         *audit.Dispatcher
	notifications *notify.Dispatcher
	metrics       *Metrics

	wasDegraded atomic.Bool
}

// Close stops the audit and notification workers after draining them and
// releases a Redis connection opened by the builder.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.notifications.Close()
	e.audit.Close()
	if e.ownsCache {
		if err := e.cache.Close(); err != nil {
			e.logger.Warn("closing cache client", zap.Error(err))
		}
	}
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() Config {
	return e.config
}

// AuditDropped returns the number of audit events discarded under
// backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

// NotificationStats returns the delivery counters of the email queue.
func (e *Engine) NotificationStats() NotificationStats {
	if e == nil {
		return NotificationStats{}
	}
	return e.notifications.Stats()
}

// MetricsSnapshot returns a copy of all counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

/*
====================================
FLOWS
====================================
*/

// SignUp registers a user and queues a verification email.
func (e *Engine) SignUp(ctx context.Context, in SignUpInput) error {
	return e.flows.SignUp(ctx, in)
}

// SignIn verifies credentials and returns a new session id.
func (e *Engine) SignIn(ctx context.Context, email, password string) (string, error) {
	return e.flows.SignIn(ctx, email, password)
}

// LogOut deletes the session.
func (e *Engine) LogOut(ctx context.Context, sessionID string) error {
	return e.flows.LogOut(ctx, sessionID)
}

// ForgotPassword queues a reset link. It returns nil for unknown and
// unverified addresses.
func (e *Engine) ForgotPassword(ctx context.Context, email string) error {
	return e.flows.ForgotPassword(ctx, email)
}

// ResetPassword consumes a reset token and sets a new password.
func (e *Engine) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	return e.flows.ResetPassword(ctx, rawToken, newPassword)
}

// VerifyEmail consumes a verification token.
func (e *Engine) VerifyEmail(ctx context.Context, rawToken string) error {
	return e.flows.VerifyEmail(ctx, rawToken)
}

// ResendVerificationEmail issues a new verification token for an
// unverified account.
func (e *Engine) ResendVerificationEmail(ctx context.Context, email string) error {
	return e.flows.ResendVerificationEmail(ctx, email)
}

/*
====================================
SESSIONS
====================================
*/

// SessionTTL returns the configured session lifetime.
func (e *Engine) SessionTTL() time.Duration {
	return e.config.Session.TTL
}

// SessionTouchInterval returns the minimum spacing between session refresh
// writes.
func (e *Engine) SessionTouchInterval() time.Duration {
	return e.config.Session.TouchInterval
}

// CurrentSession returns the session for id, or nil.
func (e *Engine) CurrentSession(ctx context.Context, sessionID string) *Session {
	if e == nil || e.sessions == nil {
		return nil
	}
	return e.sessions.Get(ctx, sessionID)
}

// TouchSession refreshes the session's last-access time unless lastTouch
// shows a refresh within the touch interval.
func (e *Engine) TouchSession(ctx context.Context, sessionID string, lastTouch *time.Time) bool {
	if e == nil || e.sessions == nil {
		return false
	}
	return e.sessions.Touch(ctx, sessionID, lastTouch)
}

// ValidateSession returns the session for id if it exists and was last
// refreshed within the session TTL.
func (e *Engine) ValidateSession(ctx context.Context, sessionID string) *Session {
	if e == nil || e.sessions == nil {
		return nil
	}
	start := time.Now()
	sess := e.sessions.Validate(ctx, sessionID)
	e.metrics.Observe(MetricValidateLatency, time.Since(start))
	return sess
}

// SessionEvent implements session.Observer.
func (e *Engine) SessionEvent(ev session.Event) {
	switch ev {
	case session.EventCreated:
		e.metricInc(MetricSessionCreated)
	case session.EventDeleted:
		e.metricInc(MetricSessionDeleted)
	case session.EventTouchWritten:
		e.metricInc(MetricSessionTouchWritten)
	case session.EventTouchSkipped:
		e.metricInc(MetricSessionTouchSkipped)
	case session.EventCorruptDeleted:
		e.metricInc(MetricSessionCorruptDeleted)
	case session.EventStaleDeleted:
		e.metricInc(MetricSessionStaleDeleted)
	case session.EventCacheError:
		e.metricInc(MetricSessionCacheError)
	}
}

func (e *Engine) cacheStateChanged(from, to cache.State) {
	switch to {
	case cache.StateDegraded:
		e.wasDegraded.Store(true)
		e.metricInc(MetricCacheDegraded)
	case cache.StateConnected:
		if e.wasDegraded.CompareAndSwap(true, false) {
			e.metricInc(MetricCacheRecovered)
		}
	}
}

/*
====================================
HEALTH / MAINTENANCE
====================================
*/

// DatabaseHealth reports Postgres reachability.
type DatabaseHealth struct {
	Healthy bool          `json:"healthy"`
	Latency time.Duration `json:"latency_ns"`
	Error   string        `json:"error,omitempty"`
}

// HealthReport combines session-store and database health.
type HealthReport struct {
	Healthy  bool                 `json:"healthy"`
	Session  session.HealthStatus `json:"session"`
	Database DatabaseHealth       `json:"database"`
}

// Health probes Redis and Postgres.
func (e *Engine) Health(ctx context.Context) HealthReport {
	var r HealthReport
	if e == nil || e.sessions == nil {
		return r
	}

	r.Session = e.sessions.Health(ctx)
	r.Database = e.pingDB(ctx)
	r.Healthy = r.Session.Healthy && r.Database.Healthy
	return r
}

func (e *Engine) pingDB(ctx context.Context) DatabaseHealth {
	start := time.Now()
	err := e.db.PingContext(ctx)
	h := DatabaseHealth{Latency: time.Since(start), Healthy: err == nil}
	if err != nil {
		h.Error = err.Error()
	}
	return h
}

// Ready reports whether the engine can serve sign-in traffic: the database
// must answer and the session cache must be configured.
func (e *Engine) Ready(ctx context.Context) error {
	if e == nil || e.db == nil {
		return ErrEngineNotReady
	}
	if !e.cache.Configured() {
		return session.ErrSessionUnavailable
	}
	return e.db.PingContext(ctx)
}

// CleanupExpiredTokens deletes expired verification and reset tokens and
// returns the number of rows removed.
func (e *Engine) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	if e == nil || e.verification == nil {
		return 0, ErrEngineNotReady
	}
	n, err := stores.CleanupAllExpired(ctx, e.verification, e.reset)
	if n > 0 && e.metrics != nil {
		e.metrics.Add(MetricTokensCleaned, uint64(n))
	}
	return n, err
}
