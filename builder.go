package authcore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/MrEthical07/authcore/internal/audit"
	"github.com/MrEthical07/authcore/internal/cache"
	"github.com/MrEthical07/authcore/internal/dbx"
	"github.com/MrEthical07/authcore/internal/flows"
	"github.com/MrEthical07/authcore/internal/notify"
	"github.com/MrEthical07/authcore/internal/rate"
	"github.com/MrEthical07/authcore/internal/stores"
	"github.com/MrEthical07/authcore/password"
	"github.com/MrEthical07/authcore/session"
)

// Builder assembles an [Engine]. A Builder is single use.
type Builder struct {
	config Config

	db            *sql.DB
	redis         redis.UniversalClient
	redisURL      string
	redisPassword string

	notifier  Notifier
	auditSink AuditSink
	logger    *zap.Logger

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{config: DefaultConfig()}
}

// WithConfig replaces the configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithDB sets the Postgres handle. Required.
func (b *Builder) WithDB(db *sql.DB) *Builder {
	b.db = db
	return b
}

// WithRedis uses an existing Redis client for sessions and sign-in
// throttling. The engine does not close it.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithRedisURL makes Build dial Redis from a redis:// URL. password, when
// non-empty, overrides the URL's password. An empty url leaves sessions
// unconfigured: sign-in fails with UNKNOWN_ERROR and reads return nil.
func (b *Builder) WithRedisURL(url, password string) *Builder {
	b.redisURL = url
	b.redisPassword = password
	return b
}

// WithNotifier sets the email sender. Without one, messages are logged
// through [LogNotifier].
func (b *Builder) WithNotifier(n Notifier) *Builder {
	b.notifier = n
	return b
}

// WithAuditSink sets the audit destination. A non-nil sink enables
// auditing regardless of Config.Audit.Enabled.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the structured logger.
func (b *Builder) WithLogger(l *zap.Logger) *Builder {
	b.logger = l
	return b
}

// WithMetricsEnabled toggles in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the ValidateSession latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, ErrBuilderUsed
	}
	b.built = true

	cfg := b.config
	if b.auditSink != nil {
		cfg.Audit.Enabled = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.db == nil {
		return nil, ErrDatabaseRequired
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	hasher, err := password.NewScrypt(cfg.Password.scrypt())
	if err != nil {
		return nil, err
	}

	e := &Engine{
		config:  cfg,
		logger:  logger,
		now:     defaultNow,
		db:      b.db,
		metrics: NewMetrics(cfg.Metrics),
	}

	// -------- CACHE --------
	cacheOpts := []cache.Option{
		cache.WithLogger(logger.Named("cache")),
		cache.WithStateChange(e.cacheStateChanged),
	}
	switch {
	case b.redis != nil:
		e.cache = cache.New(b.redis, cfg.Cache.client(), cacheOpts...)
	default:
		e.cache, err = cache.Open(b.redisURL, b.redisPassword, cfg.Cache.client(), cacheOpts...)
		if err != nil {
			return nil, fmt.Errorf("open redis: %w", err)
		}
		e.ownsCache = e.cache.Configured()
	}
	if !e.cache.Configured() {
		logger.Warn("redis not configured; sessions are unavailable and sign-in throttling is off")
	}

	// -------- SESSIONS --------
	e.sessions = session.NewStore(e.cache, session.Config{
		TTL:           cfg.Session.TTL,
		TouchInterval: cfg.Session.TouchInterval,
	}, logger.Named("session"), e)

	// -------- TOKENS / USERS --------
	storeLogger := logger.Named("tokens")
	e.verification = stores.NewEmailVerificationStore(b.db, stores.StoreOptions{
		TTL:          cfg.Tokens.VerificationTTL,
		LimitPerHour: cfg.Tokens.VerificationPerHour,
		Logger:       storeLogger,
	})
	e.reset = stores.NewPasswordResetStore(b.db, stores.StoreOptions{
		TTL:          cfg.Tokens.ResetTTL,
		LimitPerHour: cfg.Tokens.ResetPerHour,
		Logger:       storeLogger,
	})
	users := stores.NewUserStore(b.db, nil)

	// -------- SIGN-IN THROTTLE --------
	e.limiter = rate.New(e.cache, rate.Config{
		Enabled:          cfg.SignIn.Enabled,
		MaxSignInFailure: cfg.SignIn.MaxFailures,
		Cooldown:         cfg.SignIn.Cooldown,
	})

	// -------- AUDIT / NOTIFICATIONS --------
	e.audit = audit.NewDispatcher(audit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)

	notifier := b.notifier
	if notifier == nil {
		notifier = &notify.LogNotifier{
			Logger:      logger.Named("notify"),
			RevealLinks: cfg.Notifications.RevealLinks,
		}
	}
	e.notifications = notify.NewDispatcher(cfg.Notifications.dispatcher(), notifier, logger.Named("notify"))

	// -------- FLOWS --------
	db := b.db
	e.flows = flows.New(flows.Deps{
		Users:        users,
		Verification: e.verification,
		Reset:        e.reset,
		Sessions:     e.sessions,
		Hasher:       hasher,
		Limiter:      e.limiter,
		Mailer:       e.notifications,
		RunInTx: func(ctx context.Context, fn func(ctx context.Context, q dbx.DBTX) error) error {
			return dbx.WithTx(ctx, db, nil, fn)
		},
		AppURL: cfg.AppURL,
		Logger: logger.Named("flows"),
		Record: e.record,
	})

	return e, nil
}
