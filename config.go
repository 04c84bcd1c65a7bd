package authcore

import (
	"errors"
	"net/url"
	"time"

	"github.com/MrEthical07/authcore/internal/cache"
	"github.com/MrEthical07/authcore/internal/notify"
	"github.com/MrEthical07/authcore/internal/stores"
	"github.com/MrEthical07/authcore/password"
	"github.com/MrEthical07/authcore/session"
)

// Config is the complete engine configuration. Build it from
// [DefaultConfig] and override fields; the zero value does not validate.
type Config struct {
	// AppURL is the public base URL used in verification and reset links.
	AppURL string `koanf:"app_url"`

	Session       SessionConfig       `koanf:"session"`
	Tokens        TokensConfig        `koanf:"tokens"`
	Password      PasswordConfig      `koanf:"password"`
	Cache         CacheConfig         `koanf:"cache"`
	SignIn        SignInConfig        `koanf:"signin"`
	Audit         AuditConfig         `koanf:"audit"`
	Metrics       MetricsConfig       `koanf:"metrics"`
	Notifications NotificationsConfig `koanf:"notifications"`
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls session lifetime and refresh throttling.
type SessionConfig struct {
	TTL           time.Duration `koanf:"ttl"`
	TouchInterval time.Duration `koanf:"touch_interval"`
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokensConfig controls verification and reset token lifetimes and the
// per-user hourly issuance caps.
type TokensConfig struct {
	VerificationTTL     time.Duration `koanf:"verification_ttl"`
	VerificationPerHour int           `koanf:"verification_per_hour"`
	ResetTTL            time.Duration `koanf:"reset_ttl"`
	ResetPerHour        int           `koanf:"reset_per_hour"`
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig holds scrypt cost parameters.
type PasswordConfig struct {
	N          int `koanf:"n"`
	R          int `koanf:"r"`
	P          int `koanf:"p"`
	SaltLength int `koanf:"salt_length"`
	KeyLength  int `koanf:"key_length"`
}

/*
====================================
CACHE CONFIG
====================================
*/

// CacheConfig tunes the Redis connection wrapper.
type CacheConfig struct {
	MaxAttempts         int           `koanf:"max_attempts"`
	RetryInterval       time.Duration `koanf:"retry_interval"`
	CommandTimeout      time.Duration `koanf:"command_timeout"`
	ConnectTimeout      time.Duration `koanf:"connect_timeout"`
	FailureBackoff      time.Duration `koanf:"failure_backoff"`
	UnhealthyErrorCount int           `koanf:"unhealthy_error_count"`
}

/*
====================================
SIGN-IN THROTTLE CONFIG
====================================
*/

// SignInConfig controls failed sign-in throttling. It has no effect without
// a Redis client.
type SignInConfig struct {
	Enabled     bool          `koanf:"enabled"`
	MaxFailures int           `koanf:"max_failures"`
	Cooldown    time.Duration `koanf:"cooldown"`
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool `koanf:"enabled"`
	BufferSize int  `koanf:"buffer_size"`
	DropIfFull bool `koanf:"drop_if_full"`
}

// MetricsConfig toggles in-process counters and the validate latency
// histogram.
type MetricsConfig struct {
	Enabled                 bool `koanf:"enabled"`
	EnableLatencyHistograms bool `koanf:"enable_latency_histograms"`
}

/*
====================================
NOTIFICATION CONFIG
====================================
*/

// NotificationsConfig controls outgoing email queueing.
type NotificationsConfig struct {
	BufferSize    int           `koanf:"buffer_size"`
	RatePerSecond float64       `koanf:"rate_per_second"`
	Burst         int           `koanf:"burst"`
	SendTimeout   time.Duration `koanf:"send_timeout"`
	DrainTimeout  time.Duration `koanf:"drain_timeout"`
	// RevealLinks makes LogNotifier print full links. Development only.
	RevealLinks bool `koanf:"reveal_links"`
}

/*
====================================
DEFAULTS
====================================
*/

// DefaultConfig returns the production defaults: 7 day sessions touched at
// most every 5 minutes, 24h verification and 15m reset tokens capped at 3
// and 5 per hour.
func DefaultConfig() Config {
	pw := password.DefaultConfig()
	cc := cache.DefaultConfig()
	nc := notify.DefaultConfig()

	return Config{
		AppURL: "http://localhost:3000",
		Session: SessionConfig{
			TTL:           session.DefaultTTL,
			TouchInterval: session.DefaultTouchInterval,
		},
		Tokens: TokensConfig{
			VerificationTTL:     stores.EmailVerificationTTL,
			VerificationPerHour: stores.MaxVerificationEmailsPerHour,
			ResetTTL:            stores.PasswordResetTTL,
			ResetPerHour:        stores.MaxPasswordResetsPerHour,
		},
		Password: PasswordConfig{
			N:          pw.N,
			R:          pw.R,
			P:          pw.P,
			SaltLength: pw.SaltLength,
			KeyLength:  pw.KeyLength,
		},
		Cache: CacheConfig{
			MaxAttempts:         cc.MaxAttempts,
			RetryInterval:       cc.RetryInterval,
			CommandTimeout:      cc.CommandTimeout,
			ConnectTimeout:      cc.ConnectTimeout,
			FailureBackoff:      cc.FailureBackoff,
			UnhealthyErrorCount: cc.UnhealthyErrorCount,
		},
		SignIn: SignInConfig{
			Enabled:     true,
			MaxFailures: 10,
			Cooldown:    15 * time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
		Notifications: NotificationsConfig{
			BufferSize:    nc.BufferSize,
			RatePerSecond: nc.RatePerSecond,
			Burst:         nc.Burst,
			SendTimeout:   nc.SendTimeout,
			DrainTimeout:  nc.DrainTimeout,
		},
	}
}

func (c PasswordConfig) scrypt() password.Config {
	return password.Config{N: c.N, R: c.R, P: c.P, SaltLength: c.SaltLength, KeyLength: c.KeyLength}
}

func (c CacheConfig) client() cache.Config {
	return cache.Config{
		MaxAttempts:         c.MaxAttempts,
		RetryInterval:       c.RetryInterval,
		CommandTimeout:      c.CommandTimeout,
		ConnectTimeout:      c.ConnectTimeout,
		FailureBackoff:      c.FailureBackoff,
		UnhealthyErrorCount: c.UnhealthyErrorCount,
	}
}

func (c NotificationsConfig) dispatcher() notify.Config {
	return notify.Config{
		BufferSize:    c.BufferSize,
		RatePerSecond: c.RatePerSecond,
		Burst:         c.Burst,
		SendTimeout:   c.SendTimeout,
		DrainTimeout:  c.DrainTimeout,
	}
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	// App URL
	u, err := url.Parse(c.AppURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("AppURL must be an absolute http(s) URL")
	}

	// Session
	if c.Session.TTL <= 0 {
		return errors.New("Session TTL must be > 0")
	}
	if c.Session.TouchInterval <= 0 {
		return errors.New("Session TouchInterval must be > 0")
	}
	if c.Session.TouchInterval >= c.Session.TTL {
		return errors.New("Session TouchInterval must be shorter than TTL")
	}

	// Tokens
	if c.Tokens.VerificationTTL <= 0 {
		return errors.New("Tokens VerificationTTL must be > 0")
	}
	if c.Tokens.ResetTTL <= 0 {
		return errors.New("Tokens ResetTTL must be > 0")
	}
	if c.Tokens.ResetTTL > time.Hour {
		return errors.New("Tokens ResetTTL must be <= 1h")
	}
	if c.Tokens.VerificationPerHour <= 0 {
		return errors.New("Tokens VerificationPerHour must be > 0")
	}
	if c.Tokens.ResetPerHour <= 0 {
		return errors.New("Tokens ResetPerHour must be > 0")
	}

	// Password
	if _, err := password.NewScrypt(c.Password.scrypt()); err != nil {
		return err
	}

	// Cache
	if c.Cache.MaxAttempts < 1 {
		return errors.New("Cache MaxAttempts must be >= 1")
	}
	if c.Cache.RetryInterval < 0 {
		return errors.New("Cache RetryInterval must be >= 0")
	}
	if c.Cache.CommandTimeout <= 0 || c.Cache.ConnectTimeout <= 0 {
		return errors.New("Cache timeouts must be > 0")
	}
	if c.Cache.FailureBackoff <= 0 {
		return errors.New("Cache FailureBackoff must be > 0")
	}

	// Sign-in throttle
	if c.SignIn.Enabled {
		if c.SignIn.MaxFailures <= 0 {
			return errors.New("SignIn MaxFailures must be > 0 when enabled")
		}
		if c.SignIn.Cooldown <= 0 {
			return errors.New("SignIn Cooldown must be > 0 when enabled")
		}
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when enabled")
	}

	// Metrics
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}

	// Notifications
	if c.Notifications.BufferSize <= 0 {
		return errors.New("Notifications BufferSize must be > 0")
	}
	if c.Notifications.RatePerSecond <= 0 || c.Notifications.Burst <= 0 {
		return errors.New("Notifications RatePerSecond and Burst must be > 0")
	}

	return nil
}
