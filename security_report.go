package authcore

import (
	"strings"
	"time"
)

// SecurityReport summarizes the security-relevant configuration of a built
// engine, for startup logs and posture checks.
type SecurityReport struct {
	AppURLSecure        bool
	SessionTTL          time.Duration
	TouchInterval       time.Duration
	Scrypt              PasswordConfigReport
	VerificationTTL     time.Duration
	VerificationPerHour int
	ResetTTL            time.Duration
	ResetPerHour        int
	SignInLimiterActive bool
	SessionCacheReady   bool
	AuditEnabled        bool
	LinksLogged         bool
}

// PasswordConfigReport mirrors the scrypt cost parameters.
type PasswordConfigReport struct {
	N          int
	R          int
	P          int
	SaltLength int
	KeyLength  int
}

// SecurityReport returns the engine's effective security posture.
func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}

	c := e.config
	return SecurityReport{
		AppURLSecure:  strings.HasPrefix(c.AppURL, "https://"),
		SessionTTL:    c.Session.TTL,
		TouchInterval: c.Session.TouchInterval,
		Scrypt: PasswordConfigReport{
			N:          c.Password.N,
			R:          c.Password.R,
			P:          c.Password.P,
			SaltLength: c.Password.SaltLength,
			KeyLength:  c.Password.KeyLength,
		},
		VerificationTTL:     c.Tokens.VerificationTTL,
		VerificationPerHour: c.Tokens.VerificationPerHour,
		ResetTTL:            c.Tokens.ResetTTL,
		ResetPerHour:        c.Tokens.ResetPerHour,
		SignInLimiterActive: c.SignIn.Enabled && c.SignIn.MaxFailures > 0 && e.cache.Configured(),
		SessionCacheReady:   e.cache.Configured(),
		AuditEnabled:        c.Audit.Enabled,
		LinksLogged:         c.Notifications.RevealLinks,
	}
}
