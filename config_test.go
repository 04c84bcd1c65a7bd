package authcore

import (
	"testing"
	"time"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Session.TTL != 7*24*time.Hour || cfg.Session.TouchInterval != 5*time.Minute {
		t.Fatalf("unexpected session defaults %+v", cfg.Session)
	}
	if cfg.Tokens.VerificationTTL != 24*time.Hour || cfg.Tokens.VerificationPerHour != 3 {
		t.Fatalf("unexpected verification defaults %+v", cfg.Tokens)
	}
	if cfg.Tokens.ResetTTL != 15*time.Minute || cfg.Tokens.ResetPerHour != 5 {
		t.Fatalf("unexpected reset defaults %+v", cfg.Tokens)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantValid bool
	}{
		{name: "https app url", mutate: func(c *Config) { c.AppURL = "https://example.com" }, wantValid: true},
		{name: "relative app url", mutate: func(c *Config) { c.AppURL = "/app" }, wantValid: false},
		{name: "ftp app url", mutate: func(c *Config) { c.AppURL = "ftp://example.com" }, wantValid: false},
		{name: "zero session ttl", mutate: func(c *Config) { c.Session.TTL = 0 }, wantValid: false},
		{name: "touch interval above ttl", mutate: func(c *Config) { c.Session.TouchInterval = 8 * 24 * time.Hour }, wantValid: false},
		{name: "reset ttl too long", mutate: func(c *Config) { c.Tokens.ResetTTL = 2 * time.Hour }, wantValid: false},
		{name: "zero verification cap", mutate: func(c *Config) { c.Tokens.VerificationPerHour = 0 }, wantValid: false},
		{name: "weak scrypt cost", mutate: func(c *Config) { c.Password.N = 1024 }, wantValid: false},
		{name: "stronger scrypt cost", mutate: func(c *Config) { c.Password.N = 32768 }, wantValid: true},
		{name: "zero cache attempts", mutate: func(c *Config) { c.Cache.MaxAttempts = 0 }, wantValid: false},
		{name: "signin enabled without cap", mutate: func(c *Config) { c.SignIn.MaxFailures = 0 }, wantValid: false},
		{name: "signin disabled without cap", mutate: func(c *Config) {
			c.SignIn.Enabled = false
			c.SignIn.MaxFailures = 0
		}, wantValid: true},
		{name: "audit enabled without buffer", mutate: func(c *Config) {
			c.Audit.Enabled = true
			c.Audit.BufferSize = 0
		}, wantValid: false},
		{name: "histograms without metrics", mutate: func(c *Config) {
			c.Metrics.Enabled = false
			c.Metrics.EnableLatencyHistograms = true
		}, wantValid: false},
		{name: "zero notification rate", mutate: func(c *Config) { c.Notifications.RatePerSecond = 0 }, wantValid: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantValid && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !tc.wantValid && err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
