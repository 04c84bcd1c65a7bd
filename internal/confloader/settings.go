package confloader

import (
	"errors"
	"fmt"

	"github.com/MrEthical07/authcore"
	"github.com/MrEthical07/authcore/internal/logging"
)

// Settings is the full configuration of the authcore binary.
type Settings struct {
	Listen        string `koanf:"listen"`
	DatabaseURL   string `koanf:"database_url"`
	RedisURL      string `koanf:"redis_url"`
	RedisPassword string `koanf:"redis_password"`
	SecureCookies bool   `koanf:"secure_cookies"`

	// SkipEnvValidation allows starting without DATABASE_URL and REDIS_URL,
	// for builds and tooling that never serve traffic.
	SkipEnvValidation bool `koanf:"skip_env_validation"`

	Log  logging.Config  `koanf:"log"`
	Auth authcore.Config `koanf:"auth"`
}

// Defaults returns settings for a local deployment.
func Defaults() Settings {
	return Settings{
		Listen:        ":8080",
		SecureCookies: true,
		Log:           logging.Config{Level: "info"},
		Auth:          authcore.DefaultConfig(),
	}
}

// Load builds Settings from defaults and the sources configured by opts,
// then validates them.
func Load(opts ...Option) (Settings, error) {
	s := Defaults()
	if err := NewLoader(opts...).Load(&s); err != nil {
		return Settings{}, err
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks required endpoints and the embedded engine config.
func (s *Settings) Validate() error {
	if !s.SkipEnvValidation {
		if s.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required")
		}
		if s.RedisURL == "" {
			return errors.New("REDIS_URL is required")
		}
	}
	if s.Listen == "" {
		return errors.New("listen address is required")
	}
	if err := s.Auth.Validate(); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	return nil
}
