package confloader

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultEnvPrefix is the prefix for structured environment overrides.
const DefaultEnvPrefix = "AUTHCORE_"

// levelSep separates nesting levels in prefixed variable names.
const levelSep = "__"

// wellKnown maps conventional deployment variables onto settings keys.
var wellKnown = map[string]string{
	"DATABASE_URL":        "database_url",
	"REDIS_URL":           "redis_url",
	"REDIS_PASSWORD":      "redis_password",
	"SKIP_ENV_VALIDATION": "skip_env_validation",
	"APP_URL":             "auth.app_url",
}

// Loader merges configuration sources into a struct with koanf tags.
type Loader struct {
	k         *koanf.Koanf
	envPrefix string
	filePath  string
	dotenv    []string
}

// Option configures a Loader.
type Option func(*Loader)

// WithEnvPrefix overrides DefaultEnvPrefix.
func WithEnvPrefix(prefix string) Option {
	return func(l *Loader) {
		l.envPrefix = prefix
	}
}

// WithConfigFile sets a YAML file to load. A missing path is an error.
func WithConfigFile(path string) Option {
	return func(l *Loader) {
		l.filePath = path
	}
}

// WithDotenv loads the given .env files into the process environment
// before reading variables. Missing files are ignored.
func WithDotenv(paths ...string) Option {
	return func(l *Loader) {
		l.dotenv = paths
	}
}

// NewLoader returns a Loader. By default it reads ".env" if present.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		k:         koanf.New("."),
		envPrefix: DefaultEnvPrefix,
		dotenv:    []string{".env"},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load applies every source and unmarshals the result over target. Fields
// absent from all sources keep the value target already holds.
func (l *Loader) Load(target any) error {
	if l.filePath != "" {
		if err := l.k.Load(file.Provider(l.filePath), yaml.Parser()); err != nil {
			return fmt.Errorf("load config file %s: %w", l.filePath, err)
		}
	}

	for _, path := range l.dotenv {
		// godotenv never overrides variables already set in the environment.
		if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}

	if err := l.k.Load(env.Provider("", ".", wellKnownKey), nil); err != nil {
		return fmt.Errorf("load env: %w", err)
	}
	if err := l.k.Load(env.Provider(l.envPrefix, ".", l.prefixedKey), nil); err != nil {
		return fmt.Errorf("load env: %w", err)
	}

	if err := l.k.Unmarshal("", target); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	return nil
}

// Keys lists every loaded key, for diagnostics.
func (l *Loader) Keys() []string {
	return l.k.Keys()
}

func wellKnownKey(name string) string {
	return wellKnown[name]
}

// prefixedKey maps AUTHCORE_AUTH__SIGNIN__MAX_FAILURES to
// auth.signin.max_failures.
func (l *Loader) prefixedKey(name string) string {
	name = strings.TrimPrefix(name, l.envPrefix)
	return strings.ToLower(strings.ReplaceAll(name, levelSep, "."))
}
