package password

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/scrypt"
	"golang.org/x/text/unicode/norm"
)

const (
	minCostN      = 1 << 14
	minBlockSize  = 8
	minParallel   = 1
	minSaltLength = 16
	minKeyLength  = 32

	// MaxPasswordBytes bounds the KDF input after normalization.
	MaxPasswordBytes = 1024
)

var (
	// ErrInvalidHash is returned when a stored hash or salt cannot be decoded.
	ErrInvalidHash = errors.New("password: invalid stored hash")
	// ErrPasswordTooLong is returned for inputs above MaxPasswordBytes.
	ErrPasswordTooLong = errors.New("password: input exceeds maximum length")
)

// Config holds scrypt cost parameters.
type Config struct {
	N          int
	R          int
	P          int
	SaltLength int
	KeyLength  int
}

// DefaultConfig returns the stored-hash compatible parameters:
// N=16384, r=8, p=1 with a 64-byte key.
func DefaultConfig() Config {
	return Config{
		N:          minCostN,
		R:          minBlockSize,
		P:          minParallel,
		SaltLength: 16,
		KeyLength:  64,
	}
}

// Scrypt hashes and verifies passwords. It is safe for concurrent use.
type Scrypt struct {
	config Config
}

// NewScrypt validates cfg and returns a hasher.
func NewScrypt(cfg Config) (*Scrypt, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return &Scrypt{config: cfg}, nil
}

// GenerateSalt returns a fresh hex salt.
func (s *Scrypt) GenerateSalt() (string, error) {
	salt := make([]byte, s.config.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}
	return hex.EncodeToString(salt), nil
}

// Hash derives the hex scrypt key for password and salt.
//
// The derivation runs off the calling goroutine; if ctx ends first Hash returns
// ctx.Err() and the result is discarded.
func (s *Scrypt) Hash(ctx context.Context, password, salt string) (string, error) {
	key, err := s.derive(ctx, password, salt)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(key), nil
}

// Verify recomputes the key for password and salt and compares it with hash in
// constant time.
func (s *Scrypt) Verify(ctx context.Context, password, salt, hash string) (bool, error) {
	want, err := hex.DecodeString(hash)
	if err != nil || len(want) == 0 {
		return false, ErrInvalidHash
	}

	got, err := s.deriveLen(ctx, password, salt, len(want))
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

func (s *Scrypt) derive(ctx context.Context, password, salt string) ([]byte, error) {
	return s.deriveLen(ctx, password, salt, s.config.KeyLength)
}

func (s *Scrypt) deriveLen(ctx context.Context, password, salt string, keyLen int) ([]byte, error) {
	normalized := norm.NFC.String(password)
	if len(normalized) > MaxPasswordBytes {
		return nil, ErrPasswordTooLong
	}
	if salt == "" {
		return nil, ErrInvalidHash
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type result struct {
		key []byte
		err error
	}
	done := make(chan result, 1)

	go func() {
		key, err := scrypt.Key([]byte(normalized), []byte(salt), s.config.N, s.config.R, s.config.P, keyLen)
		done <- result{key: key, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-done:
		if res.err != nil {
			return nil, fmt.Errorf("password: derive: %w", res.err)
		}
		return res.key, nil
	}
}

func validateConfig(cfg Config) error {
	if cfg.N < minCostN || cfg.N&(cfg.N-1) != 0 {
		return errors.New("password N must be a power of two >= 16384")
	}
	if cfg.R < minBlockSize {
		return errors.New("password r must be >= 8")
	}
	if cfg.P < minParallel {
		return errors.New("password p must be >= 1")
	}
	if cfg.SaltLength < minSaltLength {
		return errors.New("password salt length must be >= 16")
	}
	if cfg.KeyLength < minKeyLength {
		return errors.New("password key length must be >= 32")
	}
	return nil
}
