package token

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
)

const (
	// RawSize is the number of random bytes behind every token and session id.
	RawSize = 32

	digestHexLen = sha256.Size * 2
)

// ErrShortRead is returned when the system random source yields fewer bytes than requested.
var ErrShortRead = errors.New("token: short read from random source")

// Generate returns a URL-safe token carrying RawSize bytes of randomness.
func Generate() (string, error) {
	return randomHex(RawSize)
}

// NewSessionID returns a fresh opaque session identifier.
func NewSessionID() (string, error) {
	return randomHex(RawSize)
}

// Hash returns the hex SHA-256 digest of raw.
func Hash(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// Equal reports whether raw hashes to storedDigest. The comparison time does not
// depend on where the digests differ. Digests of the wrong length never match.
func Equal(storedDigest, raw string) bool {
	if len(storedDigest) != digestHexLen {
		return false
	}
	candidate := Hash(raw)
	return subtle.ConstantTimeCompare([]byte(storedDigest), []byte(candidate)) == 1
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	read, err := rand.Read(buf)
	if err != nil {
		return "", err
	}
	if read != n {
		return "", ErrShortRead
	}
	return hex.EncodeToString(buf), nil
}
