// Package password implements salted scrypt hashing and the password policy.
//
// # Output format
//
// Salts are 16 random bytes and hashes are the 64-byte scrypt key, both hex
// encoded and stored in separate columns:
//
//	salt: 32 hex chars
//	hash: 128 hex chars
//
// Passwords are normalized to Unicode NFC before derivation so that visually
// identical inputs produce identical hashes.
//
// # Architecture boundaries
//
// This package owns hashing, verification and the complexity policy. Whether a
// user may attempt a login at all is decided by the Engine.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords. Callers supply plaintext and receive hashes.
//   - Import any other authcore package.
//   - Log plaintext passwords.
package password
