// Package token generates opaque secrets and the digests stored in their place.
//
// Raw tokens leave the process exactly once, inside a notification link or a
// cookie. Only [Hash] output is persisted, and [Equal] compares a stored digest
// against a presented raw value in constant time.
//
// # What this package must NOT do
//
//   - Persist or log raw tokens.
//   - Import any other authcore package.
package token
