// Package stores persists users and single-use tokens in PostgreSQL.
//
// # Design
//
// Email-verification and password-reset tokens share one table shape: an opaque
// id, the owning user, the SHA-256 digest of the raw token, expiry and creation
// time. Password-reset rows additionally carry used_at. Raw tokens never reach
// the database.
//
// Validation looks candidates up by digest and confirms each one with a
// constant-time compare. Expired candidates are deleted when seen. Consumption
// is a single conditional statement (UPDATE ... WHERE used_at IS NULL, or a
// DELETE guarded by the user's verified state) so that of two concurrent
// consumers exactly one observes an affected row.
//
// Every store method accepts a dbx.DBTX so flows can compose token and user
// mutations inside one transaction.
//
// # Architecture boundaries
//
// This package owns SQL and row-level concurrency control. It does NOT send
// notifications, hash passwords or decide user-facing error codes; those belong
// to internal/flows.
//
// # What this package must NOT do
//
//   - Import authcore or any sibling internal package other than dbx and rate.
//   - Log or expose raw tokens.
//   - Compare digests with non-constant-time equality.
package stores
