// Package internal groups the packages private to authcore.
//
// # Sub-packages
//
//   - audit: asynchronous audit event dispatch and sinks
//   - cache: resilient Redis client with retry, backoff and health states
//   - confloader: koanf-based settings loading for the binary
//   - dbx: shared database/sql executor interface and transaction helper
//   - flows: sign-up, sign-in, verification and reset orchestration
//   - httpapi: JSON HTTP surface over the engine
//   - logging: zap logger construction
//   - migrations: embedded goose migrations
//   - notify: queued, rate-limited email delivery
//   - rate: Redis-backed sign-in failure limiter
//   - stores: PostgreSQL users and single-use token stores
//
// # What this package must NOT do
//
//   - Export types that appear in the public authcore API except through
//     aliases declared in the root package.
package internal
