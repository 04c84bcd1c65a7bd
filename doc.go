// Package authcore is the token and session security core of an email and
// password authentication service.
//
// It signs users up with scrypt-hashed passwords, verifies email ownership
// and resets passwords with single-use hashed tokens stored in Postgres, and
// keeps opaque sessions in Redis with throttled sliding refresh.
//
// An [Engine] is assembled once with [New] ... [Builder.Build] and is safe
// for concurrent use afterwards.
//
// # Architecture boundaries
//
// authcore is the public surface: [Engine], [Builder], [Config], error codes
// and value types. Flow orchestration, token persistence, the Redis
// resilience wrapper, audit and notification queues live under internal/.
// The token, password and session packages are public building blocks with
// no dependency on this package.
//
// # What this package must NOT do
//
//   - Log or return raw tokens and full session ids outside the values handed
//     to the caller.
//   - Perform I/O in Builder methods; only Build and Engine methods touch the
//     network.
//   - Import middleware or metrics exporters (they import authcore).
//
// # Failure model
//
// Flow methods return a *[FlowError] carrying one of ten [ErrorCode] values.
// Session reads degrade to "no session" when Redis is unreachable; session
// creation reports the failure. Rate-limit storage errors fail open.
package authcore
