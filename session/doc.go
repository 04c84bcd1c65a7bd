// Package session provides Redis-backed session persistence with throttled
// touch and self-healing reads.
//
// # Storage
//
// Sessions live under "session:<id>" as a JSON document
//
//	{"id":"<user id>","role":"user","createdAt":<unix ms>,"lastAccessed":<unix ms>}
//
// with a TTL equal to the session lifetime. The id is 32 random bytes, hex
// encoded. Records that fail to decode or validate are deleted on read.
//
// # Touch throttling
//
// [Store.Touch] accepts the time of the caller's last refresh as an untrusted
// hint. Within the touch interval it performs no cache I/O at all. A missing,
// future or stale hint causes a real refresh that rewrites the record with a
// fresh TTL.
//
// # Architecture boundaries
//
// This package owns the [Store] (cache operations) and the [Session] model. It
// does NOT read cookies, authenticate credentials, or decide authorization;
// those belong to the middleware package and the Engine.
//
// # What this package must NOT do
//
//   - Import authcore or middleware (no upward imports).
//   - Log full session ids.
//   - Return raw cache errors from reads; reads degrade to "no session".
package session
