// Package audit relays authentication events to pluggable sinks without
// blocking the request path.
//
// # Components
//
//   - [Sink]: event consumer (channel, JSON lines, zap logger, no-op).
//   - [Dispatcher]: buffered single-worker relay that either drops or blocks
//     when its buffer is full.
//   - [Event]: one flow outcome with its stable error code and metadata.
//
// # Architecture boundaries
//
// This package owns buffering and delivery only. Which events exist and when
// they fire is decided by the flows package and the root Engine.
//
// # What this package must NOT do
//
//   - Filter events based on business rules.
//   - Import authcore or sibling internal packages.
//   - Record raw tokens, passwords or full session ids. Callers redact first.
package audit
