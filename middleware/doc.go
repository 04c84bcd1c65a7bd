// Package middleware carries sessions over HTTP cookies on top of
// authcore.Engine.
//
// # Components
//
//   - [Cookies]: writes, clears and reads the sessionId and sessionTouchAt
//     cookies.
//   - [Session]: loads and validates the session named by the cookie,
//     applies the throttled touch and stores the session in the request
//     context.
//   - [RequireSession]: rejects requests without a session with 401.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. Session lookup,
// expiry and refresh decisions are made by the Engine.
//
// # What this package must NOT do
//
//   - Access Redis directly.
//   - Trust the sessionTouchAt cookie for anything but skipping a refresh.
//   - Log session ids.
package middleware
