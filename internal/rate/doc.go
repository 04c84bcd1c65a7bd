// Package rate provides the rate-limit primitives used by authentication flows.
//
// # Window semantics
//
//   - [Window] is a trailing window evaluated over rows already persisted
//     elsewhere (token issuance counts). Callers supply the in-window count and
//     the oldest in-window timestamp; Decide reports the remaining budget and
//     when the oldest entry leaves the window.
//   - [Limiter] is a Redis fixed window: INCR plus EXPIRE on the first hit.
//     Key prefix "asi:" tracks failed sign-ins per normalized email.
//
// # What this package must NOT do
//
//   - Decide user-facing error codes (flows map ErrRateLimited).
//   - Be imported outside the authcore module.
package rate
