// Package flows implements the user-facing auth operations: sign-up, sign-in,
// log-out, email verification and password reset.
//
// Each operation is a method on [Service], which is built once from a [Deps]
// value holding the stores, hasher, session store and notification queue.
// Failures are returned as [*Error] carrying a stable [Code] that callers map
// to user-facing messages.
//
// # Architecture boundaries
//
// Flows coordinate the token stores, user store, credential hasher and session
// store. They do NOT own any of these resources. Ownership and lifecycle stay
// with the root Engine.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import authcore (to avoid import cycles).
//   - Reveal whether an email is registered from ForgotPassword.
//   - Log raw tokens or passwords.
package flows
