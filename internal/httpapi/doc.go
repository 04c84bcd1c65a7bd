// Package httpapi exposes the authentication flows as a small JSON API.
//
// Every flow is a POST under /api/auth. Failures are answered with
// {"error": "<CODE>"} and a matching HTTP status. Sessions travel in the
// cookies written by the middleware package. /health, /ready and /metrics
// serve operators.
package httpapi
