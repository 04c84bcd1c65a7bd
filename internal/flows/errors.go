package flows

import (
	"errors"
	"time"
)

// Code is a stable, user-facing failure classification.
type Code string

const (
	CodeInvalidForm        Code = "INVALID_FORM"
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeExistingEmail      Code = "EXISTING_EMAIL"
	CodeUnknownError       Code = "UNKNOWN_ERROR"
	CodeUserNotFound       Code = "USER_NOT_FOUND"
	CodeEmailNotVerified   Code = "EMAIL_NOT_VERIFIED"
	CodeInvalidToken       Code = "INVALID_TOKEN"
	CodeExpiredToken       Code = "EXPIRED_TOKEN"
	CodeRateLimited        Code = "RATE_LIMITED"
	CodeTokenAlreadyUsed   Code = "TOKEN_ALREADY_USED"
)

// Error is returned by every flow operation that fails.
type Error struct {
	Code Code
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return string(e.Code) + ": " + e.Err.Error()
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func fail(code Code, err error) *Error {
	return &Error{Code: code, Err: err}
}

// CodeOf extracts the flow code from err. It returns "" for nil and
// CodeUnknownError for errors that did not come from a flow.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return CodeUnknownError
}

// RateLimitError carries the time the caller may retry.
type RateLimitError struct {
	ResetAt time.Time
}

func (e *RateLimitError) Error() string {
	if e.ResetAt.IsZero() {
		return "rate limited"
	}
	return "rate limited until " + e.ResetAt.UTC().Format(time.RFC3339)
}

// RetryAfter extracts the reset time from a RATE_LIMITED error.
func RetryAfter(err error) (time.Time, bool) {
	var rl *RateLimitError
	if errors.As(err, &rl) && !rl.ResetAt.IsZero() {
		return rl.ResetAt, true
	}
	return time.Time{}, false
}

var errTokenRaced = errors.New("token consumed by a concurrent request")
