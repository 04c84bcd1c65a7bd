package authcore

import (
	"errors"

	"github.com/MrEthical07/authcore/internal/flows"
)

var (
	// ErrEngineNotReady is returned when an Engine method runs on a nil or
	// partially built engine.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrDatabaseRequired is returned by Build without a database handle.
	ErrDatabaseRequired = errors.New("database handle required")
	// ErrBuilderUsed is returned by a second call to Build.
	ErrBuilderUsed = errors.New("builder already used")
)

// ErrorCode is the stable, user-facing classification of a flow failure.
type ErrorCode = flows.Code

const (
	CodeInvalidForm        = flows.CodeInvalidForm
	CodeInvalidCredentials = flows.CodeInvalidCredentials
	CodeExistingEmail      = flows.CodeExistingEmail
	CodeUnknownError       = flows.CodeUnknownError
	CodeUserNotFound       = flows.CodeUserNotFound
	CodeEmailNotVerified   = flows.CodeEmailNotVerified
	CodeInvalidToken       = flows.CodeInvalidToken
	CodeExpiredToken       = flows.CodeExpiredToken
	CodeRateLimited        = flows.CodeRateLimited
	CodeTokenAlreadyUsed   = flows.CodeTokenAlreadyUsed
)

// FlowError is returned by every failing flow operation. Err, when set,
// carries the underlying cause and is reachable through errors.Is/As.
type FlowError = flows.Error

// CodeOf extracts the ErrorCode from err. It returns "" for nil and
// CodeUnknownError for errors that did not come from a flow.
func CodeOf(err error) ErrorCode {
	return flows.CodeOf(err)
}

// RetryAfter reports when a RATE_LIMITED caller may try again, when known.
var RetryAfter = flows.RetryAfter
