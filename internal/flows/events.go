package flows

const (
	EventSignUp                = "sign_up"
	EventSignIn                = "sign_in"
	EventSignInRateLimited     = "sign_in_rate_limited"
	EventLogOut                = "log_out"
	EventVerificationRequested = "email_verification_request"
	EventEmailVerified         = "email_verification_confirm"
	EventResetRequested        = "password_reset_request"
	EventPasswordReset         = "password_reset_confirm"
	EventTokenRateLimited      = "token_rate_limited"
)

// Event describes the outcome of one flow step. The root engine turns events
// into audit records and metric increments.
type Event struct {
	Name    string
	Success bool
	UserID  string
	Code    Code
	Meta    map[string]string
}
