package internaldefs

import (
	"github.com/MrEthical07/authcore"
)

// CounterDef names one engine counter.
type CounterDef struct {
	ID   authcore.MetricID
	Name string
	Help string
}

// HistogramDef names one engine histogram.
type HistogramDef struct {
	ID   authcore.MetricID
	Name string
	Help string
}

var CounterDefs = []CounterDef{
	{ID: authcore.MetricSignUpSuccess, Name: "authcore_signup_success_total", Help: "Accounts created."},
	{ID: authcore.MetricSignUpFailure, Name: "authcore_signup_failure_total", Help: "Rejected or failed sign-ups."},
	{ID: authcore.MetricSignInSuccess, Name: "authcore_signin_success_total", Help: "Successful sign-ins."},
	{ID: authcore.MetricSignInFailure, Name: "authcore_signin_failure_total", Help: "Failed sign-ins."},
	{ID: authcore.MetricSignInRateLimited, Name: "authcore_signin_rate_limited_total", Help: "Sign-ins refused by the failure limiter."},
	{ID: authcore.MetricLogout, Name: "authcore_logout_total", Help: "Sign-outs."},
	{ID: authcore.MetricVerificationRequested, Name: "authcore_verification_requested_total", Help: "Verification emails queued."},
	{ID: authcore.MetricVerificationRequestFailure, Name: "authcore_verification_request_failure_total", Help: "Verification requests that could not be served."},
	{ID: authcore.MetricEmailVerified, Name: "authcore_email_verified_total", Help: "Email addresses verified."},
	{ID: authcore.MetricEmailVerificationFailure, Name: "authcore_email_verification_failure_total", Help: "Rejected verification tokens."},
	{ID: authcore.MetricPasswordResetRequested, Name: "authcore_password_reset_requested_total", Help: "Password reset emails queued."},
	{ID: authcore.MetricPasswordResetRequestFailure, Name: "authcore_password_reset_request_failure_total", Help: "Password reset requests that could not be served."},
	{ID: authcore.MetricPasswordResetSuccess, Name: "authcore_password_reset_success_total", Help: "Passwords reset."},
	{ID: authcore.MetricPasswordResetFailure, Name: "authcore_password_reset_failure_total", Help: "Rejected password resets."},
	{ID: authcore.MetricTokenRateLimited, Name: "authcore_token_rate_limited_total", Help: "Token requests refused by the hourly cap."},
	{ID: authcore.MetricSessionCreated, Name: "authcore_session_created_total", Help: "Sessions created."},
	{ID: authcore.MetricSessionDeleted, Name: "authcore_session_deleted_total", Help: "Sessions deleted."},
	{ID: authcore.MetricSessionTouchWritten, Name: "authcore_session_touch_written_total", Help: "Session refreshes written to the cache."},
	{ID: authcore.MetricSessionTouchSkipped, Name: "authcore_session_touch_skipped_total", Help: "Session refreshes skipped inside the touch interval."},
	{ID: authcore.MetricSessionCorruptDeleted, Name: "authcore_session_corrupt_deleted_total", Help: "Unreadable session records removed."},
	{ID: authcore.MetricSessionStaleDeleted, Name: "authcore_session_stale_deleted_total", Help: "Sessions removed for exceeding their lifetime."},
	{ID: authcore.MetricSessionCacheError, Name: "authcore_session_cache_error_total", Help: "Failed session cache operations."},
	{ID: authcore.MetricCacheDegraded, Name: "authcore_cache_degraded_total", Help: "Transitions of the cache client into backoff."},
	{ID: authcore.MetricCacheRecovered, Name: "authcore_cache_recovered_total", Help: "Cache recoveries after backoff."},
	{ID: authcore.MetricTokensCleaned, Name: "authcore_tokens_cleaned_total", Help: "Expired tokens deleted by cleanup."},
}

var HistogramDefs = []HistogramDef{
	{ID: authcore.MetricValidateLatency, Name: "authcore_validate_latency_seconds", Help: "Session validation latency."},
}

// Series not backed by a MetricID.
const (
	AuditDroppedName        = "authcore_audit_dropped_total"
	AuditDroppedHelp        = "Audit events dropped under backpressure."
	NotificationSentName    = "authcore_notification_sent_total"
	NotificationSentHelp    = "Emails handed to the notifier."
	NotificationFailedName  = "authcore_notification_failed_total"
	NotificationFailedHelp  = "Emails the notifier failed to send."
	NotificationDroppedName = "authcore_notification_dropped_total"
	NotificationDroppedHelp = "Emails dropped because the queue was full or closed."
)

// HistogramBounds are the upper bucket bounds in seconds; the last bucket
// is unbounded.
var HistogramBounds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

// HistogramBoundSuffix names each bucket, including +Inf, for exporters
// that flatten buckets into gauges.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates raw to the fixed bucket count.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
