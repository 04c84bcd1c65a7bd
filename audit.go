package authcore

import (
	"context"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/MrEthical07/authcore/internal/audit"
	"github.com/MrEthical07/authcore/internal/flows"
)

// AuditEvent is one audited flow outcome.
type AuditEvent = audit.Event

// AuditSink receives audit events from the engine's background dispatcher.
type AuditSink = audit.Sink

// Audit event types.
const (
	AuditSignUp                = flows.EventSignUp
	AuditSignIn                = flows.EventSignIn
	AuditSignInRateLimited     = flows.EventSignInRateLimited
	AuditLogOut                = flows.EventLogOut
	AuditVerificationRequested = flows.EventVerificationRequested
	AuditEmailVerified         = flows.EventEmailVerified
	AuditResetRequested        = flows.EventResetRequested
	AuditPasswordReset         = flows.EventPasswordReset
	AuditTokenRateLimited      = flows.EventTokenRateLimited
)

// NoOpSink drops audit events.
type NoOpSink = audit.NoOpSink

// NewChannelSink returns a sink that buffers events on a channel.
func NewChannelSink(buffer int) *audit.ChannelSink {
	return audit.NewChannelSink(buffer)
}

// NewJSONWriterSink returns a sink writing one JSON object per line to w.
func NewJSONWriterSink(w io.Writer) *audit.JSONWriterSink {
	return audit.NewJSONWriterSink(w)
}

// NewZapSink returns a sink that logs events through logger.
func NewZapSink(logger *zap.Logger) AuditSink {
	return audit.ZapSink{Logger: logger}
}

// record is the flows.Deps.Record hook: every flow outcome becomes a metric
// increment and, when auditing is enabled, an audit event.
func (e *Engine) record(ctx context.Context, ev flows.Event) {
	e.metricInc(metricFor(ev))

	if e.audit == nil {
		return
	}
	e.audit.Emit(ctx, audit.Event{
		Timestamp: e.now(),
		EventType: ev.Name,
		UserID:    ev.UserID,
		IP:        ClientIPFromContext(ctx),
		Success:   ev.Success,
		Code:      string(ev.Code),
		Metadata:  ev.Meta,
	})
}

func metricFor(ev flows.Event) MetricID {
	pick := func(ok, fail MetricID) MetricID {
		if ev.Success {
			return ok
		}
		return fail
	}

	switch ev.Name {
	case flows.EventSignUp:
		return pick(MetricSignUpSuccess, MetricSignUpFailure)
	case flows.EventSignIn:
		return pick(MetricSignInSuccess, MetricSignInFailure)
	case flows.EventSignInRateLimited:
		return MetricSignInRateLimited
	case flows.EventLogOut:
		return MetricLogout
	case flows.EventVerificationRequested:
		return pick(MetricVerificationRequested, MetricVerificationRequestFailure)
	case flows.EventEmailVerified:
		return pick(MetricEmailVerified, MetricEmailVerificationFailure)
	case flows.EventResetRequested:
		return pick(MetricPasswordResetRequested, MetricPasswordResetRequestFailure)
	case flows.EventPasswordReset:
		return pick(MetricPasswordResetSuccess, MetricPasswordResetFailure)
	case flows.EventTokenRateLimited:
		return MetricTokenRateLimited
	}
	return metricIDCount
}

func defaultNow() time.Time { return time.Now().UTC() }
