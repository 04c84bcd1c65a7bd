package flows

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/MrEthical07/authcore/internal/notify"
)

// ErrNotReady is returned when a required dependency is missing.
var ErrNotReady = errors.New("flows: service not initialized")

// Service runs flows against an immutable dependency set.
type Service struct {
	deps Deps
}

// New returns a Service over deps.
func New(deps Deps) Service {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Record == nil {
		deps.Record = func(context.Context, Event) {}
	}
	deps.AppURL = strings.TrimRight(deps.AppURL, "/")
	return Service{deps: deps}
}

// Initialized reports whether every required dependency is wired.
func (s Service) Initialized() bool {
	d := s.deps
	return d.Users != nil && d.Verification != nil && d.Reset != nil &&
		d.Sessions != nil && d.Hasher != nil && d.RunInTx != nil
}

func (s Service) ready() error {
	if !s.Initialized() {
		return fail(CodeUnknownError, ErrNotReady)
	}
	return nil
}

func (s Service) record(ctx context.Context, e Event) {
	s.deps.Record(ctx, e)
}

// unknown logs err and wraps it as UNKNOWN_ERROR.
func (s Service) unknown(ctx context.Context, event, userID string, err error) error {
	s.deps.Logger.Error("auth flow failed", zap.String("flow", event), zap.Error(err))
	s.record(ctx, Event{Name: event, UserID: userID, Code: CodeUnknownError})
	return fail(CodeUnknownError, err)
}

func (s Service) link(path, rawToken string) string {
	return s.deps.AppURL + "/" + path + "/" + rawToken
}

func (s Service) enqueue(msg notify.Message) {
	if s.deps.Mailer == nil {
		s.deps.Logger.Warn("no notifier configured, message not sent", zap.String("kind", string(msg.Kind)))
		return
	}
	if !s.deps.Mailer.Enqueue(msg) {
		s.deps.Logger.Warn("notification not queued", zap.String("kind", string(msg.Kind)))
	}
}
