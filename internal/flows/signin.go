package flows

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/MrEthical07/authcore/internal/rate"
	"github.com/MrEthical07/authcore/internal/stores"
	"github.com/MrEthical07/authcore/password"
	"github.com/MrEthical07/authcore/session"
)

// Unknown emails are checked against this pair so both failure paths cost
// one key derivation.
var (
	dummySalt = strings.Repeat("0", 32)
	dummyHash = strings.Repeat("0", 128)
)

// SignIn checks credentials and creates a session. Unknown emails and wrong
// passwords both yield INVALID_CREDENTIALS.
func (s Service) SignIn(ctx context.Context, email, pw string) (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}

	email = stores.NormalizeEmail(email)
	if err := validateEmail(email); err != nil {
		s.record(ctx, Event{Name: EventSignIn, Code: CodeInvalidForm})
		return "", fail(CodeInvalidForm, err)
	}
	if err := validateSignInPassword(pw); err != nil {
		s.record(ctx, Event{Name: EventSignIn, Code: CodeInvalidForm})
		return "", fail(CodeInvalidForm, err)
	}

	if s.deps.Limiter != nil {
		if err := s.deps.Limiter.CheckSignIn(ctx, email); err != nil {
			if errors.Is(err, rate.ErrRateLimited) {
				s.record(ctx, Event{Name: EventSignInRateLimited, Code: CodeRateLimited})
				return "", fail(CodeRateLimited, err)
			}
			s.deps.Logger.Warn("sign-in limiter unavailable, allowing attempt", zap.Error(err))
		}
	}

	user, err := s.deps.Users.ByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, stores.ErrUserNotFound) {
			return "", s.unknown(ctx, EventSignIn, "", err)
		}
		_, _ = s.deps.Hasher.Verify(ctx, pw, dummySalt, dummyHash)
		return "", s.rejectCredentials(ctx, email, "")
	}

	ok, err := s.deps.Hasher.Verify(ctx, pw, user.Salt, user.PasswordHash)
	if err != nil {
		if !errors.Is(err, password.ErrInvalidHash) {
			return "", s.unknown(ctx, EventSignIn, user.ID, err)
		}
		s.deps.Logger.Error("stored password hash is malformed", zap.String("user_id", user.ID))
	}
	if !ok {
		return "", s.rejectCredentials(ctx, email, user.ID)
	}

	if user.EmailVerified == nil {
		s.record(ctx, Event{Name: EventSignIn, UserID: user.ID, Code: CodeEmailNotVerified})
		return "", fail(CodeEmailNotVerified, nil)
	}

	id, err := s.deps.Sessions.Create(ctx, session.Payload{UserID: user.ID, Role: user.Role})
	if err != nil {
		return "", s.unknown(ctx, EventSignIn, user.ID, err)
	}

	if s.deps.Limiter != nil {
		if err := s.deps.Limiter.Reset(ctx, email); err != nil {
			s.deps.Logger.Warn("sign-in limiter reset failed", zap.Error(err))
		}
	}

	s.record(ctx, Event{Name: EventSignIn, Success: true, UserID: user.ID})
	return id, nil
}

func (s Service) rejectCredentials(ctx context.Context, email, userID string) error {
	if s.deps.Limiter != nil {
		if err := s.deps.Limiter.RecordFailure(ctx, email); err != nil {
			s.deps.Logger.Warn("sign-in limiter unavailable, failure not counted", zap.Error(err))
		}
	}
	s.record(ctx, Event{Name: EventSignIn, UserID: userID, Code: CodeInvalidCredentials})
	return fail(CodeInvalidCredentials, nil)
}

// LogOut deletes the session. Missing sessions are not an error.
func (s Service) LogOut(ctx context.Context, sessionID string) error {
	if s.deps.Sessions == nil {
		return fail(CodeUnknownError, ErrNotReady)
	}
	if sessionID == "" {
		return nil
	}

	deleted := s.deps.Sessions.Delete(ctx, sessionID)
	s.record(ctx, Event{Name: EventLogOut, Success: deleted})
	return nil
}
