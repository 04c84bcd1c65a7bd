package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/authcore/internal/stores"
)

// VerifyEmail consumes a verification token and marks the owner verified.
func (s Service) VerifyEmail(ctx context.Context, rawToken string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if rawToken == "" {
		s.record(ctx, Event{Name: EventEmailVerified, Code: CodeInvalidToken})
		return fail(CodeInvalidToken, nil)
	}

	v := s.deps.Verification.Validate(ctx, rawToken)
	if !v.Valid {
		code := tokenFailure(v)
		s.record(ctx, Event{Name: EventEmailVerified, Code: code, Meta: map[string]string{"reason": string(v.Err)}})
		return fail(code, nil)
	}

	ok, err := s.deps.Verification.Consume(ctx, rawToken)
	if err != nil {
		return s.unknown(ctx, EventEmailVerified, v.UserID, err)
	}
	if !ok {
		s.record(ctx, Event{Name: EventEmailVerified, UserID: v.UserID, Code: CodeTokenAlreadyUsed})
		return fail(CodeTokenAlreadyUsed, nil)
	}

	s.record(ctx, Event{Name: EventEmailVerified, Success: true, UserID: v.UserID})
	return nil
}

// ResendVerificationEmail issues a fresh verification token for an
// unverified account, subject to the per-user hourly cap.
func (s Service) ResendVerificationEmail(ctx context.Context, email string) error {
	if err := s.ready(); err != nil {
		return err
	}

	email = stores.NormalizeEmail(email)
	if err := validateEmail(email); err != nil {
		s.record(ctx, Event{Name: EventVerificationRequested, Code: CodeInvalidForm})
		return fail(CodeInvalidForm, err)
	}

	user, err := s.deps.Users.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, stores.ErrUserNotFound) {
			s.record(ctx, Event{Name: EventVerificationRequested, Code: CodeUserNotFound})
			return fail(CodeUserNotFound, nil)
		}
		return s.unknown(ctx, EventVerificationRequested, "", err)
	}
	if user.EmailVerified != nil {
		s.record(ctx, Event{Name: EventVerificationRequested, UserID: user.ID, Code: CodeTokenAlreadyUsed})
		return fail(CodeTokenAlreadyUsed, nil)
	}

	if d := s.deps.Verification.CheckRateLimit(ctx, user.ID); !d.Allowed {
		s.record(ctx, Event{Name: EventTokenRateLimited, UserID: user.ID, Code: CodeRateLimited,
			Meta: map[string]string{"kind": "email_verification"}})
		return fail(CodeRateLimited, &RateLimitError{ResetAt: d.ResetAt})
	}

	if err := s.sendVerification(ctx, user); err != nil {
		return s.unknown(ctx, EventVerificationRequested, user.ID, err)
	}
	return nil
}

func tokenFailure(v stores.Validation) Code {
	switch v.Err {
	case stores.TokenExpired:
		return CodeExpiredToken
	case stores.TokenAlreadyUsed:
		return CodeTokenAlreadyUsed
	default:
		return CodeInvalidToken
	}
}
