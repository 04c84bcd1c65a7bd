package flows

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/MrEthical07/authcore/internal/dbx"
	"github.com/MrEthical07/authcore/internal/notify"
	"github.com/MrEthical07/authcore/internal/stores"
)

// ForgotPassword queues a reset link for a verified account. It returns nil
// for unknown and unverified addresses so the response does not reveal
// whether an account exists.
func (s Service) ForgotPassword(ctx context.Context, email string) error {
	if err := s.ready(); err != nil {
		return err
	}

	email = stores.NormalizeEmail(email)
	if err := validateEmail(email); err != nil {
		s.record(ctx, Event{Name: EventResetRequested, Code: CodeInvalidForm})
		return fail(CodeInvalidForm, err)
	}

	user, err := s.deps.Users.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, stores.ErrUserNotFound) {
			s.record(ctx, Event{Name: EventResetRequested, Success: true, Meta: map[string]string{"outcome": "unknown_email"}})
			return nil
		}
		return s.unknown(ctx, EventResetRequested, "", err)
	}
	if user.EmailVerified == nil {
		s.record(ctx, Event{Name: EventResetRequested, Success: true, UserID: user.ID, Meta: map[string]string{"outcome": "unverified"}})
		return nil
	}

	if d := s.deps.Reset.CheckRateLimit(ctx, user.ID); !d.Allowed {
		s.record(ctx, Event{Name: EventTokenRateLimited, UserID: user.ID, Code: CodeRateLimited,
			Meta: map[string]string{"kind": "password_reset"}})
		return fail(CodeRateLimited, &RateLimitError{ResetAt: d.ResetAt})
	}

	raw, err := s.deps.Reset.Create(ctx, user.ID)
	if err != nil {
		s.deps.Logger.Error("password reset token not issued", zap.String("user_id", user.ID), zap.Error(err))
		s.record(ctx, Event{Name: EventResetRequested, UserID: user.ID, Code: CodeUnknownError})
		return nil
	}

	s.record(ctx, Event{Name: EventResetRequested, Success: true, UserID: user.ID})
	s.enqueue(notify.Message{
		Kind: notify.KindPasswordReset,
		To:   user.Email,
		Name: user.Name,
		Link: s.link("reset-password", raw),
	})
	return nil
}

// ResetPassword consumes a reset token and replaces the owner's password in
// one transaction. Of two concurrent calls with the same token exactly one
// succeeds; the other gets TOKEN_ALREADY_USED.
func (s Service) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if err := validateNewPassword(newPassword); err != nil {
		s.record(ctx, Event{Name: EventPasswordReset, Code: CodeInvalidForm})
		return fail(CodeInvalidForm, err)
	}
	if rawToken == "" {
		s.record(ctx, Event{Name: EventPasswordReset, Code: CodeInvalidToken})
		return fail(CodeInvalidToken, nil)
	}

	v := s.deps.Reset.Validate(ctx, rawToken)
	if !v.Valid {
		code := tokenFailure(v)
		s.record(ctx, Event{Name: EventPasswordReset, Code: code, Meta: map[string]string{"reason": string(v.Err)}})
		return fail(code, nil)
	}

	salt, err := s.deps.Hasher.GenerateSalt()
	if err != nil {
		return s.unknown(ctx, EventPasswordReset, v.UserID, err)
	}
	hash, err := s.deps.Hasher.Hash(ctx, newPassword, salt)
	if err != nil {
		return s.unknown(ctx, EventPasswordReset, v.UserID, err)
	}

	err = s.deps.RunInTx(ctx, func(ctx context.Context, q dbx.DBTX) error {
		ok, err := s.deps.Reset.ConsumeWith(ctx, q, rawToken)
		if err != nil {
			return err
		}
		if !ok {
			return errTokenRaced
		}
		return s.deps.Users.UpdatePassword(ctx, q, v.UserID, hash, salt)
	})
	if err != nil {
		if errors.Is(err, errTokenRaced) {
			s.record(ctx, Event{Name: EventPasswordReset, UserID: v.UserID, Code: CodeTokenAlreadyUsed})
			return fail(CodeTokenAlreadyUsed, nil)
		}
		return s.unknown(ctx, EventPasswordReset, v.UserID, err)
	}

	s.record(ctx, Event{Name: EventPasswordReset, Success: true, UserID: v.UserID})
	return nil
}
