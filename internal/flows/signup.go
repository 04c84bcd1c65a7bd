package flows

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MrEthical07/authcore/internal/notify"
	"github.com/MrEthical07/authcore/internal/stores"
	"github.com/MrEthical07/authcore/session"
)

// SignUp registers an unverified user and queues a verification email.
// Token or email failures after the user row is written are logged and do
// not fail the call; the user can request another message.
func (s Service) SignUp(ctx context.Context, in SignUpInput) error {
	if err := s.ready(); err != nil {
		return err
	}

	in.Name = strings.TrimSpace(in.Name)
	in.Email = stores.NormalizeEmail(in.Email)
	if err := validateSignUp(in); err != nil {
		s.record(ctx, Event{Name: EventSignUp, Code: CodeInvalidForm})
		return fail(CodeInvalidForm, err)
	}

	_, err := s.deps.Users.ByEmail(ctx, in.Email)
	switch {
	case err == nil:
		s.record(ctx, Event{Name: EventSignUp, Code: CodeExistingEmail})
		return fail(CodeExistingEmail, nil)
	case !errors.Is(err, stores.ErrUserNotFound):
		return s.unknown(ctx, EventSignUp, "", err)
	}

	salt, err := s.deps.Hasher.GenerateSalt()
	if err != nil {
		return s.unknown(ctx, EventSignUp, "", err)
	}
	hash, err := s.deps.Hasher.Hash(ctx, in.Password, salt)
	if err != nil {
		return s.unknown(ctx, EventSignUp, "", err)
	}

	user := &stores.User{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Salt:         salt,
		Role:         session.RoleUser,
	}
	if err := s.deps.Users.Create(ctx, user); err != nil {
		if errors.Is(err, stores.ErrEmailTaken) {
			s.record(ctx, Event{Name: EventSignUp, Code: CodeExistingEmail})
			return fail(CodeExistingEmail, nil)
		}
		return s.unknown(ctx, EventSignUp, "", err)
	}

	s.record(ctx, Event{Name: EventSignUp, Success: true, UserID: user.ID})

	if err := s.sendVerification(ctx, user); err != nil {
		s.deps.Logger.Error("verification token not issued after sign-up",
			zap.String("user_id", user.ID), zap.Error(err))
	}
	return nil
}

func (s Service) sendVerification(ctx context.Context, user *stores.User) error {
	raw, err := s.deps.Verification.Create(ctx, user.ID)
	if err != nil {
		return err
	}

	s.record(ctx, Event{Name: EventVerificationRequested, Success: true, UserID: user.ID})
	s.enqueue(notify.Message{
		Kind: notify.KindVerification,
		To:   user.Email,
		Name: user.Name,
		Link: s.link("verify-email", raw),
	})
	return nil
}
