//go:build integration

package test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrEthical07/authcore"
)

const (
	email    = "ada@example.com"
	password = "Str0ng-Pass!"
)

func TestAccountLifecycle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.engine.SignUp(ctx, authcore.SignUpInput{Name: "Ada", Email: email, Password: password}))
	verifyToken := h.notifier.next(t, authcore.NotificationVerification)

	_, err := h.engine.SignIn(ctx, email, password)
	assert.Equal(t, authcore.CodeEmailNotVerified, authcore.CodeOf(err))

	require.NoError(t, h.engine.VerifyEmail(ctx, verifyToken))
	assert.Equal(t, authcore.CodeInvalidToken, authcore.CodeOf(h.engine.VerifyEmail(ctx, verifyToken)),
		"a consumed token no longer exists")

	sessionID, err := h.engine.SignIn(ctx, email, password)
	require.NoError(t, err)
	require.Len(t, sessionID, 64)

	sess := h.engine.ValidateSession(ctx, sessionID)
	require.NotNil(t, sess)
	assert.Equal(t, "user", sess.Role)
	assert.True(t, h.redis.Exists("session:"+sessionID))

	require.NoError(t, h.engine.ForgotPassword(ctx, email))
	resetToken := h.notifier.next(t, authcore.NotificationPasswordReset)

	const newPassword = "N3w-Passw0rd!"
	require.NoError(t, h.engine.ResetPassword(ctx, resetToken, newPassword))
	assert.Equal(t, authcore.CodeTokenAlreadyUsed, authcore.CodeOf(h.engine.ResetPassword(ctx, resetToken, newPassword)))

	_, err = h.engine.SignIn(ctx, email, password)
	assert.Equal(t, authcore.CodeInvalidCredentials, authcore.CodeOf(err))
	_, err = h.engine.SignIn(ctx, email, newPassword)
	require.NoError(t, err)

	require.NoError(t, h.engine.LogOut(ctx, sessionID))
	assert.Nil(t, h.engine.ValidateSession(ctx, sessionID))
}

func TestDuplicateSignUp(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.engine.SignUp(ctx, authcore.SignUpInput{Name: "Ada", Email: email, Password: password}))
	err := h.engine.SignUp(ctx, authcore.SignUpInput{Name: "Ada", Email: email, Password: password})
	assert.Equal(t, authcore.CodeExistingEmail, authcore.CodeOf(err))
}

func TestResetRequestsAreCapped(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.engine.SignUp(ctx, authcore.SignUpInput{Name: "Ada", Email: email, Password: password}))
	h.notifier.next(t, authcore.NotificationVerification)

	for i := 0; i < 5; i++ {
		require.NoError(t, h.engine.ForgotPassword(ctx, email))
		h.notifier.next(t, authcore.NotificationPasswordReset)
	}
	err := h.engine.ForgotPassword(ctx, email)
	assert.Equal(t, authcore.CodeRateLimited, authcore.CodeOf(err))
	_, ok := authcore.RetryAfter(err)
	assert.True(t, ok)
}

func TestConcurrentResetConsumesOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.engine.SignUp(ctx, authcore.SignUpInput{Name: "Ada", Email: email, Password: password}))
	h.notifier.next(t, authcore.NotificationVerification)
	require.NoError(t, h.engine.ForgotPassword(ctx, email))
	raw := h.notifier.next(t, authcore.NotificationPasswordReset)

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if h.engine.ResetPassword(ctx, raw, "N3w-Passw0rd!") == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, successes)
}

func TestCleanupAndHealth(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, password, salt) VALUES
		('00000000-0000-0000-0000-000000000001', 'Old', 'old@example.com', 'x', 'y')`)
	require.NoError(t, err)
	_, err = h.db.ExecContext(ctx, `
		INSERT INTO password_reset_tokens (id, token, user_id, expires_at, created_at) VALUES
		('00000000-0000-0000-0000-0000000000aa', 'deadbeef', '00000000-0000-0000-0000-000000000001', NOW() - INTERVAL '1 hour', NOW() - INTERVAL '2 hours')`)
	require.NoError(t, err)

	n, err := h.engine.CleanupExpiredTokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	report := h.engine.Health(ctx)
	assert.True(t, report.Healthy)
	assert.NoError(t, h.engine.Ready(ctx))
}

func TestExpiredResetTokensStillCountAfterCleanup(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, email_verified, password, salt) VALUES
		('00000000-0000-0000-0000-000000000002', 'Ada', $1, NOW(), 'x', 'y')`, email)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		_, err = h.db.ExecContext(ctx, `
			INSERT INTO password_reset_tokens (id, token, user_id, expires_at, created_at) VALUES
			(gen_random_uuid(), $1, '00000000-0000-0000-0000-000000000002', NOW() - INTERVAL '5 minutes', NOW() - INTERVAL '20 minutes')`,
			fmt.Sprintf("digest-%d", i))
		require.NoError(t, err)
	}

	n, err := h.engine.CleanupExpiredTokens(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "rows inside the rate window must survive the sweep")

	err = h.engine.ForgotPassword(ctx, email)
	assert.Equal(t, authcore.CodeRateLimited, authcore.CodeOf(err))
}
