//go:build integration

package test

import (
	"context"
	"database/sql"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/MrEthical07/authcore"
	"github.com/MrEthical07/authcore/internal/migrations"
)

// captureNotifier hands every message to the test.
type captureNotifier struct {
	ch chan authcore.Notification
}

func (c *captureNotifier) SendVerification(ctx context.Context, msg authcore.Notification) error {
	c.ch <- msg
	return nil
}

func (c *captureNotifier) SendPasswordReset(ctx context.Context, msg authcore.Notification) error {
	c.ch <- msg
	return nil
}

// next waits for the next message and returns the raw token in its link.
func (c *captureNotifier) next(t *testing.T, kind authcore.NotificationKind) string {
	t.Helper()
	select {
	case msg := <-c.ch:
		require.Equal(t, kind, msg.Kind)
		return msg.Link[strings.LastIndex(msg.Link, "/")+1:]
	case <-time.After(5 * time.Second):
		t.Fatalf("no %s notification", kind)
		return ""
	}
}

type harness struct {
	engine   *authcore.Engine
	db       *sql.DB
	redis    *miniredis.Miniredis
	notifier *captureNotifier
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	dsn := os.Getenv("AUTHCORE_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("AUTHCORE_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := sql.Open("pgx", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, migrations.Up(ctx, db))
	_, err = db.ExecContext(ctx, `TRUNCATE users, email_verification_tokens, password_reset_tokens CASCADE`)
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	notifier := &captureNotifier{ch: make(chan authcore.Notification, 16)}

	cfg := authcore.DefaultConfig()
	cfg.AppURL = "https://auth.example.com"

	engine, err := authcore.New().
		WithConfig(cfg).
		WithDB(db).
		WithRedisURL("redis://"+mr.Addr(), "").
		WithNotifier(notifier).
		WithLogger(zaptest.NewLogger(t)).
		Build()
	require.NoError(t, err)
	t.Cleanup(engine.Close)

	return &harness{engine: engine, db: db, redis: mr, notifier: notifier}
}
