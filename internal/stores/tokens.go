package stores

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MrEthical07/authcore/internal/dbx"
	"github.com/MrEthical07/authcore/internal/rate"
	"github.com/MrEthical07/authcore/token"
)

// TokenError classifies why a presented token was rejected.
type TokenError string

const (
	TokenNotFound    TokenError = "NOT_FOUND"
	TokenExpired     TokenError = "EXPIRED"
	TokenAlreadyUsed TokenError = "ALREADY_USED"
	TokenInvalid     TokenError = "INVALID"
)

// errLostRace aborts a consuming transaction whose conditional statement
// affected no rows.
var errLostRace = errors.New("token consumed concurrently")

// Validation is the structured outcome of a token check.
type Validation struct {
	Valid   bool
	UserID  string
	TokenID string
	Err     TokenError
}

func rejected(code TokenError) Validation {
	return Validation{Err: code}
}

// tokenTable holds the parts shared by both token kinds.
type tokenTable struct {
	db     dbx.DBTX
	table  string
	ttl    time.Duration
	window rate.Window
	now    func() time.Time
	logger *zap.Logger
}

// purgeCutoff bounds which expired rows may be deleted: rows created after it
// still count toward the issuance rate limit and are kept until they age out.
func (t *tokenTable) purgeCutoff(now time.Time) time.Time {
	return now.Add(-t.window.Period)
}

// create deletes the user's expired rows of this kind, then stores a fresh digest.
func (t *tokenTable) create(ctx context.Context, q dbx.DBTX, userID string) (string, error) {
	if q == nil {
		q = t.db
	}

	raw, err := token.Generate()
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}

	now := t.now()
	deleteExpired := `DELETE FROM ` + t.table + ` WHERE user_id = $1 AND expires_at < $2 AND created_at <= $3`
	if _, err := q.ExecContext(ctx, deleteExpired, userID, now, t.purgeCutoff(now)); err != nil {
		return "", fmt.Errorf("db error: %w", err)
	}

	insert := `INSERT INTO ` + t.table + ` (id, user_id, token, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	if _, err := q.ExecContext(ctx, insert, uuid.NewString(), userID, token.Hash(raw), now.Add(t.ttl), now); err != nil {
		return "", fmt.Errorf("db error: %w", err)
	}

	return raw, nil
}

func (t *tokenTable) deleteByID(ctx context.Context, q dbx.DBTX, id string) {
	if _, err := q.ExecContext(ctx, `DELETE FROM `+t.table+` WHERE id = $1`, id); err != nil {
		t.logger.Warn("expired token cleanup failed", zap.String("table", t.table), zap.Error(err))
	}
}

// checkRateLimit counts tokens issued to userID inside the trailing window.
// Query failures fail open.
func (t *tokenTable) checkRateLimit(ctx context.Context, userID string) rate.Decision {
	now := t.now()
	since := now.Add(-t.window.Period)

	var (
		count  int
		oldest sql.NullTime
	)
	query := `SELECT COUNT(*), MIN(created_at) FROM ` + t.table + ` WHERE user_id = $1 AND created_at > $2`
	if err := t.db.QueryRowContext(ctx, query, userID, since).Scan(&count, &oldest); err != nil {
		t.logger.Error("rate limit check failed, allowing request", zap.String("table", t.table), zap.Error(err))
		return rate.Decision{Allowed: true, Remaining: t.window.Limit}
	}

	var oldestAt time.Time
	if oldest.Valid {
		oldestAt = oldest.Time
	}
	return t.window.Decide(count, oldestAt)
}

func (t *tokenTable) cleanupExpired(ctx context.Context, q dbx.DBTX) (int64, error) {
	if q == nil {
		q = t.db
	}
	now := t.now()
	res, err := q.ExecContext(ctx, `DELETE FROM `+t.table+` WHERE expires_at < $1 AND created_at <= $2`, now, t.purgeCutoff(now))
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func defaultLogger(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

func defaultClock(now func() time.Time) func() time.Time {
	if now == nil {
		return time.Now
	}
	return now
}
