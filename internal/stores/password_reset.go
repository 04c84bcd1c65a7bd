package stores

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/MrEthical07/authcore/internal/dbx"
	"github.com/MrEthical07/authcore/internal/rate"
	"github.com/MrEthical07/authcore/token"
)

const (
	// PasswordResetTTL is how long a reset link stays valid.
	PasswordResetTTL = 15 * time.Minute
	// MaxPasswordResetsPerHour caps reset tokens per user per trailing hour.
	MaxPasswordResetsPerHour = 5
)

// PasswordResetStore persists password-reset tokens. Consumed tokens keep
// their row with used_at set.
type PasswordResetStore struct {
	tokenTable
}

// NewPasswordResetStore returns a store bound to db.
func NewPasswordResetStore(db dbx.DBTX, opts StoreOptions) *PasswordResetStore {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = PasswordResetTTL
	}
	limit := opts.LimitPerHour
	if limit <= 0 {
		limit = MaxPasswordResetsPerHour
	}

	return &PasswordResetStore{
		tokenTable: tokenTable{
			db:     db,
			table:  "password_reset_tokens",
			ttl:    ttl,
			window: rate.Window{Limit: limit, Period: time.Hour},
			now:    defaultClock(opts.Now),
			logger: defaultLogger(opts.Logger),
		},
	}
}

// Create issues a reset token for userID and returns the raw value.
func (s *PasswordResetStore) Create(ctx context.Context, userID string) (string, error) {
	return s.create(ctx, nil, userID)
}

// Validate checks rawToken without consuming it.
func (s *PasswordResetStore) Validate(ctx context.Context, rawToken string) Validation {
	return s.validate(ctx, s.db, rawToken)
}

func (s *PasswordResetStore) validate(ctx context.Context, q dbx.DBTX, rawToken string) Validation {
	if rawToken == "" {
		return rejected(TokenInvalid)
	}

	const query = `SELECT id, user_id, token, expires_at, used_at
		FROM password_reset_tokens
		WHERE token = $1`

	rows, err := q.QueryContext(ctx, query, token.Hash(rawToken))
	if err != nil {
		s.logger.Error("password reset lookup failed", zap.Error(err))
		return rejected(TokenInvalid)
	}
	defer rows.Close()

	var (
		match   bool
		id      string
		userID  string
		expires time.Time
		usedAt  sql.NullTime
	)
	for rows.Next() {
		var (
			candID, candUser, digest string
			candExpires              time.Time
			candUsed                 sql.NullTime
		)
		if err := rows.Scan(&candID, &candUser, &digest, &candExpires, &candUsed); err != nil {
			s.logger.Error("password reset scan failed", zap.Error(err))
			return rejected(TokenInvalid)
		}
		if !match && token.Equal(digest, rawToken) {
			match = true
			id, userID, expires, usedAt = candID, candUser, candExpires, candUsed
		}
	}
	if err := rows.Err(); err != nil {
		s.logger.Error("password reset rows failed", zap.Error(err))
		return rejected(TokenInvalid)
	}
	rows.Close()

	if !match {
		return rejected(TokenNotFound)
	}
	if !s.now().Before(expires) {
		s.deleteByID(ctx, q, id)
		return rejected(TokenExpired)
	}
	if usedAt.Valid {
		return Validation{Err: TokenAlreadyUsed, UserID: userID, TokenID: id}
	}

	return Validation{Valid: true, UserID: userID, TokenID: id}
}

// Consume re-validates rawToken and marks it used.
func (s *PasswordResetStore) Consume(ctx context.Context, rawToken string) (bool, error) {
	return s.ConsumeWith(ctx, s.db, rawToken)
}

// ConsumeWith is Consume running on q, typically a transaction that also
// updates the user's password. The used_at update is conditional, so of two
// concurrent callers holding the same token exactly one gets true.
func (s *PasswordResetStore) ConsumeWith(ctx context.Context, q dbx.DBTX, rawToken string) (bool, error) {
	v := s.validate(ctx, q, rawToken)
	if !v.Valid {
		return false, nil
	}

	now := s.now()
	res, err := q.ExecContext(ctx,
		`UPDATE password_reset_tokens SET used_at = $1 WHERE id = $2 AND used_at IS NULL AND expires_at > $1`,
		now, v.TokenID)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n == 1, nil
}

// CheckRateLimit reports whether userID may request another reset.
func (s *PasswordResetStore) CheckRateLimit(ctx context.Context, userID string) rate.Decision {
	return s.checkRateLimit(ctx, userID)
}

// CleanupExpired deletes every expired reset token.
func (s *PasswordResetStore) CleanupExpired(ctx context.Context) (int64, error) {
	return s.cleanupExpired(ctx, nil)
}
