package stores

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/MrEthical07/authcore/internal/dbx"
	"github.com/MrEthical07/authcore/internal/rate"
	"github.com/MrEthical07/authcore/token"
)

const (
	// EmailVerificationTTL is how long a verification link stays valid.
	EmailVerificationTTL = 24 * time.Hour
	// MaxVerificationEmailsPerHour caps verification tokens per user per trailing hour.
	MaxVerificationEmailsPerHour = 3
)

// EmailVerificationStore persists email-verification tokens.
// Consumed tokens are deleted rather than flagged.
type EmailVerificationStore struct {
	tokenTable
	sqlDB *sql.DB
}

// StoreOptions customizes a token store. Zero values select defaults.
type StoreOptions struct {
	TTL          time.Duration
	LimitPerHour int
	Logger       *zap.Logger
	Now          func() time.Time
}

// NewEmailVerificationStore returns a store bound to db.
func NewEmailVerificationStore(db *sql.DB, opts StoreOptions) *EmailVerificationStore {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = EmailVerificationTTL
	}
	limit := opts.LimitPerHour
	if limit <= 0 {
		limit = MaxVerificationEmailsPerHour
	}

	return &EmailVerificationStore{
		tokenTable: tokenTable{
			db:     db,
			table:  "email_verification_tokens",
			ttl:    ttl,
			window: rate.Window{Limit: limit, Period: time.Hour},
			now:    defaultClock(opts.Now),
			logger: defaultLogger(opts.Logger),
		},
		sqlDB: db,
	}
}

// Create issues a verification token for userID and returns the raw value.
func (s *EmailVerificationStore) Create(ctx context.Context, userID string) (string, error) {
	return s.create(ctx, nil, userID)
}

// Validate checks rawToken without consuming it.
func (s *EmailVerificationStore) Validate(ctx context.Context, rawToken string) Validation {
	return s.validate(ctx, s.db, rawToken)
}

func (s *EmailVerificationStore) validate(ctx context.Context, q dbx.DBTX, rawToken string) Validation {
	if rawToken == "" {
		return rejected(TokenInvalid)
	}

	const query = `SELECT t.id, t.user_id, t.token, t.expires_at, u.email_verified
		FROM email_verification_tokens t
		JOIN users u ON u.id = t.user_id
		WHERE t.token = $1`

	rows, err := q.QueryContext(ctx, query, token.Hash(rawToken))
	if err != nil {
		s.logger.Error("email verification lookup failed", zap.Error(err))
		return rejected(TokenInvalid)
	}
	defer rows.Close()

	var (
		match    bool
		id       string
		userID   string
		expires  time.Time
		verified sql.NullTime
	)
	for rows.Next() {
		var (
			candID, candUser, digest string
			candExpires              time.Time
			candVerified             sql.NullTime
		)
		if err := rows.Scan(&candID, &candUser, &digest, &candExpires, &candVerified); err != nil {
			s.logger.Error("email verification scan failed", zap.Error(err))
			return rejected(TokenInvalid)
		}
		if !match && token.Equal(digest, rawToken) {
			match = true
			id, userID, expires, verified = candID, candUser, candExpires, candVerified
		}
	}
	if err := rows.Err(); err != nil {
		s.logger.Error("email verification rows failed", zap.Error(err))
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
	if verified.Valid {
		return Validation{Err: TokenAlreadyUsed, UserID: userID, TokenID: id}
	}

	return Validation{Valid: true, UserID: userID, TokenID: id}
}

// Consume re-validates rawToken, then marks the user verified and deletes the
// token in one transaction. It returns false when validation fails or a
// concurrent consumer won the race.
func (s *EmailVerificationStore) Consume(ctx context.Context, rawToken string) (bool, error) {
	var consumed bool
	err := dbx.WithTx(ctx, s.sqlDB, nil, func(ctx context.Context, tx dbx.DBTX) error {
		v := s.validate(ctx, tx, rawToken)
		if !v.Valid {
			return nil
		}

		now := s.now()
		res, err := tx.ExecContext(ctx,
			`UPDATE users SET email_verified = $1, updated_at = $1 WHERE id = $2 AND email_verified IS NULL`,
			now, v.UserID)
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil || n != 1 {
			return errLostRace
		}

		res, err = tx.ExecContext(ctx, `DELETE FROM email_verification_tokens WHERE id = $1`, v.TokenID)
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil || n != 1 {
			return errLostRace
		}

		consumed = true
		return nil
	})
	if errors.Is(err, errLostRace) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return consumed, nil
}

// CheckRateLimit reports whether userID may be sent another verification email.
func (s *EmailVerificationStore) CheckRateLimit(ctx context.Context, userID string) rate.Decision {
	return s.checkRateLimit(ctx, userID)
}

// CleanupExpired deletes every expired verification token.
func (s *EmailVerificationStore) CleanupExpired(ctx context.Context) (int64, error) {
	return s.cleanupExpired(ctx, nil)
}
