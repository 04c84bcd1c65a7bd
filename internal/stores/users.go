package stores

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/MrEthical07/authcore/internal/dbx"
)

const uniqueViolation = "23505"

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
)

// User is the row shape of the users table as seen by the auth core.
type User struct {
	ID            string
	Name          string
	Email         string
	EmailVerified *time.Time
	PasswordHash  string
	Salt          string
	Role          string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// UserStore reads users and performs the few mutations auth flows need.
type UserStore struct {
	db  dbx.DBTX
	now func() time.Time
}

// NewUserStore returns a store bound to db.
func NewUserStore(db dbx.DBTX, now func() time.Time) *UserStore {
	return &UserStore{db: db, now: defaultClock(now)}
}

// NormalizeEmail lowercases and trims an address before lookups and inserts.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create inserts u. It returns ErrEmailTaken if the address is registered.
func (s *UserStore) Create(ctx context.Context, u *User) error {
	now := s.now()
	const query = `INSERT INTO users (id, name, email, password, salt, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`

	_, err := s.db.ExecContext(ctx, query, u.ID, u.Name, NormalizeEmail(u.Email), u.PasswordHash, u.Salt, u.Role, now)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrEmailTaken
		}
		return fmt.Errorf("db error: %w", err)
	}

	u.CreatedAt, u.UpdatedAt = now, now
	return nil
}

// ByEmail loads the user registered under email.
func (s *UserStore) ByEmail(ctx context.Context, email string) (*User, error) {
	const query = `SELECT id, name, email, email_verified, password, salt, role, created_at, updated_at
		FROM users WHERE email = $1`
	return s.scanOne(s.db.QueryRowContext(ctx, query, NormalizeEmail(email)))
}

// ByID loads the user with the given id.
func (s *UserStore) ByID(ctx context.Context, id string) (*User, error) {
	const query = `SELECT id, name, email, email_verified, password, salt, role, created_at, updated_at
		FROM users WHERE id = $1`
	return s.scanOne(s.db.QueryRowContext(ctx, query, id))
}

// UpdatePassword replaces the hash and salt of user id using q.
func (s *UserStore) UpdatePassword(ctx context.Context, q dbx.DBTX, id, hash, salt string) error {
	if q == nil {
		q = s.db
	}

	res, err := q.ExecContext(ctx,
		`UPDATE users SET password = $1, salt = $2, updated_at = $3 WHERE id = $4`,
		hash, salt, s.now(), id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *UserStore) scanOne(row *sql.Row) (*User, error) {
	var (
		u        User
		verified sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &verified, &u.PasswordHash, &u.Salt, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if verified.Valid {
		t := verified.Time
		u.EmailVerified = &t
	}
	return &u, nil
}
