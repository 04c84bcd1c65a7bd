package session

import "time"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Payload is the caller-supplied part of a session.
type Payload struct {
	UserID string
	Role   string
}

// Session is a stored session.
type Session struct {
	ID           string
	UserID       string
	Role         string
	CreatedAt    time.Time
	LastAccessed time.Time
}

// Idle returns how long ago the session was last refreshed.
func (s *Session) Idle(now time.Time) time.Duration {
	return now.Sub(s.LastAccessed)
}

func validRole(role string) bool {
	return role == RoleAdmin || role == RoleUser
}
