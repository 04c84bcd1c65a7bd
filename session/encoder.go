package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrCorrupt is returned by Decode for records that do not match the stored shape.
var ErrCorrupt = errors.New("session: corrupt record")

type record struct {
	ID           string `json:"id"`
	Role         string `json:"role"`
	CreatedAt    int64  `json:"createdAt"`
	LastAccessed int64  `json:"lastAccessed"`
}

// Encode renders s in its stored form. The session id is the key and is not
// part of the document.
func Encode(s *Session) ([]byte, error) {
	if s == nil {
		return nil, errors.New("session: nil session")
	}
	rec := record{
		ID:           s.UserID,
		Role:         s.Role,
		CreatedAt:    s.CreatedAt.UnixMilli(),
		LastAccessed: s.LastAccessed.UnixMilli(),
	}
	if err := rec.validate(); err != nil {
		return nil, err
	}
	return json.Marshal(rec)
}

// Decode parses a stored document for session id.
func Decode(id string, data []byte) (*Session, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if err := rec.validate(); err != nil {
		return nil, err
	}

	return &Session{
		ID:           id,
		UserID:       rec.ID,
		Role:         rec.Role,
		CreatedAt:    time.UnixMilli(rec.CreatedAt),
		LastAccessed: time.UnixMilli(rec.LastAccessed),
	}, nil
}

func (r record) validate() error {
	switch {
	case r.ID == "":
		return fmt.Errorf("%w: missing user id", ErrCorrupt)
	case !validRole(r.Role):
		return fmt.Errorf("%w: invalid role %q", ErrCorrupt, r.Role)
	case r.CreatedAt <= 0:
		return fmt.Errorf("%w: missing createdAt", ErrCorrupt)
	case r.LastAccessed <= 0:
		return fmt.Errorf("%w: missing lastAccessed", ErrCorrupt)
	}
	return nil
}
