package model

import (
	"time"
)

// Session is a server-side login session. The ID doubles as the
// cookie value, so it must be generated from a CSPRNG.
type Session struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
}

func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}
