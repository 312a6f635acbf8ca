package domain

import "time"

// Session is an opaque bearer-token credential. The token is random,
// stored in plaintext, and only ever sent to the client once, at
// creation. A user may hold any number of concurrent sessions.
type Session struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Token     string    `json:"-" db:"token"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// IsExpired reports whether the session is past its expiry.
func (s Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}
