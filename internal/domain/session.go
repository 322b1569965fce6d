package domain

import "time"

// Session is a durable record backing one issued bearer token. A token is
// only valid while its session row exists and has not expired; logout
// deletes the row, which revokes the token regardless of its JWT expiry.
type Session struct {
	ID        string
	AccountID string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the session has passed its expiry.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
