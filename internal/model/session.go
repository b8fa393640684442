package model

import "time"

// Session is the server-side record behind a bearer token.
//
// The token itself is the secret: an opaque, cryptographically random string
// presented in the Authorization header on every request. We store it verbatim
// with a UNIQUE constraint and look sessions up by it.
//
// A session is valid iff the row exists and now < ExpiresAt. Expiry is checked
// lazily at validation time — there is no background reaper. Sign-out deletes
// the row, which is why sessions live in the database rather than in a signed
// stateless token: revocation has to take effect immediately.
//
// IPAddress and UserAgent are advisory client metadata captured at sign-in.
// Nothing enforces them; they exist so a future "your devices" page can show
// where each session came from.
type Session struct {
	ID        string    `json:"id"`
	Token     string    `json:"-"`
	UserID    string    `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
	IPAddress *string   `json:"ipAddress"`
	UserAgent *string   `json:"userAgent"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Valid reports whether the session has not yet expired at the given instant.
func (s *Session) Valid(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}
