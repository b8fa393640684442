package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// tokenBytes is the entropy of a session token. 32 random bytes (256 bits)
// is far beyond guessable; the encoded token is 43 URL-safe characters.
const tokenBytes = 32

// NewSessionToken mints an opaque bearer token.
//
// The token IS the secret — it is stored verbatim in the sessions table and
// presented by clients on every request. It must come from crypto/rand:
// anything time-derived (xid, timestamps) would be predictable, and a
// predictable bearer token is an account takeover.
func NewSessionToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("auth: generating session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
