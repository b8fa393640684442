// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account — the identity that owns everything else.
//
// Credentials, sessions, todos, and subscriptions all hang off a user via
// foreign keys with ON DELETE CASCADE, so deleting a user removes every row
// that references it. The email is unique and compared exactly as stored
// (no lowercasing on our side).
//
// WHY Image/EmailVerified AS POINTERS?
// Both are genuinely optional: a user may never upload an avatar and may never
// verify their email. A nil pointer serializes to JSON null, which is what the
// frontend expects, and is distinct from "empty string" / "zero time".
type User struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	Name          string     `json:"name"`
	Image         *string    `json:"image"`
	EmailVerified *time.Time `json:"emailVerified"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// Credential is how a user proves who they are.
//
// One row per provider per user. Only the "password" provider is implemented:
// PasswordHash holds a bcrypt hash and AccountID mirrors the user's email.
// The row is created at sign-up and never mutated — password rotation would be
// a delete-and-recreate.
//
// The hash is deliberately excluded from JSON: a Credential must never leave
// the server with its secret attached.
type Credential struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	ProviderID   string    `json:"providerId"`
	AccountID    string    `json:"accountId"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ProviderPassword is the provider ID for email/password credentials.
const ProviderPassword = "password"
