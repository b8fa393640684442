// Package service contains the business logic layer of the application.
//
// Handlers parse HTTP and write responses; services enforce the rules and
// orchestrate repositories; repositories talk to the database. Services
// receive repository interfaces (not *sqlite.DB) so tests can inject
// in-memory mocks, and they return domain errors (apperror) rather than
// HTTP status codes.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/sakif/taskvault/internal/apperror"
	"github.com/sakif/taskvault/internal/auth"
	"github.com/sakif/taskvault/internal/model"
	"github.com/sakif/taskvault/internal/repository"
)

// SessionTTL is how long a freshly minted session lives.
const SessionTTL = 30 * 24 * time.Hour

// MinPasswordLength is the minimum accepted password length at sign-up.
const MinPasswordLength = 8

// AuthService handles registration, sign-in, sign-out, and token validation.
type AuthService struct {
	users     repository.UserRepository
	sessions  repository.SessionRepository
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		sessions:  sessions,
		passwords: passwords,
		logger:    logger,
	}
}

// SignInResult bundles the authenticated user with the minted session so the
// handler can return both in one response.
type SignInResult struct {
	User    *model.User
	Token   string
	Session *model.Session
}

// Register creates a new user with a password credential.
//
// The returned user never carries the password in any form — the hash lives
// only in the credentials table. Duplicate emails fail with ErrConflict;
// the email comparison is exact-match against the stored value.
func (s *AuthService) Register(ctx context.Context, email, password, name string) (*model.User, error) {
	email = strings.TrimSpace(email)
	name = strings.TrimSpace(name)

	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, apperror.ValidationFailed("email", "a valid email address is required")
	}
	if len(password) < MinPasswordLength {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	// bcrypt's input limit. Checked here so the caller gets a 400, not a 500.
	if len(password) > 72 {
		return nil, apperror.ValidationFailed("password", "password must be 72 bytes or fewer")
	}
	if name == "" {
		return nil, apperror.ValidationFailed("name", "name is required")
	}

	// Friendly duplicate check. The UNIQUE constraint in the store is the
	// real guard — a concurrent sign-up that slips past this read still
	// surfaces as ErrConflict from CreateUser.
	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return nil, apperror.Conflict("user", fmt.Sprintf("email %s is already registered", email))
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/auth: checking existing email: %w", err)
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	user := &model.User{
		Email: email,
		Name:  name,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	cred := &model.Credential{
		UserID:       user.ID,
		ProviderID:   model.ProviderPassword,
		AccountID:    user.Email,
		PasswordHash: hash,
	}
	if err := s.users.CreateCredential(ctx, cred); err != nil {
		return nil, fmt.Errorf("service/auth: creating credential for user %s: %w", user.ID, err)
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
	)

	return user, nil
}

// SignIn authenticates a user and mints a new session.
//
// SINGLE UNDIFFERENTIATED FAILURE:
// Unknown email, missing password credential, and wrong password all return
// the exact same ErrInvalidCredentials. Distinguishing them would let an
// attacker probe which emails are registered.
func (s *AuthService) SignIn(ctx context.Context, email, password string, ipAddress, userAgent *string) (*SignInResult, error) {
	// Register trims before storing, so sign-in has to trim too or a
	// copy-pasted email with a trailing space would never match.
	email = strings.TrimSpace(email)

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.InvalidCredentials()
		}
		return nil, fmt.Errorf("service/auth: looking up user: %w", err)
	}

	cred, err := s.users.GetCredential(ctx, user.ID, model.ProviderPassword)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.InvalidCredentials()
		}
		return nil, fmt.Errorf("service/auth: looking up credential: %w", err)
	}

	if err := s.passwords.Verify(cred.PasswordHash, password); err != nil {
		return nil, apperror.InvalidCredentials()
	}

	token, err := auth.NewSessionToken()
	if err != nil {
		return nil, fmt.Errorf("service/auth: minting token: %w", err)
	}

	session := &model.Session{
		Token:     token,
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(SessionTTL),
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}
	if err := s.sessions.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("service/auth: creating session: %w", err)
	}

	s.logger.Info("user signed in",
		slog.String("userID", user.ID),
		slog.String("sessionID", session.ID),
	)

	return &SignInResult{
		User:    user,
		Token:   token,
		Session: session,
	}, nil
}

// Validate resolves a bearer token to its user.
//
// Returns (nil, nil) — not an error — for every "no valid session" case:
// empty token, unknown token, expired session, or a session whose user has
// since been deleted. On success the user is a fresh read, never a cached
// copy, so a just-renamed user shows their new name immediately.
func (s *AuthService) Validate(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, nil
	}

	session, err := s.sessions.GetSessionByToken(ctx, token)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("service/auth: looking up session: %w", err)
	}

	if !session.Valid(time.Now()) {
		return nil, nil
	}

	user, err := s.users.GetUserByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			// Orphaned session — its user is gone. Resolve to "no user"
			// rather than erroring or returning stale data.
			return nil, nil
		}
		return nil, fmt.Errorf("service/auth: looking up session user: %w", err)
	}

	return user, nil
}

// SignOut deletes the session matching the token.
//
// It always reports success, whether or not a matching session existed —
// anything else would leak whether a token was ever valid.
func (s *AuthService) SignOut(ctx context.Context, token string) error {
	if err := s.sessions.DeleteSessionByToken(ctx, token); err != nil {
		return fmt.Errorf("service/auth: deleting session: %w", err)
	}
	return nil
}
