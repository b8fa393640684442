package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/taskvault/internal/apperror"
	"github.com/sakif/taskvault/internal/model"
	"github.com/sakif/taskvault/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

// CreateUser inserts a new user row.
//
// The UNIQUE constraint on email is the real duplicate guard. The service
// pre-checks with GetUserByEmail for a friendly error, but two concurrent
// sign-ups with the same email can both pass that check — only one INSERT
// wins, and the loser gets ErrConflict here.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	now := time.Now()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, email, name, image, email_verified, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.Name,
		user.Image,
		user.EmailVerified,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", fmt.Sprintf("email %s is already registered", user.Email))
		}
		return fmt.Errorf("sqlite: inserting user (email=%s): %w", user.Email, err)
	}

	return nil
}

// GetUserByID retrieves a user by their internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return db.getUser(ctx, `WHERE id = ?`, id)
}

// GetUserByEmail retrieves a user by exact email match — byte-for-byte against
// the stored value, no case folding.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return db.getUser(ctx, `WHERE email = ?`, email)
}

func (db *DB) getUser(ctx context.Context, where string, arg any) (*model.User, error) {
	var u model.User

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, email, name, image, email_verified, created_at, updated_at
		 FROM users `+where,
		arg,
	).Scan(
		&u.ID,
		&u.Email,
		&u.Name,
		&u.Image,
		&u.EmailVerified,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", fmt.Sprint(arg))
		}
		return nil, fmt.Errorf("sqlite: getting user: %w", err)
	}

	return &u, nil
}

// DeleteUser removes a user row. The ON DELETE CASCADE foreign keys take the
// user's credentials, sessions, todos, and subscriptions down with it in the
// same atomic statement.
func (db *DB) DeleteUser(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting user %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("user", id)
	}

	return nil
}

// CreateCredential inserts a credential row for a user.
func (db *DB) CreateCredential(ctx context.Context, cred *model.Credential) error {
	now := time.Now()
	cred.ID = xid.New().String()
	cred.CreatedAt = now
	cred.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO credentials (id, user_id, provider_id, account_id, password_hash, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		cred.ID,
		cred.UserID,
		cred.ProviderID,
		cred.AccountID,
		cred.PasswordHash,
		cred.CreatedAt,
		cred.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("credential", fmt.Sprintf("provider %s already registered for user", cred.ProviderID))
		}
		return fmt.Errorf("sqlite: inserting credential for user %s: %w", cred.UserID, err)
	}

	return nil
}

// GetCredential returns the user's credential for the given provider.
func (db *DB) GetCredential(ctx context.Context, userID, providerID string) (*model.Credential, error) {
	var c model.Credential

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, user_id, provider_id, account_id, password_hash, created_at, updated_at
		 FROM credentials
		 WHERE user_id = ? AND provider_id = ?`,
		userID, providerID,
	).Scan(
		&c.ID,
		&c.UserID,
		&c.ProviderID,
		&c.AccountID,
		&c.PasswordHash,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("credential", userID)
		}
		return nil, fmt.Errorf("sqlite: getting credential for user %s: %w", userID, err)
	}

	return &c, nil
}

// isUniqueViolation reports whether err came from a UNIQUE or PRIMARY KEY
// constraint. modernc.org/sqlite surfaces these as plain errors whose message
// contains the constraint name, so a substring check is the practical test.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "constraint failed: UNIQUE")
}
