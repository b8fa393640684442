// Package repository declares the storage interfaces the service layer
// depends on. The sqlite subpackage provides the real implementation; tests
// substitute in-memory mocks.
package repository

import (
	"context"
	"time"

	"github.com/sakif/taskvault/internal/model"
)

// UserRepository persists users and their credentials.
//
// Users and credentials are grouped into one interface because they are only
// ever written together: sign-up creates a user row plus a password credential
// row, and nothing else ever touches credentials.
type UserRepository interface {
	// CreateUser inserts a new user row. The repository fills in ID and
	// timestamps. A duplicate email is apperror.ErrConflict.
	CreateUser(ctx context.Context, user *model.User) error
	// GetUserByID returns the user or apperror.ErrNotFound.
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	// GetUserByEmail does an exact-match lookup on the stored email value.
	// Returns apperror.ErrNotFound when no user has that email.
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	// DeleteUser removes a user. Foreign-key cascades remove the user's
	// credentials, sessions, todos, and subscriptions in the same statement.
	DeleteUser(ctx context.Context, id string) error

	// CreateCredential inserts a credential row for a user.
	CreateCredential(ctx context.Context, cred *model.Credential) error
	// GetCredential returns the user's credential for a provider, or
	// apperror.ErrNotFound if the user has none.
	GetCredential(ctx context.Context, userID, providerID string) (*model.Credential, error)
}

// SessionRepository persists bearer-token sessions.
type SessionRepository interface {
	CreateSession(ctx context.Context, session *model.Session) error
	// GetSessionByToken looks a session up by its opaque token.
	// Returns apperror.ErrNotFound for unknown tokens. Expiry is NOT checked
	// here — validity is the service layer's decision.
	GetSessionByToken(ctx context.Context, token string) (*model.Session, error)
	// DeleteSessionByToken removes the session matching the token. Deleting a
	// token with no matching row is not an error.
	DeleteSessionByToken(ctx context.Context, token string) error
}

// TodoRepository persists task items. Every lookup and mutation other than
// CreateTodo filters by (id, userID) so that ownership is enforced at the
// storage predicate, not by an application-level check that could race.
type TodoRepository interface {
	CreateTodo(ctx context.Context, todo *model.Todo) error
	// ListTodosByUser returns the user's todos, newest-created first.
	ListTodosByUser(ctx context.Context, userID string) ([]model.Todo, error)
	// UpdateTodo applies a merge patch to the row matching (id, userID) and
	// returns the updated row. A miss — absent row or different owner,
	// indistinguishable — is apperror.ErrNotFound.
	UpdateTodo(ctx context.Context, id, userID string, patch model.TodoPatch, now time.Time) (*model.Todo, error)
	// DeleteTodo removes the row matching (id, userID) and reports whether a
	// row was actually deleted. A miss is (false, nil), not an error.
	DeleteTodo(ctx context.Context, id, userID string) (bool, error)
}

// SubscriptionRepository persists billing records. Writes come only from the
// webhook ingestor; reads serve the premium-status check.
type SubscriptionRepository interface {
	// CreateSubscription inserts a row verbatim (IDs come from the payment
	// provider). A duplicate primary key is apperror.ErrConflict.
	CreateSubscription(ctx context.Context, sub *model.Subscription) error
	// GetActiveSubscription returns the first active row for the user, or
	// apperror.ErrNotFound when there is none. "First" is deterministic:
	// oldest created_at, then id.
	GetActiveSubscription(ctx context.Context, userID string) (*model.Subscription, error)
	// GetLatestSubscription returns the user's most recent row regardless of
	// status, or apperror.ErrNotFound. Used to resolve the customer ID for
	// the billing portal.
	GetLatestSubscription(ctx context.Context, userID string) (*model.Subscription, error)
	// UpdateSubscriptionFields merges the patch into the row with the given
	// id. Matching zero rows is a silent no-op — webhook deliveries may
	// arrive for subscriptions this system never stored.
	UpdateSubscriptionFields(ctx context.Context, id string, patch model.SubscriptionPatch, now time.Time) error
	// SetSubscriptionStatus overwrites the status of the row with the given
	// id. Idempotent; matching zero rows is a silent no-op.
	SetSubscriptionStatus(ctx context.Context, id string, status model.SubscriptionStatus, now time.Time) error
}
