package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/taskvault/internal/apperror"
	"github.com/sakif/taskvault/internal/model"
	"github.com/sakif/taskvault/internal/repository"
)

// compile-time check that *DB implements repository.SessionRepository
var _ repository.SessionRepository = (*DB)(nil)

// CreateSession inserts a new session row. The caller supplies the token and expiry;
// the repository fills in ID and timestamps.
func (db *DB) CreateSession(ctx context.Context, session *model.Session) error {
	now := time.Now()
	session.ID = xid.New().String()
	session.CreatedAt = now
	session.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO sessions (id, token, user_id, expires_at, ip_address, user_agent, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID,
		session.Token,
		session.UserID,
		session.ExpiresAt,
		session.IPAddress,
		session.UserAgent,
		session.CreatedAt,
		session.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting session for user %s: %w", session.UserID, err)
	}

	return nil
}

// GetSessionByToken looks a session up by its opaque token. Expired sessions are
// still returned — whether a session counts as valid is decided by the
// service, which compares ExpiresAt against the current time.
func (db *DB) GetSessionByToken(ctx context.Context, token string) (*model.Session, error) {
	var s model.Session

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, token, user_id, expires_at, ip_address, user_agent, created_at, updated_at
		 FROM sessions
		 WHERE token = ?`,
		token,
	).Scan(
		&s.ID,
		&s.Token,
		&s.UserID,
		&s.ExpiresAt,
		&s.IPAddress,
		&s.UserAgent,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("session", "token")
		}
		return nil, fmt.Errorf("sqlite: getting session by token: %w", err)
	}

	return &s, nil
}

// DeleteSessionByToken removes the session matching the token. Zero rows matched is
// fine — sign-out must succeed whether or not the token was ever valid.
func (db *DB) DeleteSessionByToken(ctx context.Context, token string) error {
	_, err := db.conn.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token)
	if err != nil {
		return fmt.Errorf("sqlite: deleting session by token: %w", err)
	}
	return nil
}
