package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sakif/taskvault/internal/apperror"
	"github.com/sakif/taskvault/internal/model"
)

func TestCreateSession(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "session@example.com")

	ip := "203.0.113.7"
	ua := "curl/8.0"
	session := &model.Session{
		Token:     "tok_abc",
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(time.Hour),
		IPAddress: &ip,
		UserAgent: &ua,
	}

	if err := db.CreateSession(context.Background(), session); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	if session.ID == "" {
		t.Error("CreateSession() did not set session.ID")
	}
	if session.CreatedAt.IsZero() {
		t.Error("CreateSession() did not set session.CreatedAt")
	}
}

func TestGetSessionByToken(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "lookup-session@example.com")

	session := &model.Session{
		Token:     "tok_lookup",
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	if err := db.CreateSession(ctx, session); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	found, err := db.GetSessionByToken(ctx, "tok_lookup")
	if err != nil {
		t.Fatalf("GetSessionByToken() error = %v", err)
	}
	if found.UserID != user.ID {
		t.Errorf("UserID = %q, want %q", found.UserID, user.ID)
	}
	if found.IPAddress != nil {
		t.Errorf("IPAddress = %v, want nil", found.IPAddress)
	}
}

// An expired session is still returned — the repository stores and fetches;
// whether the session counts as valid is the service layer's decision.
func TestGetSessionByToken_ExpiredStillReturned(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "expired-session@example.com")

	session := &model.Session{
		Token:     "tok_expired",
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(-time.Hour),
	}
	if err := db.CreateSession(ctx, session); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	found, err := db.GetSessionByToken(ctx, "tok_expired")
	if err != nil {
		t.Fatalf("GetSessionByToken() error = %v", err)
	}
	if found.Valid(time.Now()) {
		t.Error("session should report invalid after its expiry")
	}
}

func TestGetSessionByToken_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetSessionByToken(context.Background(), "tok_never_issued")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestCreateSession_DuplicateToken(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "dup-token@example.com")

	first := &model.Session{Token: "tok_dup", UserID: user.ID, ExpiresAt: time.Now().Add(time.Hour)}
	if err := db.CreateSession(ctx, first); err != nil {
		t.Fatalf("CreateSession() first: %v", err)
	}

	second := &model.Session{Token: "tok_dup", UserID: user.ID, ExpiresAt: time.Now().Add(time.Hour)}
	if err := db.CreateSession(ctx, second); err == nil {
		t.Fatal("CreateSession() should have failed on duplicate token")
	}
}

func TestDeleteSessionByToken(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "signout@example.com")

	session := &model.Session{
		Token:     "tok_delete",
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	if err := db.CreateSession(ctx, session); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	if err := db.DeleteSessionByToken(ctx, "tok_delete"); err != nil {
		t.Fatalf("DeleteSessionByToken() error = %v", err)
	}

	if _, err := db.GetSessionByToken(ctx, "tok_delete"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("session after delete: error = %v, want ErrNotFound", err)
	}

	// Deleting the same token again must not error.
	if err := db.DeleteSessionByToken(ctx, "tok_delete"); err != nil {
		t.Errorf("second DeleteSessionByToken() error = %v, want nil", err)
	}
}

func TestDeleteSessionByToken_UnknownToken(t *testing.T) {
	db := newTestDB(t)

	if err := db.DeleteSessionByToken(context.Background(), "tok_unknown"); err != nil {
		t.Errorf("DeleteSessionByToken() on unknown token: error = %v, want nil", err)
	}
}
