package service

// Hand-written in-memory mocks for the repository interfaces.
//
// The services only see interfaces, so tests inject these instead of a real
// database: no disk I/O, and failure cases (orphaned sessions, expired rows)
// can be staged directly by poking the maps.

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/sakif/taskvault/internal/apperror"
	"github.com/sakif/taskvault/internal/model"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

// ---------------------------------------------------------------------------
// users + credentials

type mockUserRepo struct {
	users  map[string]*model.User       // by ID
	creds  map[string]*model.Credential // by userID + "/" + providerID
	nextID int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		users: make(map[string]*model.User),
		creds: make(map[string]*model.Credential),
	}
}

func (m *mockUserRepo) CreateUser(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if u.Email == user.Email {
			return apperror.Conflict("user", "email already registered")
		}
	}
	m.nextID++
	user.ID = fmt.Sprintf("user-%d", m.nextID)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *mockUserRepo) GetUserByID(_ context.Context, id string) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	result := *u
	return &result, nil
}

func (m *mockUserRepo) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			result := *u
			return &result, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (m *mockUserRepo) DeleteUser(_ context.Context, id string) error {
	if _, ok := m.users[id]; !ok {
		return apperror.NotFound("user", id)
	}
	delete(m.users, id)
	return nil
}

func (m *mockUserRepo) CreateCredential(_ context.Context, cred *model.Credential) error {
	key := cred.UserID + "/" + cred.ProviderID
	if _, ok := m.creds[key]; ok {
		return apperror.Conflict("credential", "provider already registered")
	}
	m.nextID++
	cred.ID = fmt.Sprintf("cred-%d", m.nextID)
	stored := *cred
	m.creds[key] = &stored
	return nil
}

func (m *mockUserRepo) GetCredential(_ context.Context, userID, providerID string) (*model.Credential, error) {
	c, ok := m.creds[userID+"/"+providerID]
	if !ok {
		return nil, apperror.NotFound("credential", userID)
	}
	result := *c
	return &result, nil
}

// ---------------------------------------------------------------------------
// sessions

type mockSessionRepo struct {
	sessions map[string]*model.Session // by token
	nextID   int
}

func newMockSessionRepo() *mockSessionRepo {
	return &mockSessionRepo{sessions: make(map[string]*model.Session)}
}

func (m *mockSessionRepo) CreateSession(_ context.Context, session *model.Session) error {
	m.nextID++
	session.ID = fmt.Sprintf("session-%d", m.nextID)
	session.CreatedAt = time.Now()
	session.UpdatedAt = session.CreatedAt
	stored := *session
	m.sessions[session.Token] = &stored
	return nil
}

func (m *mockSessionRepo) GetSessionByToken(_ context.Context, token string) (*model.Session, error) {
	s, ok := m.sessions[token]
	if !ok {
		return nil, apperror.NotFound("session", "token")
	}
	result := *s
	return &result, nil
}

func (m *mockSessionRepo) DeleteSessionByToken(_ context.Context, token string) error {
	delete(m.sessions, token)
	return nil
}

// ---------------------------------------------------------------------------
// todos

type mockTodoRepo struct {
	todos  []*model.Todo // insertion order
	nextID int
}

func newMockTodoRepo() *mockTodoRepo {
	return &mockTodoRepo{}
}

func (m *mockTodoRepo) CreateTodo(_ context.Context, todo *model.Todo) error {
	m.nextID++
	todo.ID = fmt.Sprintf("todo-%d", m.nextID)
	todo.CreatedAt = time.Now()
	todo.UpdatedAt = todo.CreatedAt
	stored := *todo
	m.todos = append(m.todos, &stored)
	return nil
}

func (m *mockTodoRepo) ListTodosByUser(_ context.Context, userID string) ([]model.Todo, error) {
	result := make([]model.Todo, 0)
	// Newest first, like the real repository.
	for i := len(m.todos) - 1; i >= 0; i-- {
		if m.todos[i].UserID == userID {
			result = append(result, *m.todos[i])
		}
	}
	return result, nil
}

func (m *mockTodoRepo) UpdateTodo(_ context.Context, id, userID string, patch model.TodoPatch, now time.Time) (*model.Todo, error) {
	for _, td := range m.todos {
		if td.ID != id || td.UserID != userID {
			continue
		}
		if patch.Title != nil {
			td.Title = *patch.Title
		}
		if patch.DescriptionSet {
			td.Description = patch.Description
		}
		if patch.Completed != nil {
			td.Completed = *patch.Completed
		}
		td.UpdatedAt = now
		result := *td
		return &result, nil
	}
	return nil, apperror.NotFound("todo", id)
}

func (m *mockTodoRepo) DeleteTodo(_ context.Context, id, userID string) (bool, error) {
	for i, td := range m.todos {
		if td.ID == id && td.UserID == userID {
			m.todos = append(m.todos[:i], m.todos[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// ---------------------------------------------------------------------------
// subscriptions

type mockSubscriptionRepo struct {
	subs  map[string]*model.Subscription // by provider ID
	order []string                       // insertion order of IDs
}

func newMockSubscriptionRepo() *mockSubscriptionRepo {
	return &mockSubscriptionRepo{subs: make(map[string]*model.Subscription)}
}

func (m *mockSubscriptionRepo) CreateSubscription(_ context.Context, sub *model.Subscription) error {
	if _, ok := m.subs[sub.ID]; ok {
		return apperror.Conflict("subscription", "id already exists")
	}
	sub.CreatedAt = time.Now()
	sub.UpdatedAt = sub.CreatedAt
	stored := *sub
	m.subs[sub.ID] = &stored
	m.order = append(m.order, sub.ID)
	return nil
}

func (m *mockSubscriptionRepo) GetActiveSubscription(_ context.Context, userID string) (*model.Subscription, error) {
	// Oldest first, like the real repository's deterministic pick.
	for _, id := range m.order {
		s := m.subs[id]
		if s.UserID == userID && s.Status == model.SubscriptionActive {
			result := *s
			return &result, nil
		}
	}
	return nil, apperror.NotFound("subscription", userID)
}

func (m *mockSubscriptionRepo) GetLatestSubscription(_ context.Context, userID string) (*model.Subscription, error) {
	for i := len(m.order) - 1; i >= 0; i-- {
		s := m.subs[m.order[i]]
		if s.UserID == userID {
			result := *s
			return &result, nil
		}
	}
	return nil, apperror.NotFound("subscription", userID)
}

func (m *mockSubscriptionRepo) UpdateSubscriptionFields(_ context.Context, id string, patch model.SubscriptionPatch, now time.Time) error {
	s, ok := m.subs[id]
	if !ok {
		return nil // unknown id is a silent no-op
	}
	if patch.Status != nil {
		s.Status = *patch.Status
	}
	if patch.CurrentPeriodStart != nil {
		s.CurrentPeriodStart = *patch.CurrentPeriodStart
	}
	if patch.CurrentPeriodEnd != nil {
		s.CurrentPeriodEnd = *patch.CurrentPeriodEnd
	}
	s.UpdatedAt = now
	return nil
}

func (m *mockSubscriptionRepo) SetSubscriptionStatus(_ context.Context, id string, status model.SubscriptionStatus, now time.Time) error {
	s, ok := m.subs[id]
	if !ok {
		return nil
	}
	s.Status = status
	s.UpdatedAt = now
	return nil
}

// seedSubscription puts a subscription directly into the mock, bypassing the
// service, for tests that need pre-existing ledger state.
func seedSubscription(t *testing.T, m *mockSubscriptionRepo, id, userID, customerID string, status model.SubscriptionStatus) *model.Subscription {
	t.Helper()
	sub := &model.Subscription{
		ID:                 id,
		UserID:             userID,
		CustomerID:         customerID,
		Status:             status,
		PriceID:            "price_basic",
		CurrentPeriodStart: time.Now(),
		CurrentPeriodEnd:   time.Now().Add(30 * 24 * time.Hour),
	}
	if err := m.CreateSubscription(context.Background(), sub); err != nil {
		t.Fatalf("seeding subscription: %v", err)
	}
	return sub
}
