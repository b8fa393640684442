package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/taskvault/internal/apperror"
	"github.com/sakif/taskvault/internal/model"
	"github.com/sakif/taskvault/internal/repository"
)

// MaxTitleLength caps todo titles.
const MaxTitleLength = 500

// TodoService handles business logic for task items.
//
// Every method takes the owner's user ID as an explicit parameter. The ID
// comes from the auth gate's resolved session — never from client input —
// and flows into the repository's (id, user_id) predicates, which is where
// ownership is actually enforced.
type TodoService struct {
	repo   repository.TodoRepository
	logger *slog.Logger
}

// NewTodoService creates a TodoService.
func NewTodoService(repo repository.TodoRepository, logger *slog.Logger) *TodoService {
	return &TodoService{
		repo:   repo,
		logger: logger,
	}
}

// Create validates and saves a new todo for the owner.
// Description may be nil ("no description"); Completed starts false.
func (s *TodoService) Create(ctx context.Context, ownerID, title string, description *string) (*model.Todo, error) {
	title = strings.TrimSpace(title)

	if title == "" {
		return nil, apperror.ValidationFailed("title", "title is required")
	}
	if len(title) > MaxTitleLength {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
	}

	todo := &model.Todo{
		UserID:      ownerID,
		Title:       title,
		Description: description,
		Completed:   false,
	}

	if err := s.repo.CreateTodo(ctx, todo); err != nil {
		s.logger.Error("failed to create todo",
			slog.String("userID", ownerID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating todo: %w", err)
	}

	s.logger.Info("todo created",
		slog.String("id", todo.ID),
		slog.String("userID", ownerID),
	)

	return todo, nil
}

// List returns all of the owner's todos, newest-created first.
func (s *TodoService) List(ctx context.Context, ownerID string) ([]model.Todo, error) {
	todos, err := s.repo.ListTodosByUser(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing todos: %w", err)
	}
	return todos, nil
}

// Update applies a merge patch to the owner's todo.
//
// Only fields present in the patch change; an explicit null description
// clears the column. A miss — unknown id or a todo owned by someone else —
// is ErrNotFound either way; the service never reveals which.
func (s *TodoService) Update(ctx context.Context, id, ownerID string, patch model.TodoPatch) (*model.Todo, error) {
	if patch.Title != nil {
		trimmed := strings.TrimSpace(*patch.Title)
		if trimmed == "" {
			return nil, apperror.ValidationFailed("title", "title must not be empty")
		}
		if len(trimmed) > MaxTitleLength {
			return nil, apperror.ValidationFailed("title",
				fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
		}
		patch.Title = &trimmed
	}

	todo, err := s.repo.UpdateTodo(ctx, id, ownerID, patch, time.Now())
	if err != nil {
		return nil, fmt.Errorf("updating todo %s: %w", id, err)
	}

	s.logger.Info("todo updated",
		slog.String("id", id),
		slog.String("userID", ownerID),
	)

	return todo, nil
}

// Delete removes the owner's todo and reports whether a row was deleted.
// Deleting a missing (or foreign) todo returns (false, nil), so repeating a
// delete is harmless.
func (s *TodoService) Delete(ctx context.Context, id, ownerID string) (bool, error) {
	deleted, err := s.repo.DeleteTodo(ctx, id, ownerID)
	if err != nil {
		return false, fmt.Errorf("deleting todo %s: %w", id, err)
	}

	if deleted {
		s.logger.Info("todo deleted",
			slog.String("id", id),
			slog.String("userID", ownerID),
		)
	}

	return deleted, nil
}
