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

// compile-time check that *DB implements repository.TodoRepository
var _ repository.TodoRepository = (*DB)(nil)

// CreateTodo inserts a new todo row. The repository fills in ID and timestamps.
func (db *DB) CreateTodo(ctx context.Context, todo *model.Todo) error {
	now := time.Now()
	todo.ID = xid.New().String()
	todo.CreatedAt = now
	todo.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO todos (id, user_id, title, description, completed, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		todo.ID,
		todo.UserID,
		todo.Title,
		todo.Description,
		todo.Completed,
		todo.CreatedAt,
		todo.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting todo for user %s: %w", todo.UserID, err)
	}

	return nil
}

// ListTodosByUser returns all of a user's todos, newest-created first.
//
// xid values are time-ordered, so "id DESC" as the secondary key preserves
// insertion order when two rows share a created_at timestamp.
func (db *DB) ListTodosByUser(ctx context.Context, userID string) ([]model.Todo, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, user_id, title, description, completed, created_at, updated_at
		 FROM todos
		 WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing todos for user %s: %w", userID, err)
	}
	defer rows.Close()

	todos := make([]model.Todo, 0, 16)

	for rows.Next() {
		var td model.Todo
		if err := rows.Scan(
			&td.ID, &td.UserID, &td.Title, &td.Description, &td.Completed,
			&td.CreatedAt, &td.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning todo row: %w", err)
		}
		todos = append(todos, td)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating todos: %w", err)
	}

	return todos, nil
}

// UpdateTodo applies a merge patch to the row matching BOTH id and userID.
//
// The ownership filter lives in the WHERE clause on purpose: the match and
// the mutation are one atomic statement, so there is no window in which a
// "does the caller own this?" check could go stale. Zero rows affected means
// the todo does not exist or belongs to someone else — the two cases are
// intentionally indistinguishable and both surface as ErrNotFound.
func (db *DB) UpdateTodo(ctx context.Context, id, userID string, patch model.TodoPatch, now time.Time) (*model.Todo, error) {
	// Build the SET clause from only the fields present in the patch.
	// updated_at is always refreshed on a successful update.
	set := "updated_at = ?"
	args := []any{now}

	if patch.Title != nil {
		set += ", title = ?"
		args = append(args, *patch.Title)
	}
	if patch.DescriptionSet {
		// Explicit null clears the column; a non-nil value replaces it.
		set += ", description = ?"
		args = append(args, patch.Description)
	}
	if patch.Completed != nil {
		set += ", completed = ?"
		args = append(args, *patch.Completed)
	}

	args = append(args, id, userID)

	result, err := db.conn.ExecContext(ctx,
		`UPDATE todos SET `+set+` WHERE id = ? AND user_id = ?`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: updating todo %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, apperror.NotFound("todo", id)
	}

	return db.getTodo(ctx, id, userID)
}

// DeleteTodo removes the row matching both id and userID. Reports (false, nil)
// when nothing matched — deleting an already-deleted todo is not an error.
func (db *DB) DeleteTodo(ctx context.Context, id, userID string) (bool, error) {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM todos WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	if err != nil {
		return false, fmt.Errorf("sqlite: deleting todo %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

func (db *DB) getTodo(ctx context.Context, id, userID string) (*model.Todo, error) {
	var td model.Todo

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, user_id, title, description, completed, created_at, updated_at
		 FROM todos
		 WHERE id = ? AND user_id = ?`,
		id, userID,
	).Scan(
		&td.ID, &td.UserID, &td.Title, &td.Description, &td.Completed,
		&td.CreatedAt, &td.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("todo", id)
		}
		return nil, fmt.Errorf("sqlite: getting todo %s: %w", id, err)
	}

	return &td, nil
}
